package tls

import (
	"context"
	"crypto/x509"
	"fmt"
)

// ExtractClientIdentity extracts identity from a client certificate
// based on the configured identity source.
//
// Supported identity sources:
//   - "subject.CN": Common Name from Subject
//   - "subject.OU": Organizational Unit from Subject
//   - "subject.O": Organization from Subject
//   - "SAN": First DNS name from Subject Alternative Names
//
// Returns an empty string if the identity cannot be extracted.
func ExtractClientIdentity(cert *x509.Certificate, source string) string {
	if cert == nil {
		return ""
	}

	switch source {
	case "subject.CN", "":
		return cert.Subject.CommonName

	case "subject.OU":
		if len(cert.Subject.OrganizationalUnit) > 0 {
			return cert.Subject.OrganizationalUnit[0]
		}

	case "subject.O":
		if len(cert.Subject.Organization) > 0 {
			return cert.Subject.Organization[0]
		}

	case "SAN":
		if len(cert.DNSNames) > 0 {
			return cert.DNSNames[0]
		}
	}

	return ""
}

// ClientCertInfo represents information extracted from a client certificate.
type ClientCertInfo struct {
	Identity           string
	Subject            string
	Issuer             string
	SerialNumber       string
	OrganizationalUnit []string
	Organization       []string
	DNSNames           []string
}

// ExtractClientCertInfo extracts detailed information from a client certificate.
func ExtractClientCertInfo(cert *x509.Certificate, identitySource string) *ClientCertInfo {
	if cert == nil {
		return nil
	}

	return &ClientCertInfo{
		Identity:           ExtractClientIdentity(cert, identitySource),
		Subject:            cert.Subject.String(),
		Issuer:             cert.Issuer.String(),
		SerialNumber:       fmt.Sprintf("%x", cert.SerialNumber),
		OrganizationalUnit: cert.Subject.OrganizationalUnit,
		Organization:       cert.Subject.Organization,
		DNSNames:           cert.DNSNames,
	}
}

// peerCertContextKey is the context key the client listener stashes the
// leaf peer certificate under, once per accepted connection, so it is
// available to the Connect/AuthResponse handshake without threading the
// net.Conn itself through identity.Authenticator's signature.
type peerCertContextKey struct{}

// ContextWithPeerCertificate returns a copy of ctx carrying cert as the
// connection's client certificate.
func ContextWithPeerCertificate(ctx context.Context, cert *x509.Certificate) context.Context {
	return context.WithValue(ctx, peerCertContextKey{}, cert)
}

// PeerCertificateFromContext retrieves the client certificate stashed by
// ContextWithPeerCertificate, if any.
func PeerCertificateFromContext(ctx context.Context) (*x509.Certificate, bool) {
	cert, ok := ctx.Value(peerCertContextKey{}).(*x509.Certificate)
	return cert, ok
}

// ValidateClientCertificate validates a client certificate against a CA pool.
func ValidateClientCertificate(cert *x509.Certificate, caPool *x509.CertPool) error {
	if cert == nil {
		return fmt.Errorf("client certificate is nil")
	}

	// Verify certificate against CA pool
	opts := x509.VerifyOptions{
		Roots:     caPool,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	if _, err := cert.Verify(opts); err != nil {
		return fmt.Errorf("client certificate validation failed: %w", err)
	}

	// Check expiration
	if err := ValidateX509Certificate(cert); err != nil {
		return err
	}

	return nil
}
