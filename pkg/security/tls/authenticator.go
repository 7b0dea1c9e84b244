package tls

import (
	"context"
	"fmt"

	"mercator-hq/brokerproxy/pkg/identity"
)

// CertAuthenticator adapts mTLS client-certificate identity extraction into
// an identity.Authenticator. It never reads authData: mTLS identity is
// established during the TLS handshake, before the Connect frame arrives,
// so it looks up the peer certificate stashed in ctx by
// ContextWithPeerCertificate instead (spec §4.1: "TLS handshake if
// configured" happens before the state machine is created).
type CertAuthenticator struct {
	identitySource string
}

// NewCertAuthenticator builds a CertAuthenticator using identitySource to
// pick the certificate field used as the principal name (see
// ExtractClientIdentity).
func NewCertAuthenticator(identitySource string) *CertAuthenticator {
	return &CertAuthenticator{identitySource: identitySource}
}

// Authenticate implements identity.Authenticator.
func (a *CertAuthenticator) Authenticate(ctx context.Context, method string, authData []byte) (identity.Principal, error) {
	cert, ok := PeerCertificateFromContext(ctx)
	if !ok || cert == nil {
		return identity.Principal{}, fmt.Errorf("tls: no client certificate presented")
	}
	name := ExtractClientIdentity(cert, a.identitySource)
	if name == "" {
		return identity.Principal{}, fmt.Errorf("tls: client certificate has no usable identity for source %q", a.identitySource)
	}
	return identity.Principal{Name: name}, nil
}
