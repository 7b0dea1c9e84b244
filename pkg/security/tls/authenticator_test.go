package tls

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"os"
	"testing"
)

func loadTestClientCert(t *testing.T) *x509.Certificate {
	t.Helper()
	pemBytes, err := os.ReadFile("testdata/client-cert.pem")
	if err != nil {
		t.Fatalf("read client cert: %v", err)
	}
	block, _ := pem.Decode(pemBytes)
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse client cert: %v", err)
	}
	return cert
}

func TestCertAuthenticator_Authenticate(t *testing.T) {
	cert := loadTestClientCert(t)
	authr := NewCertAuthenticator("subject.CN")

	ctx := ContextWithPeerCertificate(context.Background(), cert)
	p, err := authr.Authenticate(ctx, "mtls", nil)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Name != "test-client" {
		t.Errorf("principal.Name = %q, want test-client", p.Name)
	}
}

func TestCertAuthenticator_NoPeerCertificate(t *testing.T) {
	authr := NewCertAuthenticator("subject.CN")
	if _, err := authr.Authenticate(context.Background(), "mtls", nil); err == nil {
		t.Fatal("Authenticate with no peer certificate in context = nil error, want error")
	}
}
