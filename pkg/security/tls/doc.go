/*
Package tls provides TLS and mTLS configuration for the proxy's
client-facing listener and its connections to backend brokers.

# TLS Server Configuration

Enable TLS 1.3 for the client listener or a backend dial: both share the
same Config type (spec.md §6: "TLS material: key, cert, trust store;
hostname verification flag").

	cfg := &tls.Config{
		Enabled:    true,
		CertFile:   "/etc/mercator/certs/server.crt",
		KeyFile:    "/etc/mercator/certs/server.key",
		MinVersion: "1.3",
		CipherSuites: []string{
			"TLS_AES_128_GCM_SHA256",
			"TLS_AES_256_GCM_SHA384",
		},
	}

	tlsConfig, err := cfg.ToTLSConfig()
	if err != nil {
		log.Fatal(err)
	}

# Mutual TLS (mTLS)

Enable client certificate authentication on the listener, and authenticate
connections by the certificate's identity via CertAuthenticator:

	cfg := &tls.Config{
		Enabled:  true,
		CertFile: "/etc/proxy/certs/server.crt",
		KeyFile:  "/etc/proxy/certs/server.key",
		MTLS: MTLSConfig{
			Enabled:          true,
			ClientCAFile:     "/etc/proxy/certs/client-ca.pem",
			ClientAuthType:   "require",
			VerifyClientCert: true,
			IdentitySource:   "subject.CN",
		},
	}

	authenticator := tls.NewCertAuthenticator(cfg.MTLS.IdentitySource)

The listener stashes each accepted connection's leaf peer certificate into
the request context with ContextWithPeerCertificate before the Connect
handshake runs, since mTLS identity is established during the TLS
handshake itself, earlier than any Connect frame arrives.

# Certificate Auto-Reload

Automatically reload certificates without server restart:

	reloader := NewCertificateReloader(certFile, keyFile, 5*time.Minute)
	if err := reloader.Start(ctx); err != nil {
		log.Fatal(err)
	}

	tlsConfig.GetCertificate = reloader.GetCertificateFunc()
*/
package tls
