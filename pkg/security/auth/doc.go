/*
Package auth provides token-based client authentication for the proxy's
Connect/AuthResponse handshake, plus a tenant-scoped authorizer for the
lookup path.

# Basic Usage

Create a token store and adapt it into the identity collaborator
interfaces the connection and lookup paths consult:

	store := auth.NewTokenValidator([]*auth.TokenInfo{
		{Token: "tok-1234567890abcdef", Principal: "user-123", Tenant: "public", Enabled: true},
	})

	authenticator := auth.NewTokenAuthenticator(store, "token")
	authorizer := auth.NewTenantAuthorizer(store)

# Tenant Scoping

TenantAuthorizer compares a principal's configured tenant against the
first path segment of the topic name being looked up
("persistent://tenant/namespace/topic"), denying cross-tenant lookups.
Topics with no tenant segment (e.g. an empty probe) are allowed through;
authorization is always evaluated against the TokenInfo the principal
authenticated with, looked up by principal name.

# Security Considerations

- Token values are never logged (only principal/tenant).
- Rotate tokens regularly.
- Generate cryptographically random tokens (min 32 bytes).
*/
package auth
