package auth

import (
	"context"
	"fmt"
	"strings"

	"mercator-hq/brokerproxy/pkg/identity"
)

// TokenAuthenticator adapts a TokenStore into an identity.Authenticator.
// The proxy's Connect/AuthResponse handshake carries the token as authData
// under a single configured method name (spec §4.2).
type TokenAuthenticator struct {
	store  TokenStore
	method string
}

// NewTokenAuthenticator builds a TokenAuthenticator. An empty method
// defaults to "token".
func NewTokenAuthenticator(store TokenStore, method string) *TokenAuthenticator {
	if method == "" {
		method = "token"
	}
	return &TokenAuthenticator{store: store, method: method}
}

// Authenticate implements identity.Authenticator.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, method string, authData []byte) (identity.Principal, error) {
	if method != a.method {
		return identity.Principal{}, fmt.Errorf("auth: unsupported method %q", method)
	}
	info, err := a.store.Validate(string(authData))
	if err != nil {
		return identity.Principal{}, err
	}
	return identity.Principal{Name: info.Principal}, nil
}

// TenantAuthorizer grants access to a topic only when the principal's
// tenant matches the topic's tenant segment — the first path component of
// a "persistent://tenant/namespace/topic" name. This is a coarse
// multi-tenancy boundary generalized from the teacher's TeamID-scoped
// TokenInfo (pkg/security/auth/types.go in the source repo scoped API keys
// to a team the same way).
type TenantAuthorizer struct {
	store TokenStore
}

// NewTenantAuthorizer builds a TenantAuthorizer backed by store.
func NewTenantAuthorizer(store TokenStore) *TenantAuthorizer {
	return &TenantAuthorizer{store: store}
}

// Authorize implements identity.Authorizer. resource is a topic name;
// action is ignored — this proxy's authorization model is a tenant
// boundary, not a per-action ACL (spec §9: authorize(principal, resource,
// action) → bool names the method set, not its internal grain).
func (a *TenantAuthorizer) Authorize(ctx context.Context, principal identity.Principal, resource, action string) bool {
	tenant := topicTenant(resource)
	if tenant == "" {
		return true
	}
	for _, info := range a.store.List() {
		if info.Principal != principal.Name {
			continue
		}
		return info.Enabled && (info.Tenant == "" || info.Tenant == tenant)
	}
	return false
}

func topicTenant(topic string) string {
	rest := topic
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return ""
	}
	return parts[0]
}
