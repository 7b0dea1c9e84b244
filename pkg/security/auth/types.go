package auth

import "time"

// TokenInfo represents a client access token and the principal and tenant
// it grants (spec §9: "Principal: the authenticated identity of a
// client").
type TokenInfo struct {
	Token     string
	Principal string
	Tenant    string
	Enabled   bool
	CreatedAt time.Time
}

// TokenStore stores and validates client tokens presented in a Connect or
// AuthResponse frame's authData.
type TokenStore interface {
	Validate(token string) (*TokenInfo, error)
	List() []*TokenInfo
}
