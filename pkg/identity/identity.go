// Package identity defines the authentication/authorization collaborator
// interfaces the connection and lookup paths consult. The core treats both
// as pluggable out-of-scope providers (spec §1); this package holds only
// the shapes, never a concrete implementation.
package identity

import "context"

// Principal is the authenticated identity of a client. OriginalPrincipal
// propagation (spec §4.4, "originalPrincipal") is represented by passing a
// Principal value through to the lookup handler rather than by a dedicated
// type: the zero Principal means "unauthenticated".
type Principal struct {
	Name string
}

// IsZero reports whether p carries no identity, i.e. authentication is
// disabled or has not yet completed.
func (p Principal) IsZero() bool { return p.Name == "" }

// ChallengeError is returned by Authenticator.Authenticate when the method
// requires another AuthChallenge/AuthResponse round trip. Data is the
// challenge payload to send back to the client.
type ChallengeError struct {
	Data []byte
}

func (e *ChallengeError) Error() string { return "identity: authentication challenge required" }

// Authenticator validates a client's Connect or AuthResponse credentials.
// A nil Authenticator disables authentication entirely.
type Authenticator interface {
	Authenticate(ctx context.Context, method string, authData []byte) (Principal, error)
}

// Authorizer decides whether principal may perform action against a named
// resource (typically a topic). A nil Authorizer disables authorization.
type Authorizer interface {
	Authorize(ctx context.Context, principal Principal, resource, action string) bool
}

// Common actions consulted by the lookup path (spec §4.4).
const (
	ActionLookup = "lookup"
	ActionProduce = "produce"
	ActionConsume = "consume"
)
