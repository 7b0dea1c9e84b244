package proto

import "fmt"

// ErrorKind is the closed set of error kinds a lookup/schema/metadata reply
// can carry on failure, per spec §7.
type ErrorKind string

const (
	ErrorKindProtocolError     ErrorKind = "ProtocolError"
	ErrorKindAuthenticationError ErrorKind = "AuthenticationError"
	ErrorKindAuthorizationError  ErrorKind = "AuthorizationError"
	ErrorKindTooManyRequests     ErrorKind = "TooManyRequests"
	ErrorKindServiceNotReady     ErrorKind = "ServiceNotReady"
	ErrorKindMetadataError       ErrorKind = "MetadataError"
	ErrorKindUnknownError        ErrorKind = "UnknownError"
)

// CommandError is the reply the proxy writes back to a client for a failed
// request. It always carries the originating RequestID so the client can
// correlate the reply (spec §6, §7).
type CommandError struct {
	RequestID uint64
	Kind      ErrorKind
	Message   string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s (request_id=%d): %s", e.Kind, e.RequestID, e.Message)
}

// Is allows errors.Is(err, proto.ErrProtocolError) style matching against a
// sentinel built from NewCommandError, mirroring the teacher's rich error
// types (pkg/routing/errors.go in the source repo).
func (e *CommandError) Is(target error) bool {
	other, ok := target.(*CommandError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// NewCommandError constructs a CommandError for the given request.
func NewCommandError(requestID uint64, kind ErrorKind, message string) *CommandError {
	return &CommandError{RequestID: requestID, Kind: kind, Message: message}
}

// Sentinels for errors.Is comparisons where only the kind matters.
var (
	ErrProtocolError      = &CommandError{Kind: ErrorKindProtocolError}
	ErrAuthenticationError = &CommandError{Kind: ErrorKindAuthenticationError}
	ErrAuthorizationError  = &CommandError{Kind: ErrorKindAuthorizationError}
	ErrTooManyRequests     = &CommandError{Kind: ErrorKindTooManyRequests}
	ErrServiceNotReady     = &CommandError{Kind: ErrorKindServiceNotReady}
	ErrMetadataError       = &CommandError{Kind: ErrorKindMetadataError}
	ErrUnknownError        = &CommandError{Kind: ErrorKindUnknownError}
)
