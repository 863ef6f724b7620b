package cartclient

import "fmt"

// ErrorKind classifies every failure the client can surface, so callers can
// branch on the kind instead of matching human-readable text.
type ErrorKind string

const (
	KindValidation     ErrorKind = "VALIDATION"
	KindUnauthorized   ErrorKind = "UNAUTHORIZED"
	KindNetworkFailure ErrorKind = "NETWORK_FAILURE"
	KindServerError    ErrorKind = "SERVER_ERROR"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf extracts the kind from any error returned by this package.
func KindOf(err error) ErrorKind {
	if clientErr, ok := err.(*Error); ok {
		return clientErr.Kind
	}
	return KindServerError
}
