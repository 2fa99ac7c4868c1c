package carrier

import (
	"errors"
	"fmt"
)

// Kind classifies a carrier error for propagation decisions.
type Kind string

const (
	// KindCommunication covers network failures, timeouts and malformed
	// responses. Recoverable; availability checks swallow it.
	KindCommunication Kind = "communication"

	// KindAuth covers invalid API credentials. Recoverable only by a
	// credential fix, never by automatic retry.
	KindAuth Kind = "auth"

	// KindValidation covers missing required fields caught before any
	// network call.
	KindValidation Kind = "validation"

	// KindRejected covers carrier-side rejections of an otherwise
	// well-formed request.
	KindRejected Kind = "rejected"
)

// Error represents an error from the parcel carrier.
type Error struct {
	Carrier    string
	Kind       Kind
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s error (%s): %s: %v", e.Carrier, e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s error (%s): %s", e.Carrier, e.Kind, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for Error. Two carrier errors match when their
// kinds match and, if both carry a code, the codes match too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if e.Code != "" && t.Code != "" {
		return e.Code == t.Code
	}
	return true
}

// NewError creates a new carrier Error.
func NewError(carrierName string, kind Kind, code, message string) *Error {
	return &Error{
		Carrier: carrierName,
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// Sentinel errors for common carrier scenarios.
var (
	// ErrMissingDestination indicates the destination address lacks the
	// country or postal code required for booking.
	ErrMissingDestination = errors.New("destination address incomplete")

	// ErrAuthenticationFailed indicates carrier authentication failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrServiceUnavailable indicates the carrier is temporarily unreachable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRateLimitExceeded indicates the carrier rate limit was exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// IsKind reports whether err is a carrier Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// IsCommunication reports whether err is a carrier communication error.
func IsCommunication(err error) bool {
	return IsKind(err, KindCommunication) || errors.Is(err, ErrServiceUnavailable)
}

// IsAuth reports whether err is a carrier authentication error.
func IsAuth(err error) bool {
	return IsKind(err, KindAuth) || errors.Is(err, ErrAuthenticationFailed)
}

// IsValidation reports whether err is a pre-flight validation error.
func IsValidation(err error) bool {
	return IsKind(err, KindValidation) || errors.Is(err, ErrMissingDestination)
}

// IsRetryable returns true if the operation may succeed on retry without
// any configuration change.
func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == KindCommunication
	}
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}
