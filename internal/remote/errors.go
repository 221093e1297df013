package remote

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a gateway failure so callers can branch on it without
// parsing messages.
type ErrorKind string

const (
	KindValidation             ErrorKind = "validation"
	KindAuthenticationRequired ErrorKind = "authentication_required"
	KindInvalidCredential      ErrorKind = "invalid_credential"
	KindAlreadyExists          ErrorKind = "already_exists"
	KindTooManyAttempts        ErrorKind = "too_many_attempts"
	KindPartialDeletion        ErrorKind = "partial_deletion"
	KindUploadFailed           ErrorKind = "upload_failed"
	KindNotFound               ErrorKind = "not_found"
	KindRemote                 ErrorKind = "remote"
)

// Error is a classified gateway failure. Every remote operation that fails
// returns one of these so the HTTP layer and the client-side coordinators can
// surface a recoverable notice instead of swallowing the cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error without an underlying cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError attaches a classification to an underlying failure.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or KindRemote when err carries
// none (unclassified network/backend failure).
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindRemote
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
