// Package apperr defines the error kinds shared by the store, the services and
// the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindDuplicate
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	default:
		return "internal"
	}
}

// ErrDuplicateApplication is matched with errors.Is by callers that need to
// distinguish a repeated (user, job) submission from other duplicates.
var ErrDuplicateApplication = errors.New("duplicate application")

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// DuplicateApplication reports a second submission for the same (user, job) pair.
func DuplicateApplication(userID, jobID string) error {
	return &Error{
		Kind:    KindDuplicate,
		Message: "Already applied to this job",
		Err:     fmt.Errorf("%w: user %s, job %s", ErrDuplicateApplication, userID, jobID),
	}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that carry
// no kind are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// Message returns the client-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
