package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a business rule failure so the transport layer can pick a status code.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidRequest Kind = "invalid_request"
	KindConflict       Kind = "conflict"
)

// Sentinels usable with errors.Is, e.g. errors.Is(err, apperror.ErrNotFound).
var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
	ErrConflict       = &Error{Kind: KindConflict}
)

// Error is the tagged error returned by the order workflow.
type Error struct {
	Kind    Kind
	Message string
	// Field points at the offending input, e.g. "items[1]" or "orderNumber".
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, which lets callers compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Invalid(format string, args ...any) *Error {
	return newError(KindInvalidRequest, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// WithField returns a copy of e bound to the given input field.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// ForItem prefixes a workflow error with the 1-based item position ("Item 2: ...").
// Errors that are not *Error are returned unchanged.
func ForItem(index int, err error) error {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return err
	}
	return &Error{
		Kind:    appErr.Kind,
		Message: fmt.Sprintf("Item %d: %s", index+1, appErr.Message),
		Field:   fmt.Sprintf("items[%d]", index),
		Err:     appErr.Err,
	}
}

// KindOf reports the kind of err, or "" when err carries no workflow classification.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
