// Package apperr classifies engine errors so transports can map them to responses.
package apperr

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Kind is the error category surfaced to callers.
type Kind string

// Error kinds.
const (
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is a classified error. Fields carries per-field validation details.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound returns a NotFound error with a caller-facing message.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// InvalidInput returns an InvalidInput error with optional field details.
func InvalidInput(msg string, fields map[string]string) error {
	return &Error{Kind: KindInvalidInput, Message: msg, Fields: fields}
}

// Conflict returns a Conflict error.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Internal classifies err as Internal. msg prefixes the cause in Error().
func Internal(err error, msg string) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FieldsOf returns validation details attached to err, if any.
func FieldsOf(err error) map[string]string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

// MessageOf returns the caller-facing message of a classified error, or
// fallback when err is unclassified.
func MessageOf(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Message
	}
	return fallback
}

// HTTPStatus maps a kind to a response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
