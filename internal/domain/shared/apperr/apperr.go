package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind string

const (
	InvalidInput       Kind = "invalid_input"
	NotFound           Kind = "not_found"
	CapacityExceeded   Kind = "capacity_exceeded"
	Conflict           Kind = "conflict"
	Unauthorized       Kind = "unauthorized"
	AlreadyPaid        Kind = "already_paid"
	AlreadyCancelled   Kind = "already_cancelled"
	Immutable          Kind = "immutable"
	InvalidTransition  Kind = "invalid_transition"
	NotPaid            Kind = "not_paid"
	NotCompleted       Kind = "not_completed"
	InvariantViolation Kind = "invariant_violation"
	Internal           Kind = "internal"
)

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string { return string(k) }

// FieldViolation describes one failed validation rule.
type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (v FieldViolation) String() string {
	if v.Param == "" {
		return v.Field + ":" + v.Rule
	}
	return v.Field + ":" + v.Rule + "=" + v.Param
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldViolation
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Invalid builds an InvalidInput error carrying structured violations.
func Invalid(message string, fields ...FieldViolation) *Error {
	return &Error{Kind: InvalidInput, Message: message, Fields: fields}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.String())
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches both the kind and the exact sentinel value.
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return false
}

// KindOf returns the kind of the first *Error in the chain, or Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Internal
}

// FieldsOf returns validation violations carried by err, if any.
func FieldsOf(err error) []FieldViolation {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// Expected reports whether err is a caller-correctable rejection rather
// than an operational failure.
func Expected(err error) bool {
	switch KindOf(err) {
	case "", Internal, InvariantViolation:
		return false
	default:
		return true
	}
}
