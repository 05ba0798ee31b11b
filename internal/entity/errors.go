package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrStoreUnavailable = errors.New("lead store unavailable")
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LeadError is the only error type the store adapter returns.
type LeadError struct {
	Kind   ErrorKind
	Op     string
	Fields []FieldError
	Err    error
}

func (e *LeadError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Error())
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LeadError) Unwrap() error { return e.Err }

func NewValidationError(op string, fields ...FieldError) *LeadError {
	return &LeadError{Kind: KindValidation, Op: op, Fields: fields}
}

func NewNotFoundError(op, id string) *LeadError {
	return &LeadError{Kind: KindNotFound, Op: op, Err: fmt.Errorf("%w: %s", ErrLeadNotFound, id)}
}

func NewTransientError(op string, err error) *LeadError {
	return &LeadError{Kind: KindTransient, Op: op, Err: err}
}

func NewUnknownError(op string, err error) *LeadError {
	return &LeadError{Kind: KindUnknown, Op: op, Err: err}
}

// KindOf returns the kind carried by err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var le *LeadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}

// FieldsOf returns the validation failures carried by err, if any.
func FieldsOf(err error) []FieldError {
	var le *LeadError
	if errors.As(err, &le) {
		return le.Fields
	}
	return nil
}
