// Package validation gates mutations: data is checked against a schema
// before any request is sent, and every invalid field is reported.
package validation

import (
	"errors"
	"strings"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e FieldError) Unwrap() error { return e.Err }

// Errors collects every field that failed a schema.
type Errors []FieldError

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the field errors so errors.Is matches core sentinels.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// Fields returns a field -> message map, the shape handlers send back.
func (es Errors) Fields() map[string]string {
	m := make(map[string]string, len(es))
	for _, e := range es {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}

// Rule checks a single field of T. A nil error means the field is valid.
type Rule[T any] struct {
	Field string
	Check func(T) error
}

// Schema is the ordered list of rules for one entity shape.
type Schema[T any] []Rule[T]

// Validate runs schema against data and calls report once per invalid
// field, in schema order. Only the first failing rule of a field counts.
// It returns true when data passed every rule.
func Validate[T any](data T, schema Schema[T], report func(FieldError)) bool {
	ok := true
	failed := map[string]bool{}
	for _, r := range schema {
		if failed[r.Field] {
			continue
		}
		err := r.Check(data)
		if err == nil {
			continue
		}
		ok = false
		failed[r.Field] = true
		if report != nil {
			report(toFieldError(r.Field, err))
		}
	}
	return ok
}

// Check is Validate for callers that want an error value: nil when data is
// valid, otherwise an Errors.
func Check[T any](data T, schema Schema[T]) error {
	var errs Errors
	Validate(data, schema, func(fe FieldError) { errs = append(errs, fe) })
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func toFieldError(field string, err error) FieldError {
	var fe FieldError
	if errors.As(err, &fe) {
		fe.Field = field
		return fe
	}
	return FieldError{Field: field, Message: err.Error(), Err: err}
}

// invalid builds a rule failure carrying a user-facing message and the
// sentinel it corresponds to.
func invalid(msg string, sentinel error) error {
	return FieldError{Message: msg, Err: sentinel}
}
