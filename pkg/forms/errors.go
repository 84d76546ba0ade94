package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Common form errors.
var (
	ErrUnknownField  = errors.New("unknown field")
	ErrTypeMismatch  = errors.New("value does not match field kind")
	ErrInvalidOption = errors.New("value is not one of the field options")
	ErrInvalidSchema = errors.New("invalid schema")
)

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrorMap maps field paths to their current validation message.
// A missing entry means the field has no error.
type ErrorMap map[string]string

// Get returns the message for a field or "".
func (m ErrorMap) Get(field string) string {
	return m[field]
}

// Has reports whether the field has an error.
func (m ErrorMap) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Len returns the number of invalid fields.
func (m ErrorMap) Len() int {
	return len(m)
}

// Empty reports whether no field is invalid.
func (m ErrorMap) Empty() bool {
	return len(m) == 0
}

// Clone returns a copy.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Fields returns the invalid field paths in sorted order.
func (m ErrorMap) Fields() []string {
	fields := make([]string, 0, len(m))
	for k := range m {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// List returns the errors as FieldErrors sorted by field.
func (m ErrorMap) List() []FieldError {
	list := make([]FieldError, 0, len(m))
	for _, f := range m.Fields() {
		list = append(list, FieldError{Field: f, Message: m[f]})
	}
	return list
}

// UnknownFieldError is returned when a path is not declared by a schema.
type UnknownFieldError struct {
	Schema     string
	Field      string
	Suggestion string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in schema %q", e.Field, e.Schema)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *UnknownFieldError) Unwrap() error {
	return ErrUnknownField
}

// suggest returns the closest candidate to name, or "" when nothing is close.
func suggest(name string, candidates []string) string {
	best := ""
	bestDist := -1
	lower := strings.ToLower(name)

	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if bestDist == -1 || d < bestDist {
			best, bestDist = c, d
		}
	}

	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist == -1 || bestDist > limit {
		return ""
	}
	return best
}
