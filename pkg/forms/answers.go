package forms

import (
	"reflect"
	"strings"
)

// AnswerSet holds the values entered for one screen. Values are one of
// string, float64, bool, []string, nil (an empty number) or a nested
// AnswerSet for groups.
type AnswerSet map[string]any

// Get returns the value at a dotted path.
func (a AnswerSet) Get(path string) (any, bool) {
	head, rest, nested := strings.Cut(path, ".")
	v, ok := a[head]
	if !ok {
		return nil, false
	}
	if !nested {
		return v, true
	}
	child, ok := asAnswerSet(v)
	if !ok {
		return nil, false
	}
	return child.Get(rest)
}

// Set stores a value at a dotted path, creating groups along the way.
func (a AnswerSet) Set(path string, value any) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		a[head] = value
		return
	}
	child, ok := asAnswerSet(a[head])
	if !ok {
		child = AnswerSet{}
	}
	child.Set(rest, value)
	a[head] = child
}

// String returns a text value or "".
func (a AnswerSet) String(path string) string {
	v, _ := a.Get(path)
	s, _ := v.(string)
	return s
}

// Number returns a numeric value and whether one is set.
func (a AnswerSet) Number(path string) (float64, bool) {
	v, _ := a.Get(path)
	return toFloat64(v)
}

// Bool returns a boolean value or false.
func (a AnswerSet) Bool(path string) bool {
	v, _ := a.Get(path)
	b, _ := v.(bool)
	return b
}

// List returns a list value or nil.
func (a AnswerSet) List(path string) []string {
	v, _ := a.Get(path)
	l, _ := v.([]string)
	return l
}

// Clone returns a deep copy.
func (a AnswerSet) Clone() AnswerSet {
	if a == nil {
		return nil
	}
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

// Equal reports structural equality.
func (a AnswerSet) Equal(b AnswerSet) bool {
	return reflect.DeepEqual(a, b)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case AnswerSet:
		return val.Clone()
	case map[string]any:
		return AnswerSet(val).Clone()
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

func asAnswerSet(v any) (AnswerSet, bool) {
	switch val := v.(type) {
	case AnswerSet:
		return val, true
	case map[string]any:
		return AnswerSet(val), true
	default:
		return nil, false
	}
}
