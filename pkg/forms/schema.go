package forms

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Schema is the fixed shape of one screen's AnswerSet.
type Schema struct {
	name   string
	fields []Field
	index  map[string]Field
	paths  []string
}

// NewSchema checks the declared fields and builds a schema.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: fields,
		index:  make(map[string]Field),
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s declares no fields", ErrInvalidSchema, name)
	}
	if err := s.register("", fields); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error. Use it for package-level
// screen declarations.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) register(prefix string, fields []Field) error {
	for _, f := range fields {
		if f.Name == "" || strings.Contains(f.Name, ".") {
			return fmt.Errorf("%w: %s: bad field name %q", ErrInvalidSchema, s.name, f.Name)
		}
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		if _, dup := s.index[path]; dup {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidSchema, s.name, path)
		}
		s.index[path] = f

		switch f.Kind {
		case KindGroup:
			if len(f.Fields) == 0 {
				return fmt.Errorf("%w: %s: group %q has no fields", ErrInvalidSchema, s.name, path)
			}
			if err := s.register(path, f.Fields); err != nil {
				return err
			}
			continue
		case KindText, KindNumber, KindBool, KindChoice, KindList:
		default:
			return fmt.Errorf("%w: %s: field %q has unknown kind %q", ErrInvalidSchema, s.name, path, f.Kind)
		}

		if f.Default != nil {
			if _, err := s.coerce(f, f.Default); err != nil {
				return fmt.Errorf("%w: %s: default of %q: %v", ErrInvalidSchema, s.name, path, err)
			}
		}
		s.paths = append(s.paths, path)
	}
	return nil
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Fields returns the top-level fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Paths returns every leaf field path in declaration order.
func (s *Schema) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Lookup returns the field declared at path. Groups are returned too.
func (s *Schema) Lookup(path string) (Field, bool) {
	f, ok := s.index[path]
	return f, ok
}

// Field is Lookup that reports unknown paths as *UnknownFieldError.
func (s *Schema) Field(path string) (Field, error) {
	f, ok := s.index[path]
	if !ok {
		return Field{}, &UnknownFieldError{
			Schema:     s.name,
			Field:      path,
			Suggestion: suggest(path, s.paths),
		}
	}
	return f, nil
}

// Defaults returns a fresh AnswerSet holding every field's default.
func (s *Schema) Defaults() AnswerSet {
	return defaultsFor(s.fields)
}

func defaultsFor(fields []Field) AnswerSet {
	out := make(AnswerSet, len(fields))
	for _, f := range fields {
		out[f.Name] = defaultValue(f)
	}
	return out
}

func defaultValue(f Field) any {
	if f.Kind == KindGroup {
		return defaultsFor(f.Fields)
	}
	if f.Default != nil {
		// Checked at construction.
		v, _ := coerceKind(f, f.Default)
		return v
	}
	switch f.Kind {
	case KindText, KindChoice:
		return ""
	case KindBool:
		return false
	case KindList:
		return []string{}
	default:
		return nil
	}
}

// Coerce converts an input value to the canonical type of the field at path.
func (s *Schema) Coerce(path string, value any) (any, error) {
	f, err := s.Field(path)
	if err != nil {
		return nil, err
	}
	return s.coerce(f, value)
}

func (s *Schema) coerce(f Field, value any) (any, error) {
	v, err := coerceKind(f, value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	switch f.Kind {
	case KindChoice:
		if str := v.(string); str != "" && !f.HasOption(str) {
			return nil, fmt.Errorf("%s: %w: %q", f.Name, ErrInvalidOption, str)
		}
	case KindList:
		for _, item := range v.([]string) {
			if !f.HasOption(item) {
				return nil, fmt.Errorf("%s: %w: %q", f.Name, ErrInvalidOption, item)
			}
		}
	}
	return v, nil
}

func coerceKind(f Field, value any) (any, error) {
	switch f.Kind {
	case KindText, KindChoice:
		switch v := value.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		}

	case KindNumber:
		if s, ok := value.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				return nil, nil
			}
			n, err := strconv.ParseFloat(s, 64)
			if err != nil || !finite(n) {
				return nil, ErrTypeMismatch
			}
			return n, nil
		}
		if value == nil {
			return nil, nil
		}
		if n, ok := toFloat64(value); ok && finite(n) {
			return n, nil
		}

	case KindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "on", "1", "yes":
				return true, nil
			case "false", "off", "0", "no", "":
				return false, nil
			}
		}

	case KindList:
		switch v := value.(type) {
		case nil:
			return []string{}, nil
		case []string:
			out := make([]string, len(v))
			copy(out, v)
			return out, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				str, ok := item.(string)
				if !ok {
					return nil, ErrTypeMismatch
				}
				out = append(out, str)
			}
			return out, nil
		}
	}
	return nil, ErrTypeMismatch
}

// Normalize converts decoded content (JSON numbers, []any, map[string]any)
// into a canonical AnswerSet. Missing fields take their defaults and
// undeclared keys are dropped. A value of the wrong type is an error.
func (s *Schema) Normalize(raw map[string]any) (AnswerSet, error) {
	return s.normalize("", s.fields, raw)
}

func (s *Schema) normalize(prefix string, fields []Field, raw map[string]any) (AnswerSet, error) {
	out := make(AnswerSet, len(fields))
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}

		v, present := raw[f.Name]
		if !present {
			out[f.Name] = defaultValue(f)
			continue
		}

		if f.Kind == KindGroup {
			child, ok := asAnswerSet(v)
			if !ok {
				return nil, fmt.Errorf("%s: %w", path, ErrTypeMismatch)
			}
			nested, err := s.normalize(path, f.Fields, child)
			if err != nil {
				return nil, err
			}
			out[f.Name] = nested
			continue
		}

		// Stored numbers must stay numbers; only live input is parsed
		// from strings.
		if f.Kind == KindNumber {
			if _, isString := v.(string); isString {
				return nil, fmt.Errorf("%s: %w", path, ErrTypeMismatch)
			}
		}

		cv, err := coerceKind(f, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out[f.Name] = dropStaleOptions(f, cv)
	}
	return out, nil
}

// dropStaleOptions removes saved choices that are no longer offered. A
// stale choice falls back to the field default; stale list items are left
// out.
func dropStaleOptions(f Field, v any) any {
	if len(f.Options) == 0 {
		return v
	}
	switch f.Kind {
	case KindChoice:
		if str := v.(string); str != "" && !f.HasOption(str) {
			return defaultValue(f)
		}
	case KindList:
		items := v.([]string)
		kept := items[:0]
		for _, item := range items {
			if f.HasOption(item) {
				kept = append(kept, item)
			}
		}
		return kept
	}
	return v
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint8:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	default:
		return 0, false
	}
}
