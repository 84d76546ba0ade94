// Package forms provides per-screen schemas, answers and validation.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// Form holds the answers and errors of one screen.
// A Form is owned by a single screen and is not safe for concurrent use.
type Form struct {
	schema  *Schema
	rules   []Rule
	answers AnswerSet
	errors  ErrorMap
}

// NewForm creates a form with the schema defaults. Every rule must report
// on a declared leaf field.
func NewForm(schema *Schema, rules ...Rule) (*Form, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	for i, r := range rules {
		f, err := schema.Field(r.Field)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if f.Kind == KindGroup {
			return nil, fmt.Errorf("%w: rule %d reports on group %q", ErrInvalidSchema, i, r.Field)
		}
		if r.Validator == nil {
			return nil, fmt.Errorf("%w: rule %d on %q has no validator", ErrInvalidSchema, i, r.Field)
		}
	}

	return &Form{
		schema:  schema,
		rules:   rules,
		answers: schema.Defaults(),
		errors:  make(ErrorMap),
	}, nil
}

// Schema returns the form's schema.
func (f *Form) Schema() *Schema {
	return f.schema
}

// Answers returns a copy of the current answers.
func (f *Form) Answers() AnswerSet {
	return f.answers.Clone()
}

// Load replaces the answers and clears all errors.
func (f *Form) Load(a AnswerSet) {
	f.answers = a.Clone()
	f.errors = make(ErrorMap)
}

// Reset restores the defaults and clears all errors.
func (f *Form) Reset() {
	f.Load(f.schema.Defaults())
}

// Value returns the current value at path.
func (f *Form) Value(path string) any {
	v, _ := f.answers.Get(path)
	return v
}

// SetField updates one answer and drops that field's error. It does not
// re-validate.
func (f *Form) SetField(path string, value any) error {
	v, err := f.schema.Coerce(path, value)
	if err != nil {
		return err
	}
	f.answers.Set(path, v)
	delete(f.errors, path)
	return nil
}

// ToggleItem adds item to a list field, or removes it if present.
func (f *Form) ToggleItem(path, item string) error {
	field, err := f.schema.Field(path)
	if err != nil {
		return err
	}
	if field.Kind != KindList {
		return fmt.Errorf("%s: %w", path, ErrTypeMismatch)
	}

	list := slices.Clone(f.answers.List(path))
	if i := slices.Index(list, item); i >= 0 {
		list = slices.Delete(list, i, i+1)
	} else {
		list = append(list, item)
	}
	if list == nil {
		list = []string{}
	}
	return f.SetField(path, list)
}

// Validate runs every rule in order. The first failing rule of a field
// wins; other fields are still checked. The result replaces the previous
// errors entirely.
func (f *Form) Validate() ErrorMap {
	errs := make(ErrorMap)
	for _, r := range f.rules {
		if errs.Has(r.Field) {
			continue
		}
		if msg, failed := r.Check(f.answers); failed {
			errs[r.Field] = msg
		}
	}
	f.errors = errs
	return errs.Clone()
}

// Valid reports whether the last validation pass found no errors.
func (f *Form) Valid() bool {
	return len(f.errors) == 0
}

// Errors returns a copy of the current errors.
func (f *Form) Errors() ErrorMap {
	return f.errors.Clone()
}

// RejectInput records an inline error for input SetField refused with
// ErrTypeMismatch or ErrInvalidOption. The answer is left unchanged; the
// next SetField or Validate replaces the message. Any other cause is
// returned as is.
func (f *Form) RejectInput(path string, cause error) error {
	if !errors.Is(cause, ErrTypeMismatch) && !errors.Is(cause, ErrInvalidOption) {
		return cause
	}
	field, err := f.schema.Field(path)
	if err != nil {
		return err
	}
	switch {
	case field.Kind == KindNumber:
		f.errors[path] = "Please enter a number"
	case errors.Is(cause, ErrInvalidOption):
		f.errors[path] = "Please choose one of the options"
	default:
		f.errors[path] = "Please enter a valid value"
	}
	return nil
}

// Error returns the current error of one field.
func (f *Form) Error(path string) string {
	return f.errors[path]
}

// BindValues sets every declared leaf present in values. List fields take
// all values of their key.
func (f *Form) BindValues(values url.Values) error {
	for _, path := range f.schema.paths {
		if !values.Has(path) {
			continue
		}
		field := f.schema.index[path]

		var err error
		if field.Kind == KindList {
			err = f.SetField(path, values[path])
		} else {
			err = f.SetField(path, values.Get(path))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
