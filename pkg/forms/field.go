package forms

// FieldKind identifies the type of value a field holds in an AnswerSet.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "bool"
	KindChoice FieldKind = "choice"
	KindList   FieldKind = "list"
	KindGroup  FieldKind = "group"
)

// FieldType is the HTML input used to render a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldChecks   FieldType = "checkboxes"
	FieldFieldset FieldType = "fieldset"
)

// Field declares one named, typed entry of a Schema.
type Field struct {
	// Name is the key in the AnswerSet. Nested fields are addressed
	// with dotted paths ("workExperience.description").
	Name string

	Kind FieldKind

	// Type is the input used to render the field.
	Type FieldType

	Label       string
	Placeholder string
	Help        string

	// Options are the allowed values of choice and list fields.
	Options []Option

	// Default is the value used when nothing was loaded.
	Default any

	// Fields are the children of a group.
	Fields []Field
}

// Option is one selectable value.
type Option struct {
	Value string
	Label string
}

// FieldOption configures a field.
type FieldOption func(*Field)

// NewField creates a field of the given kind.
func NewField(name string, kind FieldKind, fieldType FieldType, label string, opts ...FieldOption) Field {
	field := Field{
		Name:  name,
		Kind:  kind,
		Type:  fieldType,
		Label: label,
	}

	for _, opt := range opts {
		opt(&field)
	}

	return field
}

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(placeholder string) FieldOption {
	return func(f *Field) {
		f.Placeholder = placeholder
	}
}

// WithDefault sets the default value.
func WithDefault(value any) FieldOption {
	return func(f *Field) {
		f.Default = value
	}
}

// WithHelp sets the help text.
func WithHelp(help string) FieldOption {
	return func(f *Field) {
		f.Help = help
	}
}

// WithType overrides the input type.
func WithType(t FieldType) FieldOption {
	return func(f *Field) {
		f.Type = t
	}
}

// AsRadio renders a choice field as radio buttons instead of a select.
func AsRadio() FieldOption {
	return WithType(FieldRadio)
}

// Text creates a free-text field.
func Text(name, label string, opts ...FieldOption) Field {
	return NewField(name, KindText, FieldText, label, opts...)
}

// EmailField creates a text field rendered as an email input.
func EmailField(name, label string, opts ...FieldOption) Field {
	return NewField(name, KindText, FieldEmail, label, opts...)
}

// PhoneField creates a text field rendered as a tel input.
func PhoneField(name, label string, opts ...FieldOption) Field {
	return NewField(name, KindText, FieldTel, label, opts...)
}

// DateField creates a text field holding an ISO date.
func DateField(name, label string, opts ...FieldOption) Field {
	return NewField(name, KindText, FieldDate, label, opts...)
}

// Textarea creates a multi-line text field.
func Textarea(name, label string, opts ...FieldOption) Field {
	return NewField(name, KindText, FieldTextarea, label, opts...)
}

// Number creates a numeric field. An empty number field holds nil.
func Number(name, label string, opts ...FieldOption) Field {
	return NewField(name, KindNumber, FieldNumber, label, opts...)
}

// Checkbox creates a boolean field.
func Checkbox(name, label string, opts ...FieldOption) Field {
	return NewField(name, KindBool, FieldCheckbox, label, opts...)
}

// Choice creates a single-choice field.
func Choice(name, label string, options []Option, opts ...FieldOption) Field {
	field := NewField(name, KindChoice, FieldSelect, label, opts...)
	field.Options = options
	return field
}

// List creates a multi-choice field holding an ordered list of strings.
func List(name, label string, options []Option, opts ...FieldOption) Field {
	field := NewField(name, KindList, FieldChecks, label, opts...)
	field.Options = options
	return field
}

// Group creates a nested group of fields.
func Group(name, label string, fields ...Field) Field {
	return Field{
		Name:   name,
		Kind:   KindGroup,
		Type:   FieldFieldset,
		Label:  label,
		Fields: fields,
	}
}

// Opts builds options whose label equals their value.
func Opts(values ...string) []Option {
	options := make([]Option, len(values))
	for i, v := range values {
		options[i] = Option{Value: v, Label: v}
	}
	return options
}

// YesNo is the option set used by yes/no toggles.
func YesNo() []Option {
	return []Option{
		{Value: "yes", Label: "Yes"},
		{Value: "no", Label: "No"},
	}
}

// HasOption reports whether value is one of the field's options.
// Fields without options accept any value.
func (f Field) HasOption(value string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}
