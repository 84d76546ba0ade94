package forms

import (
	"reflect"
	"regexp"
)

// Condition decides whether a rule applies to the current answers.
type Condition func(AnswerSet) bool

// Rule is one validation check reporting on a single field.
type Rule struct {
	// Field is the path the rule reads and reports on.
	Field string

	Validator Validator

	// When, if set, limits the rule to answers where it returns true.
	When Condition

	// Msg overrides the validator's message.
	Msg string
}

// Check runs the rule. It returns the message and true on failure.
func (r Rule) Check(a AnswerSet) (string, bool) {
	if r.When != nil && !r.When(a) {
		return "", false
	}
	value, _ := a.Get(r.Field)
	if err := r.Validator.Validate(value); err != nil {
		if r.Msg != "" {
			return r.Msg, true
		}
		return r.Validator.Message(), true
	}
	return "", false
}

// RequiredText fails when the trimmed text is empty.
func RequiredText(field, msg string) Rule {
	return Rule{Field: field, Validator: RequiredValidator{}, Msg: msg}
}

// RequiredChoice fails when no option is selected.
func RequiredChoice(field, msg string) Rule {
	return Rule{Field: field, Validator: ChoiceValidator{}, Msg: msg}
}

// Email fails when a non-empty value is not an email address.
func Email(field, msg string) Rule {
	return Rule{Field: field, Validator: EmailValidator{}, Msg: msg}
}

// Phone fails when a non-empty value is not a phone number.
func Phone(field, msg string) Rule {
	return Rule{Field: field, Validator: PhoneValidator{}, Msg: msg}
}

// Pattern fails when a non-empty value does not match expr.
func Pattern(field, expr, msg string) Rule {
	return Rule{Field: field, Validator: PatternValidator{Re: regexp.MustCompile(expr), Msg: msg}}
}

// Range fails when a number lies outside [min, max].
func Range(field string, min, max float64, msg string) Rule {
	return Rule{Field: field, Validator: RangeValidator{Min: min, Max: max}, Msg: msg}
}

// MinLength fails when non-empty text is shorter than n runes.
func MinLength(field string, n int, msg string) Rule {
	return Rule{Field: field, Validator: MinLengthValidator{Min: n}, Msg: msg}
}

// MaxLength fails when text is longer than n runes.
func MaxLength(field string, n int, msg string) Rule {
	return Rule{Field: field, Validator: MaxLengthValidator{Max: n}, Msg: msg}
}

// NonEmpty fails when a list has no entries.
func NonEmpty(field, msg string) Rule {
	return Rule{Field: field, Validator: NonEmptyValidator{}, Msg: msg}
}

// Accepted fails unless a checkbox is ticked.
func Accepted(field, msg string) Rule {
	return Rule{Field: field, Validator: AcceptedValidator{}, Msg: msg}
}

// RequiredIf requires field only while cond holds.
func RequiredIf(field string, cond Condition, msg string) Rule {
	return Rule{Field: field, Validator: RequiredValidator{}, When: cond, Msg: msg}
}

// Check wraps any validator as a rule.
func Check(field string, v Validator, msg string) Rule {
	return Rule{Field: field, Validator: v, Msg: msg}
}

// Custom builds a rule from a function.
func Custom(field string, fn func(value any) error, msg string) Rule {
	return Rule{Field: field, Validator: CustomValidator{Fn: fn, Msg: msg}}
}

// FieldEquals holds when the value at path equals sentinel.
func FieldEquals(path string, sentinel any) Condition {
	return func(a AnswerSet) bool {
		v, _ := a.Get(path)
		return reflect.DeepEqual(v, sentinel)
	}
}
