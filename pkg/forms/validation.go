package forms

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator validates a field value.
type Validator interface {
	// Validate checks if the value is valid.
	Validate(value any) error

	// Message returns the error message.
	Message() string
}

// RequiredValidator fails on nil, whitespace-only text, empty lists and
// empty groups.
type RequiredValidator struct{}

func (v RequiredValidator) Validate(value any) error {
	if isEmpty(value) {
		return errors.New("required")
	}
	return nil
}

func (v RequiredValidator) Message() string {
	return "This field is required"
}

// ChoiceValidator fails when no option is selected.
type ChoiceValidator struct{}

func (v ChoiceValidator) Validate(value any) error {
	str, _ := value.(string)
	if strings.TrimSpace(str) == "" {
		return errors.New("no option selected")
	}
	return nil
}

func (v ChoiceValidator) Message() string {
	return "Please select an option"
}

// NonEmptyValidator fails when a list has no entries.
type NonEmptyValidator struct{}

func (v NonEmptyValidator) Validate(value any) error {
	switch val := value.(type) {
	case []string:
		if len(val) > 0 {
			return nil
		}
	case []any:
		if len(val) > 0 {
			return nil
		}
	}
	return errors.New("empty list")
}

func (v NonEmptyValidator) Message() string {
	return "Please select at least one"
}

// AcceptedValidator fails unless a boolean is true.
type AcceptedValidator struct{}

func (v AcceptedValidator) Validate(value any) error {
	if b, _ := value.(bool); !b {
		return errors.New("not accepted")
	}
	return nil
}

func (v AcceptedValidator) Message() string {
	return "This must be accepted"
}

// EmailValidator validates email format.
type EmailValidator struct{}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (v EmailValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok || strings.TrimSpace(str) == "" {
		return nil // Skip if empty (use Required for that)
	}
	if !emailRegex.MatchString(strings.TrimSpace(str)) {
		return errors.New("invalid email")
	}
	return nil
}

func (v EmailValidator) Message() string {
	return "Please enter a valid email address"
}

// PhoneValidator accepts 7 to 15 digits with optional leading +, spaces,
// dashes, dots and parentheses.
type PhoneValidator struct{}

var phoneRegex = regexp.MustCompile(`^\+?[0-9 ().-]+$`)

func (v PhoneValidator) Validate(value any) error {
	str, ok := value.(string)
	str = strings.TrimSpace(str)
	if !ok || str == "" {
		return nil
	}
	if !phoneRegex.MatchString(str) {
		return errors.New("invalid phone")
	}
	digits := 0
	for _, r := range str {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 || digits > 15 {
		return errors.New("invalid phone")
	}
	return nil
}

func (v PhoneValidator) Message() string {
	return "Please enter a valid phone number"
}

// MinLengthValidator validates minimum string length.
type MinLengthValidator struct {
	Min int
}

func (v MinLengthValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(str)) < v.Min {
		return fmt.Errorf("too short (min %d)", v.Min)
	}
	return nil
}

func (v MinLengthValidator) Message() string {
	return fmt.Sprintf("Must be at least %d characters", v.Min)
}

// MaxLengthValidator validates maximum string length.
type MaxLengthValidator struct {
	Max int
}

func (v MaxLengthValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if utf8.RuneCountInString(str) > v.Max {
		return fmt.Errorf("too long (max %d)", v.Max)
	}
	return nil
}

func (v MaxLengthValidator) Message() string {
	return fmt.Sprintf("Must be at most %d characters", v.Max)
}

// PatternValidator validates text against a regular expression.
type PatternValidator struct {
	Re  *regexp.Regexp
	Msg string
}

func (v PatternValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	if !v.Re.MatchString(str) {
		return errors.New("pattern mismatch")
	}
	return nil
}

func (v PatternValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "Invalid format"
}

// RangeValidator validates an inclusive numeric range. Empty values pass.
type RangeValidator struct {
	Min float64
	Max float64
}

func (v RangeValidator) Validate(value any) error {
	if value == nil {
		return nil
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	num, ok := toFloat64(value)
	if !ok {
		return errors.New("not a number")
	}
	if !(num >= v.Min && num <= v.Max) {
		return fmt.Errorf("must be between %v and %v", v.Min, v.Max)
	}
	return nil
}

func (v RangeValidator) Message() string {
	return fmt.Sprintf("Must be between %v and %v", v.Min, v.Max)
}

// CustomValidator allows custom validation functions.
type CustomValidator struct {
	Fn  func(value any) error
	Msg string
}

func (v CustomValidator) Validate(value any) error {
	return v.Fn(value)
}

func (v CustomValidator) Message() string {
	return v.Msg
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case AnswerSet:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
