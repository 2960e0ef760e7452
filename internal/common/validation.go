package common

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError is one rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// ValidationRule checks one string field. Rules other than Required accept "".
type ValidationRule func(field, value string) *ValidationError

// Validator collects field errors across a request.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field runs rules against value in order and stops at the first failure.
func (v *Validator) Field(field, value string, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(field, value); err != nil {
			v.errors = append(v.errors, *err)
			break
		}
	}
	return v
}

// Each validates every element of values under field[i].
func (v *Validator) Each(field string, values []string, rules ...ValidationRule) *Validator {
	for i, value := range values {
		v.Field(fmt.Sprintf("%s[%d]", field, i), value, rules...)
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

func (v *Validator) ErrorMessage() string {
	msgs := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Required rejects empty and whitespace-only values.
func Required(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// MaxLen limits a value to max runes.
func MaxLen(max int) ValidationRule {
	return func(field, value string) *ValidationError {
		if utf8.RuneCountInString(value) > max {
			return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}
		}
		return nil
	}
}

func UUID(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
		return &ValidationError{Field: field, Message: "must be a UUID"}
	}
	return nil
}

// OneOf accepts only the listed values, compared case-insensitively.
func OneOf(allowed ...string) ValidationRule {
	return func(field, value string) *ValidationError {
		if value == "" {
			return nil
		}
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(value), a) {
				return nil
			}
		}
		return &ValidationError{Field: field, Message: "must be one of " + strings.Join(allowed, ", ")}
	}
}

// Satisfies adapts a parse function; any error it returns rejects the value with message.
func Satisfies(check func(string) error, message string) ValidationRule {
	return func(field, value string) *ValidationError {
		if value == "" {
			return nil
		}
		if err := check(strings.TrimSpace(value)); err != nil {
			return &ValidationError{Field: field, Message: message}
		}
		return nil
	}
}

// ValidateAndReturnError returns an AppError matching ErrInvalidInput if validation fails.
func ValidateAndReturnError(v *Validator) error {
	if v.HasErrors() {
		return InvalidInput(v.ErrorMessage())
	}
	return nil
}
