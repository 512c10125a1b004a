package shared

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// PasswordMinLength is the minimum accepted password length.
const PasswordMinLength = 10

const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// ValidationError collects per-field messages produced before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// PasswordChecks reports each password rule individually.
type PasswordChecks struct {
	MinLength      bool
	HasUpperCase   bool
	HasNumber      bool
	HasSpecialChar bool
}

// PasswordReport is the outcome of CheckPassword.
type PasswordReport struct {
	Valid  bool
	Errors []string
	Checks PasswordChecks
}

// CheckPassword evaluates the password policy.
func CheckPassword(password string) PasswordReport {
	checks := PasswordChecks{MinLength: len([]rune(password)) >= PasswordMinLength}
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			checks.HasUpperCase = true
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			checks.HasNumber = true
		case strings.ContainsRune(passwordSpecialChars, r):
			checks.HasSpecialChar = true
		}
	}
	var errs []string
	if !checks.MinLength {
		errs = append(errs, fmt.Sprintf("at least %d characters", PasswordMinLength))
	}
	if !checks.HasUpperCase {
		errs = append(errs, "at least one upper-case letter")
	}
	if !checks.HasNumber {
		errs = append(errs, "at least one number")
	}
	if !checks.HasSpecialChar {
		errs = append(errs, "at least one special character")
	}
	return PasswordReport{Valid: len(errs) == 0, Errors: errs, Checks: checks}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		_ = validate.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
			return CheckPassword(fl.Field().String()).Valid
		})
	})
	return validate
}

// Validate runs struct tags and converts failures into a ValidationError.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fieldErr := range fieldErrs {
		out.Fields[fieldErr.Field()] = describe(fieldErr)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "eq":
		return "must be " + fe.Param()
	case "password_policy":
		return strings.Join(CheckPassword(fmt.Sprint(fe.Value())).Errors, ", ")
	default:
		return fe.Error()
	}
}
