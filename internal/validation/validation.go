// Package validation wraps go-playground/validator with field errors that
// render in snake_case for config files and JSON bodies alike.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Global validator instance
var validate = validator.New()

// FieldError represents a field-level validation error
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors holds multiple validation errors
type Errors struct {
	Errors []FieldError `json:"errors"`
}

// Error implements the error interface for Errors
func (v *Errors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		messages[i] = e.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// Struct validates s by its `validate` tags and returns *Errors on failure.
// A Validate() error method on s runs after the tags pass.
func Struct(s any) error {
	err := validate.Struct(s)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		validationErrs := &Errors{}
		for _, e := range fieldErrs {
			validationErrs.Errors = append(validationErrs.Errors, FieldError{
				Field:   fieldPath(e),
				Message: formatMessage(e),
			})
		}
		return validationErrs
	}

	if v, ok := s.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return &Errors{
				Errors: []FieldError{{Field: "_custom", Message: err.Error()}},
			}
		}
	}
	return nil
}

// fieldPath turns "Config.Scanner.MaxConcurrent" into "scanner.max_concurrent".
func fieldPath(e validator.FieldError) string {
	parts := strings.Split(e.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnakeCase(p)
	}
	return strings.Join(parts, ".")
}

// formatMessage creates human-readable error messages
func formatMessage(e validator.FieldError) string {
	field := fieldPath(e)
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "cidrv4":
		return fmt.Sprintf("%s must be an IPv4 CIDR block", field)
	case "mac":
		return fmt.Sprintf("%s must be a MAC address", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}

// toSnakeCase converts PascalCase/camelCase to snake_case. Runs of capitals
// stay together, so "MaxConcurrent" becomes "max_concurrent" and "TargetMAC"
// becomes "target_mac".
func toSnakeCase(s string) string {
	runes := []rune(s)
	var result strings.Builder
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !isUpper(runes[i-1]) {
				result.WriteByte('_')
			} else if i > 0 && i+1 < len(runes) && !isUpper(runes[i+1]) && runes[i+1] != '[' {
				result.WriteByte('_')
			}
			result.WriteRune(r + 'a' - 'A')
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
