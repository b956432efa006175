package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Username", "username"},
		{"MaxConcurrent", "max_concurrent"},
		{"DeadlineMS", "deadline_ms"},
		{"TargetMAC", "target_mac"},
		{"JWTSecret", "jwt_secret"},
		{"IP", "ip"},
		{"Profiles[1]", "profiles[1]"},
	}

	for _, tt := range tests {
		if got := toSnakeCase(tt.input); got != tt.expected {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

type inner struct {
	MaxConcurrent int    `validate:"min=1"`
	Transport     string `validate:"oneof=ssh winrm"`
}

type outer struct {
	Scanner inner
	Range   string `validate:"required,cidrv4"`
}

type withCustom struct {
	Password string
	KeyFile  string
}

func (w withCustom) Validate() error {
	if w.Password == "" && w.KeyFile == "" {
		return errors.New("either password or key_file is required")
	}
	return nil
}

func TestStruct(t *testing.T) {
	err := Struct(outer{Scanner: inner{MaxConcurrent: 0, Transport: "telnet"}, Range: "10.0.0.1"})

	var validationErrs *Errors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("Struct() error = %v, want *Errors", err)
	}

	fields := map[string]string{}
	for _, e := range validationErrs.Errors {
		fields[e.Field] = e.Message
	}

	want := map[string]string{
		"scanner.max_concurrent": "scanner.max_concurrent must be at least 1",
		"scanner.transport":      "scanner.transport must be one of: ssh winrm",
		"range":                  "range must be an IPv4 CIDR block",
	}
	for field, msg := range want {
		if fields[field] != msg {
			t.Errorf("message for %q = %q, want %q", field, fields[field], msg)
		}
	}
	if !strings.HasPrefix(err.Error(), "validation failed: ") {
		t.Errorf("Error() = %q", err.Error())
	}

	if err := Struct(outer{Scanner: inner{MaxConcurrent: 5, Transport: "ssh"}, Range: "10.0.0.0/24"}); err != nil {
		t.Errorf("Struct(valid) error = %v", err)
	}
}

func TestStruct_CustomValidate(t *testing.T) {
	err := Struct(withCustom{})
	var validationErrs *Errors
	if !errors.As(err, &validationErrs) || validationErrs.Errors[0].Field != "_custom" {
		t.Fatalf("Struct() error = %v, want custom error", err)
	}

	if err := Struct(withCustom{Password: "x"}); err != nil {
		t.Errorf("Struct() error = %v", err)
	}
}
