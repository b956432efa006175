package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestService_Resolve(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(keyPath, []byte("KEY\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	svc := NewServiceWithEnv(map[string]string{
		"HC_PRIVATE_KEY": "-----BEGIN KEY-----\r\nabc\r\n-----END KEY-----",
		"EMPTY_KEY":      "",
	})

	t.Run("Key file wins", func(t *testing.T) {
		method, err := svc.Resolve(Source{KeyFile: keyPath, KeyEnv: "HC_PRIVATE_KEY", Password: "pass"})
		if err != nil {
			t.Fatal(err)
		}
		kf, ok := method.(KeyFile)
		if !ok || kf.Path != keyPath || kf.Passphrase != "pass" {
			t.Errorf("Resolve() = %#v", method)
		}
	})

	t.Run("Missing key file", func(t *testing.T) {
		if _, err := svc.Resolve(Source{KeyFile: filepath.Join(dir, "absent")}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Key from environment is normalized", func(t *testing.T) {
		method, err := svc.Resolve(Source{KeyEnv: "HC_PRIVATE_KEY", Password: "phrase"})
		if err != nil {
			t.Fatal(err)
		}
		km, ok := method.(KeyMemory)
		if !ok {
			t.Fatalf("Resolve() = %#v, want KeyMemory", method)
		}
		if string(km.Key) != "-----BEGIN KEY-----\nabc\n-----END KEY-----\n" {
			t.Errorf("Key = %q", km.Key)
		}
		if km.Passphrase != "phrase" {
			t.Errorf("Passphrase = %q", km.Passphrase)
		}
	})

	t.Run("Unset key variable is named", func(t *testing.T) {
		for _, name := range []string{"AI3_PRIVATE_KEY", "EMPTY_KEY"} {
			_, err := svc.Resolve(Source{KeyEnv: name, Password: "fallback"})
			if err == nil || !strings.Contains(err.Error(), name) {
				t.Errorf("Resolve(%s) error = %v, want it to name the variable", name, err)
			}
		}
	})

	t.Run("Password only", func(t *testing.T) {
		method, err := svc.Resolve(Source{Password: "secret"})
		if err != nil {
			t.Fatal(err)
		}
		if p, ok := method.(Password); !ok || p.Secret != "secret" {
			t.Errorf("Resolve() = %#v", method)
		}
	})

	t.Run("Nothing", func(t *testing.T) {
		if _, err := svc.Resolve(Source{}); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("Resolve() error = %v, want ErrNoCredentials", err)
		}
	})
}
