// Package credentials holds the authentication variants used to open a probe
// session and the handling of private key material.
package credentials

import (
	"fmt"
	"os"
	"strings"
)

// AuthMethod is one of Password, KeyFile or KeyMemory.
type AuthMethod interface {
	// Kind returns a short label safe for logs ("password", "key-file", "key-memory").
	Kind() string
	isAuthMethod()
}

// Password authenticates with a username/password pair.
type Password struct {
	Secret string
}

// KeyFile authenticates with a private key read from disk.
type KeyFile struct {
	Path       string
	Passphrase string
}

// KeyMemory authenticates with private key material already held in memory,
// e.g. loaded from an environment variable.
type KeyMemory struct {
	Key        []byte
	Passphrase string
}

func (Password) Kind() string  { return "password" }
func (KeyFile) Kind() string   { return "key-file" }
func (KeyMemory) Kind() string { return "key-memory" }

func (Password) isAuthMethod()  {}
func (KeyFile) isAuthMethod()   {}
func (KeyMemory) isAuthMethod() {}

// NormalizeKey converts CRLF line endings to LF and guarantees exactly one
// trailing newline. Some key parsers reject any other form.
func NormalizeKey(key []byte) []byte {
	s := strings.ReplaceAll(string(key), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimRight(s, "\n")
	return []byte(s + "\n")
}

// KeyMaterial returns the normalized key bytes and passphrase for a key based
// method. ok is false for Password.
func KeyMaterial(method AuthMethod) (key []byte, passphrase string, ok bool, err error) {
	switch m := method.(type) {
	case KeyMemory:
		if len(strings.TrimSpace(string(m.Key))) == 0 {
			return nil, "", true, fmt.Errorf("private key is empty")
		}
		return NormalizeKey(m.Key), m.Passphrase, true, nil
	case KeyFile:
		data, err := os.ReadFile(m.Path)
		if err != nil {
			return nil, "", true, fmt.Errorf("failed to read private key %s: %w", m.Path, err)
		}
		return NormalizeKey(data), m.Passphrase, true, nil
	default:
		return nil, "", false, nil
	}
}
