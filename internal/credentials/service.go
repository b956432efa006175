package credentials

import (
	"errors"
	"fmt"
	"os"
)

// ErrNoCredentials is returned when a source names neither a key nor a password.
var ErrNoCredentials = errors.New("no credentials: provide a password or a private key")

// Source names where the credentials of a scan come from. The first
// non-empty of KeyFile, KeyEnv and Password wins; Password doubles as the
// key passphrase when a key is used.
type Source struct {
	KeyFile  string
	KeyEnv   string
	Password string
}

// Service resolves credential sources into auth methods.
type Service struct {
	lookupEnv func(string) (string, bool)
}

// NewService creates a new credential service reading the process environment
func NewService() *Service {
	return &Service{lookupEnv: os.LookupEnv}
}

// NewServiceWithEnv creates a service over an explicit environment.
func NewServiceWithEnv(env map[string]string) *Service {
	return &Service{lookupEnv: func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}}
}

// Resolve turns src into an AuthMethod. Key material from an environment
// variable is normalized; a key file is read when the probe connects.
func (s *Service) Resolve(src Source) (AuthMethod, error) {
	switch {
	case src.KeyFile != "":
		if _, err := os.Stat(src.KeyFile); err != nil {
			return nil, fmt.Errorf("private key file: %w", err)
		}
		return KeyFile{Path: src.KeyFile, Passphrase: src.Password}, nil

	case src.KeyEnv != "":
		key, ok := s.lookupEnv(src.KeyEnv)
		if !ok || key == "" {
			return nil, fmt.Errorf("environment variable %s with the private key is not set", src.KeyEnv)
		}
		return KeyMemory{Key: NormalizeKey([]byte(key)), Passphrase: src.Password}, nil

	case src.Password != "":
		return Password{Secret: src.Password}, nil

	default:
		return nil, ErrNoCredentials
	}
}
