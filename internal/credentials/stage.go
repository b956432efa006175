package credentials

import (
	"fmt"
	"os"
)

// StageKey writes normalized key material to a private temporary file for a
// transport that only accepts key paths. The returned cleanup removes the file
// and must be called once the authentication attempt is over.
func StageKey(key []byte) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "radarip-key-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary key file: %w", err)
	}
	path = f.Name()
	cleanup = func() { _ = os.Remove(path) }

	// CreateTemp already uses 0600; chmod keeps that true on every platform.
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to restrict temporary key file: %w", err)
	}
	if _, err := f.Write(NormalizeKey(key)); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temporary key file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temporary key file: %w", err)
	}

	return path, cleanup, nil
}
