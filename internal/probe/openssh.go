package probe

import (
	"bytes"
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/radarip/radarip/internal/credentials"
	"golang.org/x/crypto/ssh"
)

// OpenSSHTransport shells out to the system ssh client. The client only takes
// key paths, so key material is staged into a temporary file per attempt.
type OpenSSHTransport struct {
	binary  string
	command string
}

// NewOpenSSHTransport creates a transport using the given ssh binary
// ("ssh" when empty).
func NewOpenSSHTransport(binary, command string) *OpenSSHTransport {
	if binary == "" {
		binary = "ssh"
	}
	if command == "" {
		command = DefaultCommand
	}
	return &OpenSSHTransport{binary: binary, command: command}
}

// Fetch runs the inspection command through the ssh binary in batch mode.
func (t *OpenSSHTransport) Fetch(ctx context.Context, ip string, cfg ConnectionConfig) (string, error) {
	key, passphrase, ok, err := credentials.KeyMaterial(cfg.Auth)
	if err != nil {
		return "", authErr(ip, err)
	}
	if !ok {
		return "", authErr(ip, errors.New("openssh transport requires key authentication"))
	}

	// BatchMode never prompts, so the staged key must not need a passphrase.
	key, err = decryptKey(key, passphrase)
	if err != nil {
		return "", authErr(ip, err)
	}

	keyPath, cleanup, err := credentials.StageKey(key)
	if err != nil {
		return "", authErr(ip, err)
	}
	defer cleanup()

	execCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		// connect, handshake and command share one budget here
		execCtx, cancel = context.WithTimeout(ctx, 3*cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, t.binary, t.args(ip, keyPath, cfg)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return "", connErr(ip, fmt.Errorf("ssh timed out after %v", 3*cfg.Timeout))
	}
	if err != nil {
		return "", classifyOpenSSH(ip, err, stderr.String())
	}

	return stdout.String(), nil
}

// decryptKey returns key as an unencrypted OpenSSH PEM block when it is
// passphrase protected. Keys that are already plain, or that the ssh package
// cannot parse, are returned unchanged for the ssh client to judge.
func decryptKey(key []byte, passphrase string) ([]byte, error) {
	_, err := ssh.ParseRawPrivateKey(key)

	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return key, nil
	}
	if passphrase == "" {
		return nil, errors.New("private key is passphrase protected but no passphrase was given")
	}

	raw, err := ssh.ParseRawPrivateKeyWithPassphrase(key, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(raw, "")
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode private key: %w", err)
	}
	return pem.EncodeToMemory(block), nil
}

func (t *OpenSSHTransport) args(ip, keyPath string, cfg ConnectionConfig) []string {
	args := []string{
		"-i", keyPath,
		"-p", strconv.Itoa(cfg.Port),
		"-o", "BatchMode=yes",
		"-o", "IdentitiesOnly=yes",
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		"-o", "LogLevel=ERROR",
	}
	if secs := int(cfg.Timeout.Seconds()); secs > 0 {
		args = append(args, "-o", "ConnectTimeout="+strconv.Itoa(secs))
	}
	return append(args, cfg.Username+"@"+ip, t.command)
}

// classifyOpenSSH maps the ssh client's exit status to a probe error kind.
// ssh itself exits 255; any other status belongs to the remote command.
func classifyOpenSSH(ip string, err error, stderr string) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return connErr(ip, fmt.Errorf("failed to run ssh: %w", err))
	}
	if exitErr.ExitCode() != 255 {
		return cmdErr(ip, fmt.Errorf("exit code %d: %s", exitErr.ExitCode(), msg))
	}
	if strings.Contains(msg, "Permission denied") || strings.Contains(msg, "Too many authentication failures") {
		return authErr(ip, errors.New(msg))
	}
	return connErr(ip, errors.New(msg))
}
