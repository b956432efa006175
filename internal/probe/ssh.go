package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/radarip/radarip/internal/credentials"
	"golang.org/x/crypto/ssh"
)

// SSHTransport runs the inspection command over golang.org/x/crypto/ssh.
type SSHTransport struct {
	command string
}

// NewSSHTransport creates an SSH transport. An empty command means DefaultCommand.
func NewSSHTransport(command string) *SSHTransport {
	if command == "" {
		command = DefaultCommand
	}
	return &SSHTransport{command: command}
}

// Fetch connects to ip, authenticates and returns the command output.
// Connect, handshake and command each get the configured timeout.
func (t *SSHTransport) Fetch(ctx context.Context, ip string, cfg ConnectionConfig) (string, error) {
	address := cfg.Address(ip)

	authMethods, err := sshAuthMethods(cfg.Auth)
	if err != nil {
		return "", authErr(ip, err)
	}

	config := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // hosts are found by MAC, their keys are unknown in advance
		Timeout:         cfg.Timeout,
	}

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return "", connErr(ip, timeoutAware(ctx, err, cfg))
	}
	defer conn.Close()

	// Closing the socket is the only way to interrupt a blocked handshake or read.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	setDeadline(conn, cfg.Timeout)
	c, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		if isAuthFailure(err) {
			return "", authErr(ip, err)
		}
		return "", connErr(ip, timeoutAware(ctx, err, cfg))
	}
	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	setDeadline(conn, cfg.Timeout)
	session, err := client.NewSession()
	if err != nil {
		return "", cmdErr(ip, fmt.Errorf("failed to open session: %w", err))
	}
	defer session.Close()

	out, err := session.Output(t.command)
	if err != nil {
		return "", cmdErr(ip, timeoutAware(ctx, err, cfg))
	}

	return string(out), nil
}

func setDeadline(conn net.Conn, timeout time.Duration) {
	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}
}

func isAuthFailure(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}

// sshAuthMethods builds the client auth list for exactly one AuthMethod.
func sshAuthMethods(method credentials.AuthMethod) ([]ssh.AuthMethod, error) {
	switch m := method.(type) {
	case nil:
		return nil, errors.New("no authentication method provided (password or private key required)")
	case credentials.Password:
		answer := func(_, _ string, questions []string, _ []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = m.Secret
			}
			return answers, nil
		}
		return []ssh.AuthMethod{
			ssh.Password(m.Secret),
			ssh.KeyboardInteractive(answer),
		}, nil
	default:
		key, passphrase, _, err := credentials.KeyMaterial(method)
		if err != nil {
			return nil, err
		}
		signer, err := parseSigner(key, passphrase)
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
}

// parseSigner only applies the passphrase when the key asks for one, so an
// unencrypted key paired with a passphrase still works.
func parseSigner(key []byte, passphrase string) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(key)

	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if passphrase == "" {
			return nil, errors.New("private key is passphrase protected but no passphrase was given")
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return signer, nil
}
