package probe

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a per-host probe failure.
type ErrorKind string

const (
	ConnectionFailure       ErrorKind = "connection"
	AuthenticationFailure   ErrorKind = "authentication"
	CommandExecutionFailure ErrorKind = "command"
)

// Error is a transport-level failure for one host. It never aborts a scan.
type Error struct {
	Kind ErrorKind
	IP   string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case AuthenticationFailure:
		return fmt.Sprintf("authentication error on %s: %v", e.IP, e.Err)
	case CommandExecutionFailure:
		return fmt.Sprintf("command execution error on %s: %v", e.IP, e.Err)
	default:
		return fmt.Sprintf("connection error to %s: %v", e.IP, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func connErr(ip string, err error) *Error {
	return &Error{Kind: ConnectionFailure, IP: ip, Err: err}
}

func authErr(ip string, err error) *Error {
	return &Error{Kind: AuthenticationFailure, IP: ip, Err: err}
}

func cmdErr(ip string, err error) *Error {
	return &Error{Kind: CommandExecutionFailure, IP: ip, Err: err}
}

// KindOf returns the kind of a probe error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// timeoutAware replaces a bare context error with a message naming the
// per-connection timeout.
func timeoutAware(ctx context.Context, err error, cfg ConnectionConfig) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %v: %w", cfg.Timeout, err)
	}
	return err
}
