package discovery

import (
	"errors"
	"fmt"
	"time"
)

// Outcome kinds, suitable for display and JSON.
const (
	KindFound        = "found"
	KindInvalidRange = "invalid_range"
	KindMacNotFound  = "mac_not_found"
	KindScanTimeout  = "scan_timeout"
	KindError        = "error"
)

// InvalidRangeError means the range did not parse as a usable IPv4 network.
// No probe is launched.
type InvalidRangeError struct {
	Range  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid IP range '%s': %s", e.Range, e.Reason)
}

// MacNotFoundError means the sweep completed without a match. Diagnostic holds
// the first probe failure in launch order, if any.
type MacNotFoundError struct {
	MAC        string
	Diagnostic string
}

func (e *MacNotFoundError) Error() string {
	msg := fmt.Sprintf("MAC address '%s' not found on any host in the scanned range", e.MAC)
	if e.Diagnostic != "" {
		msg += " (first error: " + e.Diagnostic + ")"
	}
	return msg
}

// ScanTimeoutError means the caller's deadline expired before the sweep ended.
type ScanTimeoutError struct {
	After time.Duration
	Err   error
}

func (e *ScanTimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("scan timed out after %v", e.After)
	}
	return fmt.Sprintf("scan aborted: %v", e.Err)
}

func (e *ScanTimeoutError) Unwrap() error {
	return e.Err
}

// Outcome is the display form of a finished scan.
type Outcome struct {
	Kind       string `json:"kind"`
	IP         string `json:"ip,omitempty"`
	Message    string `json:"message,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// NewOutcome converts the result of Scan into an Outcome.
func NewOutcome(ip string, err error) Outcome {
	if err == nil {
		return Outcome{Kind: KindFound, IP: ip}
	}

	var (
		rangeErr    *InvalidRangeError
		notFoundErr *MacNotFoundError
		timeoutErr  *ScanTimeoutError
	)
	switch {
	case errors.As(err, &rangeErr):
		return Outcome{Kind: KindInvalidRange, Message: err.Error()}
	case errors.As(err, &notFoundErr):
		return Outcome{Kind: KindMacNotFound, Message: err.Error(), Diagnostic: notFoundErr.Diagnostic}
	case errors.As(err, &timeoutErr):
		return Outcome{Kind: KindScanTimeout, Message: err.Error()}
	default:
		return Outcome{Kind: KindError, Message: err.Error()}
	}
}

// Found reports whether the outcome carries an address.
func (o Outcome) Found() bool {
	return o.Kind == KindFound
}
