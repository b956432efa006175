// Package probe opens a remote session to one host, runs the interface
// inspection command and extracts the hardware addresses it reports.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/radarip/radarip/internal/credentials"
)

// DefaultCommand lists interfaces together with their link-layer addresses.
const DefaultCommand = "ip link show"

// ConnectionConfig is shared read-only by every probe of a scan.
type ConnectionConfig struct {
	Username string
	Port     int
	Timeout  time.Duration
	Auth     credentials.AuthMethod
}

// Address joins ip and port for dialing.
func (c ConnectionConfig) Address(ip string) string {
	return fmt.Sprintf("%s:%d", ip, c.Port)
}

// DeviceIdentity is the result of one successful probe.
type DeviceIdentity struct {
	IP      string
	MACList []string
}

// Has reports whether mac (already normalized) is among the discovered addresses.
func (d DeviceIdentity) Has(mac string) bool {
	for _, m := range d.MACList {
		if m == mac {
			return true
		}
	}
	return false
}

// Transport runs the inspection command on one host and returns its raw output.
// Failures are returned as *Error.
type Transport interface {
	Fetch(ctx context.Context, ip string, cfg ConnectionConfig) (string, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, ip string, cfg ConnectionConfig) (string, error)

func (f TransportFunc) Fetch(ctx context.Context, ip string, cfg ConnectionConfig) (string, error) {
	return f(ctx, ip, cfg)
}

// Executor turns transport output into a DeviceIdentity.
type Executor struct {
	transport Transport
}

// NewExecutor creates an executor over the given transport.
func NewExecutor(transport Transport) *Executor {
	return &Executor{transport: transport}
}

// Probe fetches the interface listing of ip and parses every MAC address in it.
func (e *Executor) Probe(ctx context.Context, ip string, cfg ConnectionConfig) (DeviceIdentity, error) {
	output, err := e.transport.Fetch(ctx, ip, cfg)
	if err != nil {
		return DeviceIdentity{IP: ip}, err
	}

	return DeviceIdentity{
		IP:      ip,
		MACList: ExtractMACs(output),
	}, nil
}
