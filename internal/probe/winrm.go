package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/masterzen/winrm"
	"github.com/radarip/radarip/internal/credentials"
)

// winrmScript lists adapter MAC addresses, one "AA-BB-CC-DD-EE-FF" per line.
const winrmScript = `Get-NetAdapter | Select-Object -ExpandProperty MacAddress`

// WinRMTransport queries Windows hosts through WinRM and PowerShell.
type WinRMTransport struct {
	https bool
}

// NewWinRMTransport creates a WinRM transport; https selects the TLS endpoint.
func NewWinRMTransport(https bool) *WinRMTransport {
	return &WinRMTransport{https: https}
}

// Fetch lists the host's adapters and renders them as link/ether lines.
// A username of the form DOMAIN\user selects NTLM, anything else Basic auth.
func (t *WinRMTransport) Fetch(ctx context.Context, ip string, cfg ConnectionConfig) (string, error) {
	pw, ok := cfg.Auth.(credentials.Password)
	if !ok {
		return "", authErr(ip, errors.New("winrm transport requires password authentication"))
	}

	endpoint := winrm.NewEndpoint(
		ip,
		cfg.Port,
		t.https,
		true, // insecure - skip certificate verification
		nil,  // CA certificate
		nil,  // client certificate
		nil,  // client key
		cfg.Timeout,
	)

	var client *winrm.Client
	var err error
	if strings.Contains(cfg.Username, `\`) {
		params := winrm.DefaultParameters
		params.TransportDecorator = func() winrm.Transporter {
			return &winrm.ClientNTLM{}
		}
		client, err = winrm.NewClientWithParameters(endpoint, cfg.Username, pw.Secret, params)
	} else {
		client, err = winrm.NewClient(endpoint, cfg.Username, pw.Secret)
	}
	if err != nil {
		return "", connErr(ip, fmt.Errorf("WinRM client creation failed: %w", err))
	}

	psCmd := winrm.Powershell(winrmScript)
	stdout, stderr, exitCode, err := client.RunWithContextWithString(ctx, psCmd, "")
	if err != nil {
		if strings.Contains(err.Error(), "401") {
			return "", authErr(ip, err)
		}
		return "", connErr(ip, timeoutAware(ctx, err, cfg))
	}
	if exitCode != 0 {
		return "", cmdErr(ip, fmt.Errorf("PowerShell command failed (exit code %d): %s", exitCode, strings.TrimSpace(stderr)))
	}

	return renderAdapterMACs(stdout), nil
}

// renderAdapterMACs converts one-address-per-line output into link/ether lines.
func renderAdapterMACs(stdout string) string {
	var b strings.Builder
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(etherLine(NormalizeMAC(line)))
	}
	return b.String()
}
