package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gosnmp/gosnmp"
	"github.com/radarip/radarip/internal/credentials"
)

// ifPhysAddress column of IF-MIB::ifTable.
const ifPhysAddressOID = ".1.3.6.1.2.1.2.2.1.6"

// SNMPTransport walks IF-MIB over SNMP v2c. The password of a Password auth
// method is used as the community string; the username is ignored.
type SNMPTransport struct{}

// NewSNMPTransport creates an SNMP v2c transport.
func NewSNMPTransport() *SNMPTransport {
	return &SNMPTransport{}
}

// Fetch walks ifPhysAddress and renders each 6-byte address as a link/ether line.
func (t *SNMPTransport) Fetch(ctx context.Context, ip string, cfg ConnectionConfig) (string, error) {
	pw, ok := cfg.Auth.(credentials.Password)
	if !ok || pw.Secret == "" {
		return "", authErr(ip, errors.New("snmp transport requires a community string as password"))
	}

	g := &gosnmp.GoSNMP{
		Target:    ip,
		Port:      uint16(cfg.Port),
		Version:   gosnmp.Version2c,
		Community: pw.Secret,
		Timeout:   cfg.Timeout,
		Retries:   1,
		Context:   ctx,
	}

	if err := g.Connect(); err != nil {
		return "", connErr(ip, fmt.Errorf("SNMP connection failed: %w", err))
	}
	defer g.Conn.Close()

	pdus, err := g.BulkWalkAll(ifPhysAddressOID)
	if err != nil {
		// v2c has no auth handshake; a wrong community is indistinguishable from a silent host
		return "", connErr(ip, fmt.Errorf("SNMP walk failed: %w", timeoutAware(ctx, err, cfg)))
	}

	var b strings.Builder
	for _, pdu := range pdus {
		raw, ok := pdu.Value.([]byte)
		if !ok || len(raw) != 6 {
			continue
		}
		b.WriteString(etherLine(net.HardwareAddr(raw).String()))
	}

	return b.String(), nil
}
