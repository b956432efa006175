// Package discovery expands a subnet into candidate hosts and sweeps them for
// the host that carries a given hardware address.
package discovery

import (
	"fmt"
	"net/netip"
	"strings"
)

// maxHostBits caps expansion at a /16 so that per-host result slots stay bounded.
const maxHostBits = 16

// ExpandCIDR expands an IPv4 CIDR block into its usable host addresses in
// ascending order.
//
// The network and broadcast addresses are excluded. /31 yields both
// addresses and /32 the single address (RFC 3021 point-to-point links).
// Host bits in the address part are masked, so "192.168.1.77/24" expands
// like "192.168.1.0/24".
//
// Returns *InvalidRangeError for anything that is not an IPv4 prefix, or for
// blocks larger than /16.
func ExpandCIDR(cidr string) ([]string, error) {
	value := strings.TrimSpace(cidr)

	prefix, err := netip.ParsePrefix(value)
	if err != nil {
		return nil, &InvalidRangeError{Range: cidr, Reason: err.Error()}
	}
	if !prefix.Addr().Is4() {
		return nil, &InvalidRangeError{Range: cidr, Reason: "only IPv4 networks can be scanned"}
	}

	bits := prefix.Bits()
	hostBits := 32 - bits
	if hostBits > maxHostBits {
		return nil, &InvalidRangeError{Range: cidr, Reason: fmt.Sprintf("network too large (more than %d hosts)", 1<<maxHostBits)}
	}

	prefix = prefix.Masked()
	addr := prefix.Addr()
	skipEdges := bits < 31

	if skipEdges {
		addr = addr.Next()
	}

	ips := make([]string, 0, countHosts(bits))
	for prefix.Contains(addr) {
		ips = append(ips, addr.String())
		addr = addr.Next()
	}

	// Remove the broadcast address
	if skipEdges && len(ips) > 0 {
		ips = ips[:len(ips)-1]
	}

	return ips, nil
}

// countHosts returns the number of usable hosts for an IPv4 prefix length.
func countHosts(bits int) int {
	count := 1 << (32 - bits)
	if bits < 31 {
		count -= 2
	}
	return count
}

// DescribeRange returns human-readable information about a range, e.g.
// "CIDR: 10.8.0.0/24 (254 hosts)".
func DescribeRange(cidr string) string {
	ips, err := ExpandCIDR(cidr)
	if err != nil {
		return fmt.Sprintf("CIDR: %s (invalid: %v)", strings.TrimSpace(cidr), err)
	}
	return fmt.Sprintf("CIDR: %s (%d hosts)", strings.TrimSpace(cidr), len(ips))
}
