package probe

import (
	"net"
	"regexp"
	"strings"
)

// macPattern matches the "link/ether aa:bb:cc:dd:ee:ff" lines of `ip link show`.
// The link/ether anchor keeps the "brd ff:ff:ff:ff:ff:ff" broadcast column out.
var macPattern = regexp.MustCompile(`(?i)link/ether\s+([0-9a-f]{2}(?::[0-9a-f]{2}){5})`)

// ExtractMACs returns every hardware address in output, lowercased, in order of
// appearance. No match yields an empty slice.
func ExtractMACs(output string) []string {
	matches := macPattern.FindAllStringSubmatch(output, -1)
	macs := make([]string, 0, len(matches))
	for _, m := range matches {
		macs = append(macs, strings.ToLower(m[1]))
	}
	return macs
}

// NormalizeMAC lowercases mac and rewrites dash or dot separated 48-bit
// addresses into the colon form ExtractMACs produces. Anything unparseable is
// only trimmed and lowercased.
func NormalizeMAC(mac string) string {
	mac = strings.ToLower(strings.TrimSpace(mac))
	if hw, err := net.ParseMAC(mac); err == nil && len(hw) == 6 {
		return hw.String()
	}
	return mac
}

// etherLine renders one address the way `ip link show` does so that every
// transport feeds ExtractMACs the same format.
func etherLine(mac string) string {
	return "    link/ether " + mac + " brd ff:ff:ff:ff:ff:ff\n"
}
