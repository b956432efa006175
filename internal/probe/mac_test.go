package probe

import (
	"context"
	"errors"
	"testing"
)

const ipLinkShow = `1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 qdisc noqueue state UNKNOWN mode DEFAULT group default qlen 1000
    link/loopback 00:00:00:00:00:00 brd 00:00:00:00:00:00
2: eth0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc mq state UP mode DEFAULT group default qlen 1000
    link/ether AA:BB:CC:DD:EE:FF brd ff:ff:ff:ff:ff:ff
`

func TestExtractMACs(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []string
	}{
		{"Single interface with unrelated lines", ipLinkShow, []string{"aa:bb:cc:dd:ee:ff"}},
		{"No pattern", "bash: ip: command not found\n", []string{}},
		{"Empty output", "", []string{}},
		{
			"Multiple interfaces keep order",
			"link/ether 11:22:33:44:55:66 brd ff:ff:ff:ff:ff:ff\nlink/ether 0a:0B:0c:0D:0e:0F brd ff:ff:ff:ff:ff:ff\n",
			[]string{"11:22:33:44:55:66", "0a:0b:0c:0d:0e:0f"},
		},
		{"Mixed case keyword", "LINK/ETHER de:ad:be:ef:00:01", []string{"de:ad:be:ef:00:01"}},
		{"Short address ignored", "link/ether aa:bb:cc:dd:ee", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractMACs(tt.output)
			if result == nil {
				t.Fatal("ExtractMACs returned nil, want empty slice")
			}
			if len(result) != len(tt.expected) {
				t.Fatalf("ExtractMACs() returned %v, want %v", result, tt.expected)
			}
			for i, mac := range tt.expected {
				if result[i] != mac {
					t.Errorf("ExtractMACs()[%d] = %q, want %q", i, result[i], mac)
				}
			}
		})
	}
}

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AA:BB:CC:DD:EE:FF", "aa:bb:cc:dd:ee:ff"},
		{" aa:bb:cc:dd:ee:ff ", "aa:bb:cc:dd:ee:ff"},
		{"AA-BB-CC-DD-EE-FF", "aa:bb:cc:dd:ee:ff"},
		{"aabb.ccdd.eeff", "aa:bb:cc:dd:ee:ff"},
		{"not-a-mac", "not-a-mac"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeMAC(tt.input); got != tt.expected {
				t.Errorf("NormalizeMAC(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRenderAdapterMACs(t *testing.T) {
	out := renderAdapterMACs("AA-BB-CC-DD-EE-01\r\n\r\n00-11-22-33-44-55\r\n")
	macs := ExtractMACs(out)
	if len(macs) != 2 || macs[0] != "aa:bb:cc:dd:ee:01" || macs[1] != "00:11:22:33:44:55" {
		t.Errorf("round trip through ExtractMACs = %v", macs)
	}
}

func TestExecutorProbe(t *testing.T) {
	cfg := ConnectionConfig{Username: "root", Port: 22}

	t.Run("Success", func(t *testing.T) {
		exec := NewExecutor(TransportFunc(func(_ context.Context, ip string, _ ConnectionConfig) (string, error) {
			return ipLinkShow, nil
		}))
		identity, err := exec.Probe(context.Background(), "10.0.0.5", cfg)
		if err != nil {
			t.Fatalf("Probe error = %v", err)
		}
		if identity.IP != "10.0.0.5" || !identity.Has("aa:bb:cc:dd:ee:ff") {
			t.Errorf("unexpected identity %+v", identity)
		}
		if identity.Has("00:00:00:00:00:00") {
			t.Error("loopback address must not be reported")
		}
	})

	t.Run("Transport failure", func(t *testing.T) {
		exec := NewExecutor(TransportFunc(func(_ context.Context, ip string, _ ConnectionConfig) (string, error) {
			return "", authErr(ip, errors.New("denied"))
		}))
		_, err := exec.Probe(context.Background(), "10.0.0.6", cfg)
		if KindOf(err) != AuthenticationFailure {
			t.Errorf("KindOf(%v) = %q, want %q", err, KindOf(err), AuthenticationFailure)
		}
	})
}
