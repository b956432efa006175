package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/radarip/radarip/internal/discovery"
	"github.com/radarip/radarip/internal/radar"
)

// isolate keeps the developer's own env files and variables out of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScanFlagsRequest(t *testing.T) {
	f := &scanFlags{
		targetMAC:   "aa:bb:cc:dd:ee:ff",
		cidr:        "10.0.0.0/24",
		keyFile:     "/tmp/id",
		password:    "phrase",
		username:    "pi",
		timeoutSec:  3,
		port:        2222,
		profile:     "AI3",
		transport:   "openssh",
		concurrency: 8,
		deadline:    1500 * time.Millisecond,
	}

	want := radar.Request{
		TargetMAC:   "aa:bb:cc:dd:ee:ff",
		Range:       "10.0.0.0/24",
		Profile:     "AI3",
		Username:    "pi",
		Password:    "phrase",
		KeyFile:     "/tmp/id",
		Port:        2222,
		Transport:   "openssh",
		TimeoutMS:   3000,
		Concurrency: 8,
		DeadlineMS:  1500,
	}
	if got := f.request(); got != want {
		t.Errorf("request() = %+v, want %+v", got, want)
	}
}

func TestScan_InvalidRange(t *testing.T) {
	isolate(t)

	out, err := execute(t, "scan", "-m", "aa:bb:cc:dd:ee:ff", "-r", "10.0.0.0/33", "-p", "secret")
	var rangeErr *discovery.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("error = %v, want *InvalidRangeError", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing", out)
	}
}

func TestScan_RequiresMAC(t *testing.T) {
	isolate(t)

	_, err := execute(t, "scan", "-r", "10.0.0.0/24", "-p", "secret")
	if err == nil || !strings.Contains(err.Error(), "target-mac") {
		t.Errorf("error = %v, want the missing flag named", err)
	}
}

func TestScan_FlagsFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("RADAR_TARGET_MAC", "aa:bb:cc:dd:ee:ff")
	t.Setenv("RADAR_RANGE", "10.0.0.0/8")

	// The range from the environment is too large, which proves both values were bound.
	_, err := execute(t, "scan", "-p", "secret")
	var rangeErr *discovery.InvalidRangeError
	if !errors.As(err, &rangeErr) || rangeErr.Range != "10.0.0.0/8" {
		t.Errorf("error = %v, want *InvalidRangeError for 10.0.0.0/8", err)
	}
}

func TestScan_UnknownProfile(t *testing.T) {
	isolate(t)

	_, err := execute(t, "scan", "-m", "aa:bb:cc:dd:ee:ff", "--profile", "nope")
	if !errors.Is(err, radar.ErrUnknownProfile) {
		t.Errorf("error = %v, want ErrUnknownProfile", err)
	}
}

func TestProfilesCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "profiles")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"NAME", "HC", "10.8.0.0/24", "AI3_PRIVATE_KEY", "TRANSPORT", "ssh", "snmp"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInvalidLogLevel(t *testing.T) {
	isolate(t)

	if _, err := execute(t, "profiles", "--log-level", "loud"); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestServe_RequiresSecrets(t *testing.T) {
	isolate(t)

	_, err := execute(t, "serve")
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error = %v, want missing JWT secret", err)
	}
}
