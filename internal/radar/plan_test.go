package radar

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/radarip/radarip/internal/config"
	"github.com/radarip/radarip/internal/credentials"
	"github.com/radarip/radarip/internal/discovery"
	"github.com/radarip/radarip/internal/validation"
)

func newTestPlanner(cfg *config.Config, env map[string]string) *Planner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPlanner(cfg, credentials.NewServiceWithEnv(env), logger)
}

func TestPlan_Profile(t *testing.T) {
	cfg := config.Default()
	cfg.SSH.Password = "passphrase"
	planner := newTestPlanner(cfg, map[string]string{"AI3_PRIVATE_KEY": "KEY\r\n"})

	plan, err := planner.Plan(Request{TargetMAC: "AA:BB:CC:DD:EE:FF", Profile: "ai3"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if plan.Range != "192.168.255.0/24" {
		t.Errorf("Range = %q", plan.Range)
	}
	if plan.Profile != "AI3" {
		t.Errorf("Profile = %q", plan.Profile)
	}
	if plan.Connection.Username != "pi" {
		t.Errorf("Username = %q, want pi", plan.Connection.Username)
	}
	if plan.Connection.Port != 22 || plan.Connection.Timeout != 5*time.Second {
		t.Errorf("Connection = %+v", plan.Connection)
	}
	km, ok := plan.Connection.Auth.(credentials.KeyMemory)
	if !ok || string(km.Key) != "KEY\n" || km.Passphrase != "passphrase" {
		t.Errorf("Auth = %#v", plan.Connection.Auth)
	}
	if plan.Scanner == nil {
		t.Error("Scanner is nil")
	}
}

func TestPlan_Overrides(t *testing.T) {
	cfg := config.Default()
	planner := newTestPlanner(cfg, nil)

	plan, err := planner.Plan(Request{
		TargetMAC: "aa:bb:cc:dd:ee:ff",
		Range:     " 10.20.0.0/28 ",
		Profile:   "",
		Username:  "admin",
		Password:  " spaced secret ",
		Port:      2222,
		TimeoutMS: 750,
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if plan.Range != "10.20.0.0/28" {
		t.Errorf("Range = %q", plan.Range)
	}
	if plan.Connection.Username != "admin" || plan.Connection.Port != 2222 {
		t.Errorf("Connection = %+v", plan.Connection)
	}
	if plan.Connection.Timeout != 750*time.Millisecond {
		t.Errorf("Timeout = %v", plan.Connection.Timeout)
	}
	if p, ok := plan.Connection.Auth.(credentials.Password); !ok || p.Secret != " spaced secret " {
		t.Errorf("Auth = %#v", plan.Connection.Auth)
	}
}

func TestPlan_TransportDefaultPort(t *testing.T) {
	cfg := config.Default()
	cfg.SSH.Password = "community"
	planner := newTestPlanner(cfg, nil)

	tests := []struct {
		transport string
		port      int
	}{
		{"ssh", 22},
		{"winrm", 5985},
		{"snmp", 161},
	}

	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			plan, err := planner.Plan(Request{TargetMAC: "aa:bb:cc:dd:ee:ff", Range: "10.0.0.0/30", Transport: tt.transport})
			if err != nil {
				t.Fatal(err)
			}
			if plan.Connection.Port != tt.port || plan.Transport != tt.transport {
				t.Errorf("plan = %s:%d, want %s:%d", plan.Transport, plan.Connection.Port, tt.transport, tt.port)
			}
		})
	}
}

func TestPlan_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.SSH.Password = "x"
	planner := newTestPlanner(cfg, nil)

	t.Run("Bad MAC", func(t *testing.T) {
		_, err := planner.Plan(Request{TargetMAC: "zz:zz", Range: "10.0.0.0/24"})
		var validationErrs *validation.Errors
		if !errors.As(err, &validationErrs) || validationErrs.Errors[0].Field != "target_mac" {
			t.Errorf("Plan() error = %v", err)
		}
	})

	t.Run("Unknown profile", func(t *testing.T) {
		_, err := planner.Plan(Request{TargetMAC: "aa:bb:cc:dd:ee:ff", Profile: "XYZ"})
		if !errors.Is(err, ErrUnknownProfile) {
			t.Errorf("Plan() error = %v, want ErrUnknownProfile", err)
		}
	})

	t.Run("No range", func(t *testing.T) {
		_, err := planner.Plan(Request{TargetMAC: "aa:bb:cc:dd:ee:ff"})
		var rangeErr *discovery.InvalidRangeError
		if !errors.As(err, &rangeErr) {
			t.Errorf("Plan() error = %v, want *InvalidRangeError", err)
		}
	})

	t.Run("Invalid range", func(t *testing.T) {
		_, err := planner.Plan(Request{TargetMAC: "aa:bb:cc:dd:ee:ff", Range: "10.0.0.0/8"})
		var rangeErr *discovery.InvalidRangeError
		if !errors.As(err, &rangeErr) {
			t.Errorf("Plan() error = %v, want *InvalidRangeError", err)
		}
	})

	t.Run("Profile key missing", func(t *testing.T) {
		_, err := planner.Plan(Request{TargetMAC: "aa:bb:cc:dd:ee:ff", Profile: "HC"})
		if err == nil {
			t.Error("expected error naming HC_PRIVATE_KEY")
		}
	})

	t.Run("Unknown transport", func(t *testing.T) {
		_, err := planner.Plan(Request{TargetMAC: "aa:bb:cc:dd:ee:ff", Range: "10.0.0.0/24", Transport: "telnet"})
		if err == nil {
			t.Error("expected error")
		}
	})
}
