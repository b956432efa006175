// Package radar resolves a scan request against the configuration into a
// ready-to-run scanner. The CLI, the TUI and the HTTP API all go through it.
package radar

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/radarip/radarip/internal/config"
	"github.com/radarip/radarip/internal/credentials"
	"github.com/radarip/radarip/internal/discovery"
	"github.com/radarip/radarip/internal/probe"
	"github.com/radarip/radarip/internal/validation"
)

// ErrUnknownProfile is returned for a profile name absent from the configuration.
var ErrUnknownProfile = errors.New("unknown profile")

// Request carries one scan's inputs. Zero values fall back to the profile,
// then to the configuration.
type Request struct {
	TargetMAC   string `json:"target_mac" validate:"required,mac"`
	Range       string `json:"range"`
	Profile     string `json:"profile"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	KeyFile     string `json:"-"`
	Port        int    `json:"port" validate:"min=0,max=65535"`
	Transport   string `json:"transport" validate:"omitempty,oneof=ssh openssh winrm snmp"`
	TimeoutMS   int    `json:"timeout_ms" validate:"min=0"`
	Concurrency int    `json:"concurrency" validate:"min=0,max=1024"`
	DeadlineMS  int    `json:"deadline_ms" validate:"min=0"`
}

// Plan is a resolved request.
type Plan struct {
	TargetMAC  string
	Range      string
	Profile    string
	Transport  string
	Connection probe.ConnectionConfig
	Scanner    *discovery.Scanner
}

// Planner builds plans from one configuration.
type Planner struct {
	cfg         *config.Config
	credentials *credentials.Service
	registry    *probe.Registry
	logger      *slog.Logger
}

// NewPlanner creates a planner over cfg using the global transport registry.
func NewPlanner(cfg *config.Config, creds *credentials.Service, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		cfg:         cfg,
		credentials: creds,
		registry:    probe.GetRegistry(),
		logger:      logger,
	}
}

// Plan validates req and resolves every setting of the scan.
func (p *Planner) Plan(req Request) (*Plan, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var profile config.Profile
	if req.Profile != "" {
		found, ok := p.cfg.Profile(req.Profile)
		if !ok {
			return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownProfile, req.Profile, strings.Join(p.cfg.ProfileNames(), ", "))
		}
		profile = found
	}

	cidr := firstNonEmpty(req.Range, profile.Range)
	if cidr == "" {
		return nil, &discovery.InvalidRangeError{Range: "", Reason: "no range given and no profile selected"}
	}
	if _, err := discovery.ExpandCIDR(cidr); err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password = p.cfg.SSH.Password
	}
	auth, err := p.credentials.Resolve(credentials.Source{
		KeyFile:  firstNonEmpty(req.KeyFile, p.keyFileUnlessProfile(profile)),
		KeyEnv:   profile.KeyEnv,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	transportID := firstNonEmpty(req.Transport, p.cfg.SSH.Transport)
	protocol, err := p.registry.GetProtocol(transportID)
	if err != nil {
		return nil, err
	}
	transport, err := p.registry.NewTransport(transportID, probe.Options{
		Command:    p.cfg.SSH.Command,
		SSHBinary:  p.cfg.SSH.Binary,
		WinRMHTTPS: p.cfg.SSH.WinRMHTTPS,
	})
	if err != nil {
		return nil, err
	}

	port := firstPositive(req.Port, p.cfg.SSH.Port, protocol.DefaultPort)
	if transportID == "winrm" && p.cfg.SSH.WinRMHTTPS && req.Port == 0 && p.cfg.SSH.Port == 0 {
		port = 5986
	}

	conn := probe.ConnectionConfig{
		Username: firstNonEmpty(req.Username, profile.Username, p.cfg.SSH.Username),
		Port:     port,
		Timeout:  time.Duration(firstPositive(req.TimeoutMS, p.cfg.SSH.TimeoutMS)) * time.Millisecond,
		Auth:     auth,
	}

	deadline := p.cfg.Scanner.GetDeadline()
	if req.DeadlineMS > 0 {
		deadline = time.Duration(req.DeadlineMS) * time.Millisecond
	}

	scanner := discovery.NewScanner(probe.NewExecutor(transport), conn, discovery.Options{
		MaxConcurrent:     firstPositive(req.Concurrency, p.cfg.Scanner.MaxConcurrent),
		Deadline:          deadline,
		CancelStrayProbes: p.cfg.Scanner.CancelStrayProbes,
	}, p.logger)

	p.logger.Debug("Scan planned",
		slog.String("range", cidr),
		slog.String("profile", profile.Name),
		slog.String("transport", transportID),
		slog.String("username", conn.Username),
		slog.Int("port", conn.Port),
		slog.String("auth", auth.Kind()),
	)

	return &Plan{
		TargetMAC:  req.TargetMAC,
		Range:      cidr,
		Profile:    profile.Name,
		Transport:  transportID,
		Connection: conn,
		Scanner:    scanner,
	}, nil
}

// keyFileUnlessProfile keeps a profile's own key ahead of the configured key file.
func (p *Planner) keyFileUnlessProfile(profile config.Profile) string {
	if profile.KeyEnv != "" {
		return ""
	}
	return p.cfg.SSH.KeyFile
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
