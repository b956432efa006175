// Package config
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/radarip/radarip/internal/validation"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "radarip.yaml"

type Config struct {
	Scanner  ScannerConfig  `yaml:"scanner"`
	SSH      SSHConfig      `yaml:"ssh"`
	Profiles []Profile      `yaml:"profiles" validate:"dive"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ScannerConfig struct {
	MaxConcurrent     int  `yaml:"max_concurrent" validate:"min=1,max=1024"`
	DeadlineMS        int  `yaml:"deadline_ms" validate:"min=0"`
	CancelStrayProbes bool `yaml:"cancel_stray_probes"`
	QueueSize         int  `yaml:"queue_size" validate:"min=1"`
	JobRetention      int  `yaml:"job_retention" validate:"min=0"`
}

// SSHConfig holds the connection settings shared by every probe. Despite the
// name it also configures the winrm and snmp transports.
type SSHConfig struct {
	Transport  string `yaml:"transport" validate:"oneof=ssh openssh winrm snmp"`
	Username   string `yaml:"username" validate:"required"`
	Port       int    `yaml:"port" validate:"min=0,max=65535"`
	TimeoutMS  int    `yaml:"timeout_ms" validate:"min=1"`
	Password   string `yaml:"password"`
	KeyFile    string `yaml:"key_file"`
	Command    string `yaml:"command"`
	Binary     string `yaml:"binary"`
	WinRMHTTPS bool   `yaml:"winrm_https"`
}

// Profile is a named device family with its usual range, login and key.
type Profile struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Range    string `yaml:"range" json:"range" validate:"required,cidrv4"`
	Username string `yaml:"username" json:"username" validate:"required"`
	KeyEnv   string `yaml:"key_env" json:"key_env" validate:"required"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
}

type AuthConfig struct {
	AdminUsername  string `yaml:"admin_username"`
	AdminPassword  string `yaml:"admin_password"`
	JWTSecret      string `yaml:"jwt_secret"`
	JWTExpiryHours int    `yaml:"jwt_expiry_hours"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url" validate:"required_if=Enabled true"`
	MaxConns int32  `yaml:"max_conns"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration, including the stock device profiles.
func Default() *Config {
	return &Config{
		Scanner: ScannerConfig{
			MaxConcurrent: 50,
			DeadlineMS:    15000,
			QueueSize:     50,
			JobRetention:  500,
		},
		SSH: SSHConfig{
			Transport: "ssh",
			Username:  "root",
			TimeoutMS: 5000,
		},
		Profiles: []Profile{
			{Name: "HC", Range: "10.8.0.0/24", Username: "root", KeyEnv: "HC_PRIVATE_KEY"},
			{Name: "AI2", Range: "10.8.0.0/24", Username: "nano", KeyEnv: "AI3_PRIVATE_KEY"},
			{Name: "AI3", Range: "192.168.255.0/24", Username: "pi", KeyEnv: "AI3_PRIVATE_KEY"},
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			ReadTimeoutMS:  10000,
			WriteTimeoutMS: 30000,
		},
		Auth: AuthConfig{
			AdminUsername:  "admin",
			JWTExpiryHours: 24,
		},
		Database: DatabaseConfig{
			MaxConns: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file, then .env
// files, then environment variable overrides. An empty configPath reads
// DefaultFile if it exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	path := configPath
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		// Read config file
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Parse YAML
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// DotEnvFiles lists the env files read by LoadDotEnv, in order.
func DotEnvFiles() []string {
	files := []string{".env"}
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, "radarip", "radarip.env"))
	}
	return files
}

// LoadDotEnv loads the existing files of DotEnvFiles into the process
// environment. Variables already set are never overwritten.
func LoadDotEnv() error {
	for _, file := range DotEnvFiles() {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		key := strings.ToUpper(p.Name)
		if seen[key] {
			return fmt.Errorf("duplicate profile name %q", p.Name)
		}
		seen[key] = true
	}

	return nil
}

// ValidateServer checks the settings only the HTTP API needs.
func (c *Config) ValidateServer() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("RADAR_AUTH_JWT_SECRET is required (minimum 32 characters)")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	if c.Auth.AdminPassword == "" || c.Auth.AdminPassword == "changeme" {
		return errors.New("RADAR_AUTH_ADMIN_PASSWORD must be set to a strong password")
	}
	return nil
}

// applyEnvOverrides checks for environment variables with RADAR_ prefix
func applyEnvOverrides(cfg *Config) error {
	// SSH overrides. SSH_PASSWORD is the historical name and loses to the prefixed one.
	if v := os.Getenv("SSH_PASSWORD"); v != "" {
		cfg.SSH.Password = v
	}
	if v := os.Getenv("RADAR_SSH_PASSWORD"); v != "" {
		cfg.SSH.Password = v
	}
	if v := os.Getenv("RADAR_SSH_USERNAME"); v != "" {
		cfg.SSH.Username = v
	}
	if v := os.Getenv("RADAR_SSH_KEY_FILE"); v != "" {
		cfg.SSH.KeyFile = v
	}
	if v := os.Getenv("RADAR_SSH_TRANSPORT"); v != "" {
		cfg.SSH.Transport = v
	}
	if err := intFromEnv("RADAR_SSH_PORT", &cfg.SSH.Port); err != nil {
		return err
	}
	if err := intFromEnv("RADAR_SSH_TIMEOUT_MS", &cfg.SSH.TimeoutMS); err != nil {
		return err
	}

	// Scanner overrides
	if err := intFromEnv("RADAR_SCANNER_MAX_CONCURRENT", &cfg.Scanner.MaxConcurrent); err != nil {
		return err
	}
	if err := intFromEnv("RADAR_SCANNER_DEADLINE_MS", &cfg.Scanner.DeadlineMS); err != nil {
		return err
	}

	// Server and auth overrides
	if v := os.Getenv("RADAR_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if err := intFromEnv("RADAR_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if v := os.Getenv("RADAR_AUTH_ADMIN_PASSWORD"); v != "" {
		cfg.Auth.AdminPassword = v
	}
	if v := os.Getenv("RADAR_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	// Database overrides
	if v := os.Getenv("RADAR_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Database.Enabled = true
	}

	// Logging overrides
	if v := os.Getenv("RADAR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("RADAR_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}

	return nil
}

func intFromEnv(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", name, err)
	}
	*dst = n
	return nil
}

// Profile looks up a profile by name, ignoring case.
func (c *Config) Profile(name string) (Profile, bool) {
	for _, p := range c.Profiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Profile{}, false
}

// ProfileNames returns the configured profile names in order.
func (c *Config) ProfileNames() []string {
	names := make([]string, len(c.Profiles))
	for i, p := range c.Profiles {
		names[i] = p.Name
	}
	return names
}

// GetTimeout returns the per-host connection timeout as a duration
func (s *SSHConfig) GetTimeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// GetDeadline returns the overall scan deadline; zero disables it.
func (s *ScannerConfig) GetDeadline() time.Duration {
	return time.Duration(s.DeadlineMS) * time.Millisecond
}

// GetReadTimeout returns the read timeout as a duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// GetWriteTimeout returns the write timeout as a duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

// Addr returns host:port for the HTTP listener.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetJWTExpiry returns JWT expiry as duration
func (a *AuthConfig) GetJWTExpiry() time.Duration {
	return time.Duration(a.JWTExpiryHours) * time.Hour
}

// IsLogLevelValid checks if the log level is valid
func (l *LoggingConfig) IsLogLevelValid() bool {
	validLevels := []string{"debug", "info", "warn", "error"}
	return slices.Contains(validLevels, strings.ToLower(l.Level))
}
