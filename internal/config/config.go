package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// TargetConfig describes the probed service.
type TargetConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// EmailConfig holds failure notification settings.
type EmailConfig struct {
	From            string `yaml:"from"`
	To              string `yaml:"to"`
	CredentialsFile string `yaml:"credentials_file"`
}

// StorageConfig holds result log settings.
type StorageConfig struct {
	Path    string `yaml:"path"`
	Backend string `yaml:"backend"`
}

// ListenerConfig holds the health endpoint server settings.
type ListenerConfig struct {
	Address string `yaml:"address"`
}

// DashboardConfig holds the dashboard server settings.
type DashboardConfig struct {
	Address string `yaml:"address"`
}

// Config is the root application configuration. It is loaded once at
// startup and passed explicitly to the components that need it.
type Config struct {
	Target    TargetConfig    `yaml:"target"`
	Email     EmailConfig     `yaml:"email"`
	Storage   StorageConfig   `yaml:"storage"`
	Listener  ListenerConfig  `yaml:"listener"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// Environment variables recognised by Load. They take precedence over the
// config file.
const (
	EnvBaseURL          = "CHECK_BASE_URL"
	EnvTimeout          = "CHECK_TIMEOUT"
	EnvSendFrom         = "SEND_FROM_EMAIL"
	EnvSendTo           = "SEND_TO_EMAIL"
	EnvCredentialsFile  = "SERVICE_ACCOUNT_FILE_PATH"
	EnvStatsFile        = "STATS_FILE"
	EnvStatsBackend     = "STATS_BACKEND"
	EnvListenAddress    = "LISTEN_ADDRESS"
	EnvDashboardAddress = "DASHBOARD_ADDRESS"
)

const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Load builds the configuration from an optional YAML file at path, a .env
// file in the working directory (if any) and the process environment, in
// increasing order of precedence. Load does not check that role-specific
// settings are present; see ValidatePinger and ValidateDashboard.
func Load(path string) (*Config, error) {
	// A missing .env file is not an error; a malformed one is.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// Apply defaults.
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendCSV
	}
	if cfg.Listener.Address == "" {
		cfg.Listener.Address = ":8000"
	}
	if cfg.Dashboard.Address == "" {
		cfg.Dashboard.Address = ":8080"
	}

	switch cfg.Storage.Backend {
	case BackendCSV, BackendSQLite:
	default:
		return nil, fmt.Errorf("invalid storage backend %q (must be csv or sqlite)", cfg.Storage.Backend)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs error
	str := func(key string, dst *string) {
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		if v == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s is set but empty", key))
			return
		}
		*dst = v
	}

	str(EnvBaseURL, &cfg.Target.BaseURL)
	str(EnvSendFrom, &cfg.Email.From)
	str(EnvSendTo, &cfg.Email.To)
	str(EnvCredentialsFile, &cfg.Email.CredentialsFile)
	str(EnvStatsFile, &cfg.Storage.Path)
	str(EnvStatsBackend, &cfg.Storage.Backend)
	str(EnvListenAddress, &cfg.Listener.Address)
	str(EnvDashboardAddress, &cfg.Dashboard.Address)

	var timeout string
	str(EnvTimeout, &timeout)
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: invalid duration %q: %w", EnvTimeout, timeout, err))
		} else {
			cfg.Target.Timeout = Duration{d}
		}
	}

	return errs
}

// ValidatePinger reports every setting the pinger needs that is missing or
// malformed.
func (c *Config) ValidatePinger() error {
	var errs error
	require := func(name, value string) {
		if value == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s is required", name))
		}
	}

	require("target.base_url", c.Target.BaseURL)
	require("email.from", c.Email.From)
	require("email.to", c.Email.To)
	require("email.credentials_file", c.Email.CredentialsFile)
	require("storage.path", c.Storage.Path)

	if c.Target.BaseURL != "" {
		if err := validateBaseURL(c.Target.BaseURL); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.Target.Timeout.Duration < 0 {
		errs = multierr.Append(errs, fmt.Errorf("target.timeout must not be negative"))
	}
	return errs
}

// ValidateDashboard reports missing settings needed to read the result log.
func (c *Config) ValidateDashboard() error {
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("target.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target.base_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("target.base_url: missing host in %q", raw)
	}
	return nil
}
