package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/tristarlabs/stackup/internal/launcher"
	"github.com/tristarlabs/stackup/internal/logger"
	"github.com/tristarlabs/stackup/internal/supervisor"
)

// Default topology. Mirrors the stack this tool grew up supervising: a
// node backend under backend/ and a dev server in the project root.
const (
	DefaultPackageManager  = "npm"
	DefaultBackendDir      = "backend"
	DefaultBackendCommand  = "node server.js"
	DefaultBackendHealth   = "http://localhost:6868/health"
	DefaultFrontendDir     = "."
	DefaultFrontendCommand = "npm run dev"
	DefaultFrontendHealth  = "http://localhost:3000"
)

// Config is the top-level TOML structure (stackup.toml).
type Config struct {
	PackageManager string   `toml:"package_manager" mapstructure:"package_manager"`
	OpenBrowser    bool     `toml:"open_browser" mapstructure:"open_browser"`
	PauseOnExit    bool     `toml:"pause_on_exit" mapstructure:"pause_on_exit"`
	Env            []string `toml:"env" mapstructure:"env"`

	Log      LogConfig     `toml:"log" mapstructure:"log"`
	HTTP     HTTPConfig    `toml:"http" mapstructure:"http"`
	Backend  ServiceConfig `toml:"backend" mapstructure:"backend"`
	Frontend ServiceConfig `toml:"frontend" mapstructure:"frontend"`
}

type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
	// Dir enables per-service rotating stdout/stderr files.
	Dir        string `toml:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// HTTPConfig enables the optional status API. Empty listen disables it.
type HTTPConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type ServiceConfig struct {
	Dir             string        `toml:"dir" mapstructure:"dir"`
	Manifest        string        `toml:"manifest" mapstructure:"manifest"`
	InstallPackages []string      `toml:"install_packages" mapstructure:"install_packages"`
	StartCommand    string        `toml:"start_command" mapstructure:"start_command"`
	HealthURL       string        `toml:"health_url" mapstructure:"health_url"`
	StartupTimeout  time.Duration `toml:"startup_timeout" mapstructure:"startup_timeout"`
	Env             []string      `toml:"env" mapstructure:"env"`
}

// Load reads path (TOML) into a Config with defaults applied. An empty
// path yields the pure defaults, matching the zero-config original tool.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	// The browser convenience is on unless explicitly disabled; SetDefault
	// keeps an explicit open_browser = false in the file authoritative.
	v.SetDefault("open_browser", true)
	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.PackageManager == "" {
		c.PackageManager = DefaultPackageManager
	}
	if c.Backend.Dir == "" {
		c.Backend.Dir = DefaultBackendDir
	}
	if c.Backend.StartCommand == "" {
		c.Backend.StartCommand = DefaultBackendCommand
	}
	if c.Backend.HealthURL == "" {
		c.Backend.HealthURL = DefaultBackendHealth
	}
	if c.Backend.StartupTimeout <= 0 {
		c.Backend.StartupTimeout = supervisor.DefaultBackendTimeout
	}
	if c.Frontend.Dir == "" {
		c.Frontend.Dir = DefaultFrontendDir
	}
	if c.Frontend.StartCommand == "" {
		c.Frontend.StartCommand = DefaultFrontendCommand
	}
	if c.Frontend.HealthURL == "" {
		c.Frontend.HealthURL = DefaultFrontendHealth
	}
	if c.Frontend.StartupTimeout <= 0 {
		c.Frontend.StartupTimeout = supervisor.DefaultFrontendTimeout
	}
}

func (c *Config) Validate() error {
	for _, sc := range []struct {
		name string
		s    ServiceConfig
	}{{"backend", c.Backend}, {"frontend", c.Frontend}} {
		if sc.s.Dir == "" {
			return fmt.Errorf("%s: dir is required", sc.name)
		}
		if sc.s.StartCommand == "" {
			return fmt.Errorf("%s: start_command is required", sc.name)
		}
		if sc.s.HealthURL == "" {
			return fmt.Errorf("%s: health_url is required", sc.name)
		}
	}
	return nil
}

// ServiceSpecs materializes the immutable launcher specs.
func (c *Config) ServiceSpecs() (backend, frontend launcher.ServiceSpec) {
	logCfg := logger.Config{
		Dir:        c.Log.Dir,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
	backend = launcher.ServiceSpec{
		Name:            "backend",
		Dir:             c.Backend.Dir,
		Manifest:        c.Backend.Manifest,
		InstallPackages: c.Backend.InstallPackages,
		StartCommand:    c.Backend.StartCommand,
		HealthURL:       c.Backend.HealthURL,
		StartupTimeout:  c.Backend.StartupTimeout,
		Env:             c.Backend.Env,
		Log:             logCfg,
	}
	frontend = launcher.ServiceSpec{
		Name:            "frontend",
		Dir:             c.Frontend.Dir,
		Manifest:        c.Frontend.Manifest,
		InstallPackages: c.Frontend.InstallPackages,
		StartCommand:    c.Frontend.StartCommand,
		HealthURL:       c.Frontend.HealthURL,
		StartupTimeout:  c.Frontend.StartupTimeout,
		Env:             c.Frontend.Env,
		Log:             logCfg,
	}
	return backend, frontend
}

// EnsureDirs lists the working directories the backend expects to exist,
// relative to its dir. Creation is idempotent.
func (c *Config) EnsureDirs() []string {
	return []string{"data", "logs", "exports"}
}
