// Package stackup supervises a two-tier local development stack: it
// installs dependencies, starts the backend and frontend, waits for each
// to become healthy, keeps both alive for the session and tears them down
// on exit or failure.
package stackup

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	cfg "github.com/tristarlabs/stackup/internal/config"
	"github.com/tristarlabs/stackup/internal/env"
	"github.com/tristarlabs/stackup/internal/installer"
	"github.com/tristarlabs/stackup/internal/launcher"
	"github.com/tristarlabs/stackup/internal/logger"
	"github.com/tristarlabs/stackup/internal/metrics"
	"github.com/tristarlabs/stackup/internal/probe"
	"github.com/tristarlabs/stackup/internal/process"
	iapi "github.com/tristarlabs/stackup/internal/server"
	"github.com/tristarlabs/stackup/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type ServiceSpec = launcher.ServiceSpec

type ProcessStatus = process.Status

type State = supervisor.State

type Config = cfg.Config

// Supervisor is a thin facade over internal/supervisor.Supervisor.
type Supervisor struct {
	inner *supervisor.Supervisor
	log   *slog.Logger
}

// New wires a Supervisor from a loaded Config with the default logger
// writing to stdout.
func New(c *Config) *Supervisor {
	return NewWithLogger(c, logger.New(os.Stdout, c.Log.Level))
}

// NewWithLogger wires a Supervisor with a caller-provided logger.
func NewWithLogger(c *Config, log *slog.Logger) *Supervisor {
	sink := logger.NewSink(os.Stdout)
	runner := process.NewRunner(sink, log)
	e := env.New()
	e.FromOS()
	for _, kv := range c.Env {
		if i := strings.IndexByte(kv, '='); i > 0 {
			e.Set(kv[:i], kv[i+1:])
		}
	}
	l := &launcher.Launcher{
		Runner:    runner,
		Installer: installer.New(c.PackageManager, runner, log),
		Prober:    &probe.Prober{},
		MergeEnv:  e.Merge,
		Log:       log,
	}
	backend, frontend := c.ServiceSpecs()
	return &Supervisor{
		inner: supervisor.New(supervisor.Config{
			Backend:    backend,
			Frontend:   frontend,
			EnsureDirs: c.EnsureDirs(),
		}, l, process.NewController(), log),
		log: log,
	}
}

func (s *Supervisor) Run(ctx context.Context) error { return s.inner.Run(ctx) }
func (s *Supervisor) Shutdown()                     { s.inner.Shutdown() }
func (s *Supervisor) State() State                  { return s.inner.State() }
func (s *Supervisor) Statuses() []ProcessStatus     { return s.inner.Statuses() }

// ExitCode maps a Run error to the per-failure-class process exit code.
func ExitCode(err error) int { return supervisor.ExitCode(err) }

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// NewHTTPServer starts the status API server for an embedded supervisor.
func NewHTTPServer(addr, basePath string, s *Supervisor) *http.Server {
	return iapi.NewServer(addr, basePath, s.inner, s.log)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
