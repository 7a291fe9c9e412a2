package launcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tristarlabs/stackup/internal/installer"
	"github.com/tristarlabs/stackup/internal/logger"
	"github.com/tristarlabs/stackup/internal/metrics"
	"github.com/tristarlabs/stackup/internal/probe"
	"github.com/tristarlabs/stackup/internal/process"
)

// DefaultManifest is the package-manager metadata file whose presence is
// a precondition for installing a service's dependencies.
const DefaultManifest = "package.json"

// ServiceSpec is the static configuration for one service. Immutable once
// constructed.
type ServiceSpec struct {
	Name            string
	Dir             string
	Manifest        string // manifest filename, default package.json
	InstallPackages []string
	StartCommand    string
	HealthURL       string
	StartupTimeout  time.Duration
	Env             []string
	Log             logger.Config
}

func (s ServiceSpec) manifestPath() string {
	m := s.Manifest
	if m == "" {
		m = DefaultManifest
	}
	return filepath.Join(s.Dir, m)
}

// Launcher brings one service from "not started" to "confirmed healthy",
// or fails fast: manifest check, dependency install, background start,
// health probe.
type Launcher struct {
	Runner    *process.Runner
	Installer *installer.Installer
	Prober    *probe.Prober
	MergeEnv  func(perService []string) []string
	Log       *slog.Logger
}

// Launch runs the startup sequence for spec. On success the returned
// process is confirmed healthy. On *HealthTimeoutError the process is
// returned as well (still running, supervisor cleans it up); every other
// error means no process was started.
func (l *Launcher) Launch(ctx context.Context, spec ServiceSpec) (*process.Process, error) {
	manifest := spec.manifestPath()
	if _, err := os.Stat(manifest); err != nil {
		return nil, &ConfigError{Service: spec.Name, Path: manifest}
	}

	if err := l.Installer.Install(ctx, spec.Dir, spec.InstallPackages...); err != nil {
		metrics.IncInstallFailure(spec.Name)
		return nil, err
	}
	metrics.IncInstall(spec.Name)

	var env []string
	if l.MergeEnv != nil {
		env = l.MergeEnv(spec.Env)
	}
	p, err := l.Runner.Start(process.Spec{
		Name:    spec.Name,
		Command: spec.StartCommand,
		WorkDir: spec.Dir,
		Env:     spec.Env,
		Log:     spec.Log,
	}, env)
	if err != nil {
		return nil, err
	}
	metrics.IncStart(spec.Name)

	l.Log.Info("waiting for service", "service", spec.Name, "url", spec.HealthURL, "timeout", spec.StartupTimeout)
	out := l.Prober.Probe(ctx, spec.HealthURL, spec.StartupTimeout)
	metrics.ObserveProbeDuration(spec.Name, out.Elapsed.Seconds())
	if out.Result != probe.Healthy {
		return p, &HealthTimeoutError{
			Service: spec.Name,
			URL:     spec.HealthURL,
			Timeout: spec.StartupTimeout,
			Proc:    p,
		}
	}
	l.Log.Info("service ready", "service", spec.Name, "elapsed", out.Elapsed.Round(time.Millisecond))
	return p, nil
}
