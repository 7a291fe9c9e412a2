package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tristarlabs/stackup/internal/browser"
	"github.com/tristarlabs/stackup/internal/config"
	"github.com/tristarlabs/stackup/internal/env"
	"github.com/tristarlabs/stackup/internal/installer"
	"github.com/tristarlabs/stackup/internal/launcher"
	"github.com/tristarlabs/stackup/internal/logger"
	"github.com/tristarlabs/stackup/internal/metrics"
	"github.com/tristarlabs/stackup/internal/probe"
	"github.com/tristarlabs/stackup/internal/process"
	"github.com/tristarlabs/stackup/internal/server"
	"github.com/tristarlabs/stackup/internal/supervisor"
)

func runUp(f UpFlags) error {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return err
	}
	if f.NoBrowser {
		cfg.OpenBrowser = false
	}
	if f.Pause {
		cfg.PauseOnExit = true
	}
	if f.HTTPListen != "" {
		cfg.HTTP.Listen = f.HTTPListen
	}
	level := f.LogLevel
	if level == "" {
		level = cfg.Log.Level
	}

	log := logger.New(os.Stdout, level)
	sink := logger.NewSink(os.Stdout)
	runner := process.NewRunner(sink, log)
	inst := installer.New(cfg.PackageManager, runner, log)

	// Signal registration is the only ambient hookup; the supervisor
	// itself is plain dependency-injected state.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !f.SkipPreflight {
		if err := preflight(ctx, inst, runner, log); err != nil {
			return err
		}
	}

	e := env.New()
	e.FromOS()
	for _, kv := range cfg.Env {
		if i := strings.IndexByte(kv, '='); i > 0 {
			e.Set(kv[:i], kv[i+1:])
		}
	}

	l := &launcher.Launcher{
		Runner:    runner,
		Installer: inst,
		Prober:    &probe.Prober{},
		MergeEnv:  e.Merge,
		Log:       log,
	}

	backend, frontend := cfg.ServiceSpecs()
	supCfg := supervisor.Config{
		Backend:    backend,
		Frontend:   frontend,
		EnsureDirs: cfg.EnsureDirs(),
		BrowserURL: frontend.HealthURL,
	}
	if cfg.OpenBrowser {
		supCfg.OpenBrowser = func(url string) {
			log.Info("opening browser", "url", url)
			if err := browser.Open(url); err != nil {
				log.Warn("browser launch failed", "error", err)
			}
		}
	}
	sup := supervisor.New(supCfg, l, process.NewController(), log)

	if cfg.HTTP.Listen != "" {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}
		srv := server.NewServer(cfg.HTTP.Listen, cfg.HTTP.BasePath, sup, log)
		defer func() { _ = srv.Close() }()
		log.Info("status API listening", "addr", cfg.HTTP.Listen)
	}

	runErr := sup.Run(ctx)
	if cfg.PauseOnExit {
		pause()
	}
	return runErr
}

func runCheck(f CheckFlags) error {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return err
	}
	log := logger.New(os.Stdout, cfg.Log.Level)
	sink := logger.NewSink(os.Stdout)
	runner := process.NewRunner(sink, log)
	inst := installer.New(cfg.PackageManager, runner, log)
	return preflight(context.Background(), inst, runner, log)
}

// preflight confirms the package manager and node runtime are installed
// before anything gets installed or started.
func preflight(ctx context.Context, inst *installer.Installer, runner *process.Runner, log *slog.Logger) error {
	v, err := inst.ToolVersion(ctx)
	if err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	log.Info("package manager found", "tool", inst.Tool, "version", v)
	out, err := runner.RunCapturing(ctx, "node --version", "")
	if err != nil {
		return fmt.Errorf("preflight: node not found: %w", err)
	}
	log.Info("node found", "version", strings.TrimSpace(out))
	return nil
}

func pause() {
	fmt.Print("Press Enter to exit...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
