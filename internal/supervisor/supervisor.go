package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tristarlabs/stackup/internal/launcher"
	"github.com/tristarlabs/stackup/internal/metrics"
	"github.com/tristarlabs/stackup/internal/process"
)

// Default policy constants. The frontend window is longer because dev
// servers cold-compile on the first request.
const (
	DefaultBackendTimeout  = 15 * time.Second
	DefaultFrontendTimeout = 30 * time.Second
	DefaultGraceTimeout    = 5 * time.Second
	DefaultMonitorInterval = time.Second
)

// Config wires a Supervisor. Backend and Frontend are required; the rest
// default sensibly.
type Config struct {
	Backend  launcher.ServiceSpec
	Frontend launcher.ServiceSpec

	// EnsureDirs are created under the backend dir before anything starts.
	EnsureDirs []string

	// OpenBrowser, when non-nil, is invoked fire-and-forget with
	// BrowserURL once the frontend is confirmed ready.
	OpenBrowser func(url string)
	BrowserURL  string

	// GraceTimeout bounds the cooperative-stop wait before force kill.
	GraceTimeout time.Duration
	// MonitorInterval is the liveness polling cadence.
	MonitorInterval time.Duration
}

// Supervisor owns both managed processes for the session: ordered
// startup, the Running monitor loop, and shutdown. The two process
// handles are written only here and read by the shutdown coordinator.
type Supervisor struct {
	cfg      Config
	launcher *launcher.Launcher
	ctrl     process.Controller
	log      *slog.Logger

	mu       sync.Mutex
	state    State
	procs    []*process.Process
	shutdown bool
}

func New(cfg Config, l *launcher.Launcher, ctrl process.Controller, log *slog.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, launcher: l, ctrl: ctrl, log: log, state: StateIdle}
}

// Run drives the whole session: backend up, frontend up, monitor until
// the context is cancelled or a service dies, then shut everything down.
// The returned error classifies the failure (see ExitCode); nil means a
// clean, operator-initiated exit.
func (s *Supervisor) Run(ctx context.Context) error {
	s.transition(StateBackendStarting)
	if err := s.ensureDirs(); err != nil {
		return s.fail(ctx, err)
	}

	if err := s.launch(ctx, s.cfg.Backend); err != nil {
		return s.fail(ctx, err)
	}
	s.transition(StateBackendReady)

	s.transition(StateFrontendStarting)
	if err := s.launch(ctx, s.cfg.Frontend); err != nil {
		return s.fail(ctx, err)
	}

	s.transition(StateRunning)
	if s.cfg.OpenBrowser != nil && s.cfg.BrowserURL != "" {
		go s.cfg.OpenBrowser(s.cfg.BrowserURL)
	}

	err := s.monitor(ctx)
	s.Shutdown()
	s.transition(StateStopped)
	return err
}

// launch runs the launcher for one service and tracks whatever process
// came out of it, ready or not. A health-timeout still yields a tracked
// process so shutdown can clean it up rather than orphan it.
func (s *Supervisor) launch(ctx context.Context, spec launcher.ServiceSpec) error {
	p, err := s.launcher.Launch(ctx, spec)
	if p != nil {
		s.track(p)
	}
	return err
}

// fail tears down after a startup error. An interrupt mid-startup
// surfaces as a launch failure; the operator asked for it, so it is
// reclassified as a clean exit here rather than in every caller.
func (s *Supervisor) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		s.log.Info("interrupt received during startup")
		err = nil
	} else {
		s.log.Error("startup failed", "error", err)
		s.transition(StateFailed)
	}
	s.Shutdown()
	s.transition(StateStopped)
	return err
}

// monitor polls both process handles once per interval. It returns nil
// when ctx is cancelled (interrupt) and *UnexpectedExitError when a
// service dies without a stop having been requested. A reaped exit is
// not the only death signal: a child whose descendants still hold the
// inherited pipes never reaches Exited until they let go, so the
// controller's liveness check (which sees zombies) is consulted too.
func (s *Supervisor) monitor(ctx context.Context) error {
	interval := s.cfg.MonitorInterval
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("interrupt received, shutting down")
			return nil
		case <-ticker.C:
			for _, p := range s.tracked() {
				if p.StopRequested() {
					continue
				}
				if p.Exited() || !s.ctrl.Alive(p) {
					metrics.IncUnexpectedExit(p.Name())
					s.log.Error("service stopped unexpectedly", "service", p.Name(), "exit_code", p.ExitCode())
					return &UnexpectedExitError{Service: p.Name(), ExitCode: p.ExitCode()}
				}
			}
		}
	}
}

func (s *Supervisor) ensureDirs() error {
	for _, d := range s.cfg.EnsureDirs {
		path := d
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.cfg.Backend.Dir, d)
		}
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}

func (s *Supervisor) track(p *process.Process) {
	s.mu.Lock()
	s.procs = append(s.procs, p)
	s.mu.Unlock()
}

func (s *Supervisor) tracked() []*process.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*process.Process, len(s.procs))
	copy(out, s.procs)
	return out
}

// State returns the current state machine position.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Statuses snapshots every tracked process, for the status API.
func (s *Supervisor) Statuses() []process.Status {
	procs := s.tracked()
	out := make([]process.Status, 0, len(procs))
	for _, p := range procs {
		out = append(out, p.Snapshot())
	}
	return out
}

func (s *Supervisor) transition(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	if from == to {
		return
	}
	metrics.IncStateTransition(from.String(), to.String())
	s.log.Debug("state transition", "from", from.String(), "to", to.String())
}
