package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/tristarlabs/stackup/internal/installer"
	"github.com/tristarlabs/stackup/internal/launcher"
	"github.com/tristarlabs/stackup/internal/logger"
	"github.com/tristarlabs/stackup/internal/probe"
	"github.com/tristarlabs/stackup/internal/process"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh/sleep on Unix-like systems")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLauncher(tool string) *launcher.Launcher {
	log := discardLogger()
	runner := process.NewRunner(logger.NewSink(io.Discard), log)
	return &launcher.Launcher{
		Runner:    runner,
		Installer: installer.New(tool, runner, log),
		Prober:    &probe.Prober{Interval: 50 * time.Millisecond},
		Log:       log,
	}
}

func writeManifest(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, launcher.DefaultManifest), []byte("{}"), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

// healthyEndpoint returns a URL that always answers.
func healthyEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// deadEndpoint returns a URL that refuses every connection.
func deadEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	return url
}

func serviceSpec(t *testing.T, name, url string, timeout time.Duration) launcher.ServiceSpec {
	t.Helper()
	dir := t.TempDir()
	writeManifest(t, dir)
	return launcher.ServiceSpec{
		Name:           name,
		Dir:            dir,
		StartCommand:   "sleep 60",
		HealthURL:      url,
		StartupTimeout: timeout,
	}
}

func newTestSupervisor(t *testing.T, cfg Config) *Supervisor {
	t.Helper()
	if cfg.MonitorInterval == 0 {
		cfg.MonitorInterval = 50 * time.Millisecond
	}
	if cfg.GraceTimeout == 0 {
		cfg.GraceTimeout = 2 * time.Second
	}
	sup := New(cfg, newTestLauncher("true"), process.NewController(), discardLogger())
	t.Cleanup(sup.Shutdown)
	return sup
}

func waitState(t *testing.T, sup *Supervisor, want State, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if sup.State() == want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v within %v", sup.State(), want, within)
}

func TestBackendFailureNeverStartsFrontend(t *testing.T) {
	requireUnix(t)
	backend := serviceSpec(t, "backend", deadEndpoint(t), 300*time.Millisecond)
	frontendDir := t.TempDir() // deliberately no manifest marker check below
	writeManifest(t, frontendDir)
	frontend := launcher.ServiceSpec{
		Name:           "frontend",
		Dir:            frontendDir,
		StartCommand:   "touch frontend-started && sleep 60",
		HealthURL:      healthyEndpoint(t),
		StartupTimeout: time.Second,
	}
	sup := newTestSupervisor(t, Config{Backend: backend, Frontend: frontend})

	err := sup.Run(context.Background())
	if !launcher.IsHealthTimeout(err) {
		t.Fatalf("expected health timeout from backend, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(frontendDir, "frontend-started")); statErr == nil {
		t.Fatal("frontend was started although the backend never became healthy")
	}
	if sup.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", sup.State())
	}
	// The unhealthy backend process must have been cleaned up, not orphaned.
	for _, st := range sup.Statuses() {
		if st.Running {
			t.Fatalf("process %s still running after shutdown", st.Name)
		}
	}
	if ExitCode(err) != ExitHealthTimeout {
		t.Fatalf("exit code = %d, want %d", ExitCode(err), ExitHealthTimeout)
	}
}

func TestMissingBackendManifestFailsBeforeAnything(t *testing.T) {
	requireUnix(t)
	backend := launcher.ServiceSpec{
		Name:           "backend",
		Dir:            t.TempDir(), // no manifest
		StartCommand:   "sleep 60",
		HealthURL:      healthyEndpoint(t),
		StartupTimeout: time.Second,
	}
	frontend := serviceSpec(t, "frontend", healthyEndpoint(t), time.Second)
	sup := newTestSupervisor(t, Config{Backend: backend, Frontend: frontend})

	err := sup.Run(context.Background())
	if !launcher.IsConfigError(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(sup.Statuses()) != 0 {
		t.Fatalf("no process should have been tracked, got %v", sup.Statuses())
	}
	if ExitCode(err) != ExitConfig {
		t.Fatalf("exit code = %d, want %d", ExitCode(err), ExitConfig)
	}
}

func TestUnexpectedBackendDeathShutsDownFrontend(t *testing.T) {
	requireUnix(t)
	backend := serviceSpec(t, "backend", healthyEndpoint(t), 5*time.Second)
	frontend := serviceSpec(t, "frontend", healthyEndpoint(t), 5*time.Second)
	sup := newTestSupervisor(t, Config{Backend: backend, Frontend: frontend})

	done := make(chan error, 1)
	go func() { done <- sup.Run(context.Background()) }()
	waitState(t, sup, StateRunning, 10*time.Second)

	statuses := sup.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 tracked processes, got %d", len(statuses))
	}
	// Kill the backend's process group out from under the supervisor.
	if err := syscall.Kill(-statuses[0].PID, syscall.SIGKILL); err != nil {
		t.Fatalf("external kill: %v", err)
	}

	var err error
	select {
	case err = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not notice the death")
	}
	var ue *UnexpectedExitError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnexpectedExitError, got %v", err)
	}
	if ue.Service != "backend" {
		t.Fatalf("wrong service reported dead: %s", ue.Service)
	}
	for _, st := range sup.Statuses() {
		if st.Running {
			t.Fatalf("process %s still running after shutdown", st.Name)
		}
	}
	if ExitCode(err) != ExitUnexpected {
		t.Fatalf("exit code = %d, want %d", ExitCode(err), ExitUnexpected)
	}
}

func TestInterruptStopsBothServices(t *testing.T) {
	requireUnix(t)
	backend := serviceSpec(t, "backend", healthyEndpoint(t), 5*time.Second)
	frontend := serviceSpec(t, "frontend", healthyEndpoint(t), 5*time.Second)
	sup := newTestSupervisor(t, Config{Backend: backend, Frontend: frontend})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()
	waitState(t, sup, StateRunning, 10*time.Second)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("interrupted run should return nil, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not observe the interrupt")
	}
	if sup.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", sup.State())
	}
	for _, st := range sup.Statuses() {
		if st.Running {
			t.Fatalf("process %s still running after interrupt", st.Name)
		}
		if st.State != process.StateTerminated.String() {
			t.Fatalf("process %s state = %s, want terminated", st.Name, st.State)
		}
	}
}

func TestDeathDetectedDespiteSurvivingDescendant(t *testing.T) {
	requireUnix(t)
	if runtime.GOOS != "linux" {
		t.Skip("unreaped-child detection reads /proc")
	}
	backend := serviceSpec(t, "backend", healthyEndpoint(t), 5*time.Second)
	// The shell exits with 7 right away, but the backgrounded sleep keeps
	// the inherited pipes open so the exit status is not reapable. The
	// monitor must still notice the death via the liveness check instead
	// of waiting a minute for the descendant to let go.
	frontend := serviceSpec(t, "frontend", healthyEndpoint(t), 5*time.Second)
	frontend.StartCommand = "sleep 60 & exit 7"
	sup := newTestSupervisor(t, Config{Backend: backend, Frontend: frontend})

	done := make(chan error, 1)
	go func() { done <- sup.Run(context.Background()) }()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not notice the death while the pipes were held open")
	}
	var ue *UnexpectedExitError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnexpectedExitError, got %v", err)
	}
	if ue.Service != "frontend" {
		t.Fatalf("wrong service reported dead: %s", ue.Service)
	}
	for _, st := range sup.Statuses() {
		if st.Running {
			t.Fatalf("process %s still running after shutdown", st.Name)
		}
	}
}

func TestInterruptDuringStartupIsClean(t *testing.T) {
	requireUnix(t)
	// The backend never becomes healthy within its long window; an
	// interrupt arriving mid-probe must classify as a clean exit, not a
	// health timeout.
	backend := serviceSpec(t, "backend", deadEndpoint(t), 10*time.Second)
	frontend := serviceSpec(t, "frontend", healthyEndpoint(t), 5*time.Second)
	sup := newTestSupervisor(t, Config{Backend: backend, Frontend: frontend})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()
	waitState(t, sup, StateBackendStarting, 5*time.Second)
	time.Sleep(200 * time.Millisecond) // let the probe loop begin
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("interrupted startup should return nil, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not observe the interrupt during startup")
	}
	if sup.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", sup.State())
	}
	if ExitCode(nil) != ExitOK {
		t.Fatalf("clean interrupt must map to exit %d", ExitOK)
	}
	for _, st := range sup.Statuses() {
		if st.Running {
			t.Fatalf("process %s still running after interrupt", st.Name)
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	requireUnix(t)
	backend := serviceSpec(t, "backend", healthyEndpoint(t), 5*time.Second)
	frontend := serviceSpec(t, "frontend", healthyEndpoint(t), 5*time.Second)
	sup := newTestSupervisor(t, Config{Backend: backend, Frontend: frontend})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()
	waitState(t, sup, StateRunning, 10*time.Second)
	cancel()
	<-done

	// Everything is already stopped; a second pass must return instantly
	// and attempt no further kills.
	start := time.Now()
	sup.Shutdown()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("second shutdown not a no-op: took %v", elapsed)
	}
}

func TestEnsureDirsCreatedUnderBackend(t *testing.T) {
	requireUnix(t)
	backend := serviceSpec(t, "backend", healthyEndpoint(t), 5*time.Second)
	frontend := serviceSpec(t, "frontend", healthyEndpoint(t), 5*time.Second)
	sup := newTestSupervisor(t, Config{
		Backend:    backend,
		Frontend:   frontend,
		EnsureDirs: []string{"data", "logs", "exports"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()
	waitState(t, sup, StateRunning, 10*time.Second)
	for _, d := range []string{"data", "logs", "exports"} {
		if fi, err := os.Stat(filepath.Join(backend.Dir, d)); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s under backend dir: %v", d, err)
		}
	}
	cancel()
	<-done

	// Re-running dir creation against existing dirs must not error.
	if err := sup.ensureDirs(); err != nil {
		t.Fatalf("ensureDirs not idempotent: %v", err)
	}
}
