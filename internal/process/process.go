package process

import (
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"
)

// Process is the handle for one managed child. It is created by
// Runner.Start and mutated only by its reaper goroutine, the supervisor's
// monitor loop and the shutdown coordinator.
type Process struct {
	mu        sync.Mutex
	spec      Spec
	cmd       *exec.Cmd
	state     State
	startedAt time.Time
	stoppedAt time.Time
	exitErr   error
	exitCode  int
	stopping  bool // true once the shutdown coordinator has claimed this process
	waitDone  chan struct{}
	outCloser io.WriteCloser
	errCloser io.WriteCloser
}

// Status is a point-in-time snapshot of a Process, safe to serialize.
type Status struct {
	Name      string    `json:"name"`
	State     string    `json:"state"`
	PID       int       `json:"pid"`
	Running   bool      `json:"running"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at,omitempty"`
	ExitCode  int       `json:"exit_code"`
}

func (p *Process) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spec.Name
}

func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		return p.cmd.Process.Pid
	}
	return 0
}

func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done is closed by the reaper once the child has been waited on.
func (p *Process) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitDone
}

// Exited reports, without blocking, whether the child's exit status has
// become observable.
func (p *Process) Exited() bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

// ExitCode returns the recorded exit code; meaningful only after Exited.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// SetStopRequested marks that the shutdown coordinator owns this process;
// its subsequent exit is recorded as Terminated, not Exited.
func (p *Process) SetStopRequested() {
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()
}

func (p *Process) StopRequested() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopping
}

// Snapshot returns a copy of the current status.
func (p *Process) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	pid := 0
	if p.cmd != nil && p.cmd.Process != nil {
		pid = p.cmd.Process.Pid
	}
	return Status{
		Name:      p.spec.Name,
		State:     p.state.String(),
		PID:       pid,
		Running:   p.state == StateRunning,
		StartedAt: p.startedAt,
		StoppedAt: p.stoppedAt,
		ExitCode:  p.exitCode,
	}
}

func (p *Process) markRunning() {
	p.mu.Lock()
	p.state = StateRunning
	p.startedAt = time.Now()
	p.mu.Unlock()
}

// markExited records the wait result and closes waitDone. Called exactly
// once, by the reaper.
func (p *Process) markExited(err error) {
	p.mu.Lock()
	p.stoppedAt = time.Now()
	p.exitErr = err
	p.exitCode = exitCodeFrom(err)
	if p.stopping {
		p.state = StateTerminated
	} else {
		p.state = StateExited
	}
	wd := p.waitDone
	p.mu.Unlock()
	close(wd)
}

func (p *Process) closeWriters() {
	p.mu.Lock()
	if p.outCloser != nil {
		_ = p.outCloser.Close()
		p.outCloser = nil
	}
	if p.errCloser != nil {
		_ = p.errCloser.Close()
		p.errCloser = nil
	}
	p.mu.Unlock()
}

func exitCodeFrom(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
