package supervisor

import (
	"time"

	"github.com/tristarlabs/stackup/internal/metrics"
	"github.com/tristarlabs/stackup/internal/process"
)

// reapWindow is how long to wait for the reaper after a force kill.
const reapWindow = 200 * time.Millisecond

// Shutdown terminates every tracked process that is still alive. It is
// idempotent: a second invocation is a no-op with no further kill
// attempts. Individual kill errors are logged and swallowed so that one
// stubborn process never blocks shutdown of the rest.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	procs := make([]*process.Process, len(s.procs))
	copy(procs, s.procs)
	s.mu.Unlock()

	s.transition(StateShuttingDown)
	metrics.IncShutdown()
	for _, p := range procs {
		s.stopOne(p)
	}
}

// stopOne asks one process to stop cooperatively and escalates to a
// forced kill when it has not exited within the grace window. On the
// platform without graceful group signalling the controller's Terminate
// already kills the whole tree.
func (s *Supervisor) stopOne(p *process.Process) {
	if p.Exited() {
		return
	}
	if !s.ctrl.Alive(p) {
		// The leader died on its own but unreaped descendants may keep
		// the group (and the inherited pipes) alive. Sweep the group so
		// nothing outlives the session.
		if err := s.ctrl.ForceKill(p); err != nil {
			s.log.Warn("group sweep failed", "service", p.Name(), "error", err)
		}
		select {
		case <-p.Done():
		case <-time.After(reapWindow):
		}
		return
	}
	p.SetStopRequested()
	name := p.Name()
	s.log.Info("stopping service", "service", name, "pid", p.PID())
	if err := s.ctrl.Terminate(p); err != nil {
		s.log.Warn("terminate failed", "service", name, "error", err)
	}
	grace := s.cfg.GraceTimeout
	if grace <= 0 {
		grace = DefaultGraceTimeout
	}
	select {
	case <-p.Done():
		s.log.Info("service stopped", "service", name)
		return
	case <-time.After(grace):
	}
	s.log.Warn("service did not stop in time, killing", "service", name, "grace", grace)
	if err := s.ctrl.ForceKill(p); err != nil {
		s.log.Warn("force kill failed", "service", name, "error", err)
	}
	select {
	case <-p.Done():
	case <-time.After(reapWindow):
		// best-effort; the reaper will finish on its own
	}
}
