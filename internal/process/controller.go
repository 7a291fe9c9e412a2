package process

// Controller abstracts platform-specific process-group control. The
// supervisor only ever calls these three methods; it never branches on
// the platform itself.
type Controller interface {
	// Terminate requests a cooperative stop. On Unix this signals the
	// whole process group with SIGTERM; on Windows there is no graceful
	// equivalent for a console subtree and the tree is killed outright.
	Terminate(p *Process) error
	// ForceKill stops the process group/tree immediately.
	ForceKill(p *Process) error
	// Alive reports whether the child is still running.
	Alive(p *Process) bool
}

// NewController returns the controller for the current platform.
func NewController() Controller { return newController() }
