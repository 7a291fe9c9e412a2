package process

// State is the lifecycle state of a managed child process.
//
// Starting -> Running -> Exited | Terminated
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateExited     // process ended on its own; exit code recorded
	StateTerminated // process was stopped by the shutdown coordinator
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
