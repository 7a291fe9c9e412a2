package supervisor

// State is the supervisor's position in the session lifecycle.
//
// Idle -> BackendStarting -> BackendReady -> FrontendStarting -> Running
//      -> ShuttingDown -> Stopped
//
// BackendStarting and FrontendStarting move to Failed when their service
// never confirms healthy; Failed always proceeds to ShuttingDown.
type State int32

const (
	StateIdle State = iota
	StateBackendStarting
	StateBackendReady
	StateFrontendStarting
	StateRunning
	StateFailed
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBackendStarting:
		return "backend_starting"
	case StateBackendReady:
		return "backend_ready"
	case StateFrontendStarting:
		return "frontend_starting"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
