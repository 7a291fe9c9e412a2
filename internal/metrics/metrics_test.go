package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register must be a no-op: %v", err)
	}
}

func TestHelpersDoNotPanicUnregistered(t *testing.T) {
	IncStart("backend")
	IncInstall("backend")
	IncInstallFailure("frontend")
	IncUnexpectedExit("backend")
	IncShutdown()
	ObserveProbeDuration("frontend", 1.2)
	IncStateTransition("idle", "backend_starting")
}
