package supervisor

import (
	"errors"
	"fmt"

	"github.com/tristarlabs/stackup/internal/installer"
	"github.com/tristarlabs/stackup/internal/launcher"
)

// UnexpectedExitError means a previously healthy service died on its own.
// It is fatal for the session and triggers a full shutdown.
type UnexpectedExitError struct {
	Service  string
	ExitCode int
}

func (e *UnexpectedExitError) Error() string {
	return fmt.Sprintf("%s stopped unexpectedly (exit code %d)", e.Service, e.ExitCode)
}

// Exit codes, one per failure class. Automation can branch on these
// instead of parsing log output.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfig        = 2
	ExitInstall       = 3
	ExitHealthTimeout = 4
	ExitUnexpected    = 5
)

// ExitCode maps a Run error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		ce *launcher.ConfigError
		ie *installer.InstallError
		he *launcher.HealthTimeoutError
		ue *UnexpectedExitError
	)
	switch {
	case errors.As(err, &ce):
		return ExitConfig
	case errors.As(err, &ie):
		return ExitInstall
	case errors.As(err, &he):
		return ExitHealthTimeout
	case errors.As(err, &ue):
		return ExitUnexpected
	default:
		return ExitFailure
	}
}
