package launcher

import (
	"errors"
	"fmt"
	"time"

	"github.com/tristarlabs/stackup/internal/installer"
	"github.com/tristarlabs/stackup/internal/process"
)

// ConfigError means a service's directory layout is unusable (missing
// manifest). It aborts the launch before any install or process start.
type ConfigError struct {
	Service string
	Path    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: manifest %s not found", e.Service, e.Path)
}

// HealthTimeoutError means the service process started but never became
// reachable within its deadline. The started process rides inside the
// error so the caller can keep tracking it; cleaning it up is the
// supervisor's responsibility, not the launcher's.
type HealthTimeoutError struct {
	Service string
	URL     string
	Timeout time.Duration
	Proc    *process.Process
}

func (e *HealthTimeoutError) Error() string {
	return fmt.Sprintf("%s: no response from %s within %s", e.Service, e.URL, e.Timeout)
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func IsInstallError(err error) bool {
	var ie *installer.InstallError
	return errors.As(err, &ie)
}

func IsHealthTimeout(err error) bool {
	var he *HealthTimeoutError
	return errors.As(err, &he)
}
