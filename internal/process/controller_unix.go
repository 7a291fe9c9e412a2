//go:build !windows

package process

import (
	"bytes"
	"os"
	"runtime"
	"strconv"
	"syscall"
)

type unixController struct{}

func newController() Controller { return unixController{} }

// Terminate signals the whole process group; descendants started by the
// service (dev servers fork compilers and watchers) receive it too.
func (unixController) Terminate(p *Process) error {
	pid := p.PID()
	if pid <= 0 {
		return nil
	}
	return syscall.Kill(-pid, syscall.SIGTERM)
}

func (unixController) ForceKill(p *Process) error {
	pid := p.PID()
	if pid <= 0 {
		return nil
	}
	return syscall.Kill(-pid, syscall.SIGKILL)
}

func (unixController) Alive(p *Process) bool {
	if p.Exited() {
		return false
	}
	pid := p.PID()
	if pid <= 0 {
		return false
	}
	// A quickly-exiting child that has not been reaped yet shows up as a
	// zombie on Linux; treat that as not alive.
	if runtime.GOOS == "linux" && isZombieLinux(pid) {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// isZombieLinux returns true if /proc/<pid>/status reports a zombie state (Z).
func isZombieLinux(pid int) bool {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return false
	}
	return bytes.Contains(b, []byte("State:\tZ"))
}
