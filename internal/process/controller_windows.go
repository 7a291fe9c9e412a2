//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
)

var (
	kernel32        = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess = kernel32.NewProc("OpenProcess")
	procCloseHandle = kernel32.NewProc("CloseHandle")
)

const PROCESS_QUERY_INFORMATION = 0x0400

type windowsController struct{}

func newController() Controller { return windowsController{} }

// Terminate has no graceful window on Windows: console subtrees cannot be
// signalled the way a Unix process group can, so the tree is force-killed
// immediately. This asymmetry with the Unix controller is deliberate and
// mirrors the behavior operators already rely on.
func (c windowsController) Terminate(p *Process) error {
	return c.ForceKill(p)
}

// ForceKill terminates the whole process tree rooted at the child's PID.
func (windowsController) ForceKill(p *Process) error {
	pid := p.PID()
	if pid <= 0 {
		return nil
	}
	// taskkill /T is the only reliable whole-tree kill for a detached console.
	// #nosec G204
	out, err := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("taskkill pid %d: %w (%s)", pid, err, out)
	}
	return nil
}

func (windowsController) Alive(p *Process) bool {
	if p.Exited() {
		return false
	}
	pid := p.PID()
	if pid <= 0 {
		return false
	}
	return checkProcessExists(pid) == nil
}

// checkProcessExists is the Windows equivalent of kill(pid, 0) on Unix.
func checkProcessExists(pid int) error {
	handle, err := openProcess(PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return err
	}
	defer closeHandle(handle)
	return nil
}

// openProcess opens a process handle
func openProcess(access uint32, inheritHandle bool, processID uint32) (syscall.Handle, error) {
	inherit := 0
	if inheritHandle {
		inherit = 1
	}
	ret, _, err := procOpenProcess.Call(
		uintptr(access),
		uintptr(inherit),
		uintptr(processID),
	)
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

// closeHandle closes a Windows handle
func closeHandle(handle syscall.Handle) error {
	ret, _, err := procCloseHandle.Call(uintptr(handle))
	if ret == 0 {
		return err
	}
	return nil
}
