//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

// Windows creation flags
const (
	CREATE_NEW_PROCESS_GROUP = 0x00000200
	CREATE_NEW_CONSOLE       = 0x00000010
)

// configureSysProcAttr gives the child its own console and process group
// so that forced termination can reach its entire subtree without tearing
// down the supervisor's console.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: CREATE_NEW_PROCESS_GROUP | CREATE_NEW_CONSOLE,
	}
}
