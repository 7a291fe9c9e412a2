package process

import (
	"context"
	"os/exec"
	"strings"

	"github.com/tristarlabs/stackup/internal/logger"
)

// Spec describes a child process to be started in the background.
type Spec struct {
	Name    string        `json:"name"`
	Command string        `json:"command"`  // command line to start the process
	WorkDir string        `json:"work_dir"` // optional working dir
	Env     []string      `json:"env"`      // optional extra env (K=V)
	Log     logger.Config `json:"log"`      // per-service rotating file config
}

// BuildCommand constructs an *exec.Cmd for spec.Command. A shell is only
// involved when metacharacters require one; plain commands run directly.
func (s *Spec) BuildCommand() *exec.Cmd {
	return buildCommand(strings.TrimSpace(s.Command))
}

func buildCommand(cmdStr string) *exec.Cmd {
	if cmdStr == "" {
		return getTrueCommand()
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		return getShellCommand(cmdStr)
	}
	parts := strings.Fields(cmdStr)
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// ok: intentional execution, input comes from operator config
	// #nosec G204
	return exec.Command(parts[0], args...)
}

// commandContext is the cancellable variant used for blocking runs.
func commandContext(ctx context.Context, cmdStr string) *exec.Cmd {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return getTrueCommandContext(ctx)
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		return getShellCommandContext(ctx, cmdStr)
	}
	parts := strings.Fields(cmdStr)
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.CommandContext(ctx, parts[0], args...)
}
