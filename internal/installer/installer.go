package installer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tristarlabs/stackup/internal/process"
)

// outputTail bounds how much captured package-manager output rides inside
// an InstallError.
const outputTail = 2048

// InstallError reports a failed package-manager run. It is fatal for the
// affected service's startup and is never retried.
type InstallError struct {
	Dir    string
	Output string
	Err    error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("dependency install failed in %s: %v", e.Dir, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Installer wraps the package manager's install step. Tool is the
// executable name, npm unless configured otherwise.
type Installer struct {
	Tool   string
	Runner *process.Runner
	Log    *slog.Logger
}

func New(tool string, runner *process.Runner, log *slog.Logger) *Installer {
	if tool == "" {
		tool = "npm"
	}
	return &Installer{Tool: tool, Runner: runner, Log: log}
}

// Install runs a whole-project install in workdir, or an install of the
// named packages when provided. A non-zero exit surfaces as *InstallError.
func (i *Installer) Install(ctx context.Context, workdir string, packages ...string) error {
	command := i.Tool + " install"
	if len(packages) > 0 {
		command += " " + strings.Join(packages, " ")
	}
	i.Log.Info("installing dependencies", "dir", workdir, "command", command)
	out, err := i.Runner.RunCapturing(ctx, command, workdir)
	if err != nil {
		return &InstallError{Dir: workdir, Output: tail(out), Err: err}
	}
	return nil
}

// ToolVersion reports the package manager's version, used by preflight
// checks to confirm it is installed at all.
func (i *Installer) ToolVersion(ctx context.Context) (string, error) {
	out, err := i.Runner.RunCapturing(ctx, i.Tool+" --version", "")
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", i.Tool, err)
	}
	return strings.TrimSpace(out), nil
}

func tail(s string) string {
	if len(s) <= outputTail {
		return s
	}
	return s[len(s)-outputTail:]
}
