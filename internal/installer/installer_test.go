package installer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/tristarlabs/stackup/internal/logger"
	"github.com/tristarlabs/stackup/internal/process"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh on Unix-like systems")
	}
}

func newInstaller(tool string) *Installer {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(tool, process.NewRunner(logger.NewSink(io.Discard), log), log)
}

func TestInstallRunsToolInWorkdir(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	// "touch install" leaves a marker file named "install" in the workdir,
	// proving both the argv shape and the directory.
	i := newInstaller("touch")
	if err := i.Install(context.Background(), dir); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "install")); err != nil {
		t.Fatalf("install command did not run in workdir: %v", err)
	}
}

func TestInstallPassesExtraPackages(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	i := newInstaller("touch")
	if err := i.Install(context.Background(), dir, "left-pad", "express"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	for _, f := range []string{"install", "left-pad", "express"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Fatalf("expected package arg %q to reach the tool: %v", f, err)
		}
	}
}

func TestInstallFailureSurfacesAsInstallError(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	i := newInstaller("false")
	err := i.Install(context.Background(), dir)
	if err == nil {
		t.Fatal("expected error from failing tool")
	}
	var ie *InstallError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InstallError, got %T: %v", err, err)
	}
	if ie.Dir != dir {
		t.Fatalf("error dir = %q, want %q", ie.Dir, dir)
	}
}

func TestToolVersion(t *testing.T) {
	requireUnix(t)
	i := newInstaller("echo")
	v, err := i.ToolVersion(context.Background())
	if err != nil {
		t.Fatalf("ToolVersion: %v", err)
	}
	if v != "--version" {
		t.Fatalf("unexpected version output %q", v)
	}
}

func TestToolVersionMissingTool(t *testing.T) {
	requireUnix(t)
	i := newInstaller("definitely-not-a-real-tool-xyz")
	if _, err := i.ToolVersion(context.Background()); err == nil {
		t.Fatal("expected error for missing tool")
	}
}

func TestDefaultToolIsNpm(t *testing.T) {
	if got := newInstaller("").Tool; got != "npm" {
		t.Fatalf("default tool = %q, want npm", got)
	}
}

func TestTailBoundsOutput(t *testing.T) {
	long := strings.Repeat("x", outputTail*2)
	if got := tail(long); len(got) != outputTail {
		t.Fatalf("tail length = %d, want %d", len(got), outputTail)
	}
	if got := tail("short"); got != "short" {
		t.Fatalf("tail should keep short output, got %q", got)
	}
}
