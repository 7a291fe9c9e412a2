package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/tristarlabs/stackup/internal/logger"
)

// scanBuf bounds a single output line; longer lines are split by the scanner.
const scanBuf = 1024 * 1024

// Runner starts child processes. The capturing variant blocks until the
// command finishes; the background variant returns a Process handle and
// keeps draining its output into the shared sink for the process lifetime.
type Runner struct {
	Sink *logger.Sink
	Log  *slog.Logger
}

func NewRunner(sink *logger.Sink, log *slog.Logger) *Runner {
	return &Runner{Sink: sink, Log: log}
}

// RunCapturing runs command to completion in workdir and returns the
// combined stdout+stderr. A non-nil error means a non-zero exit (or a
// failure to start); the output is returned either way.
func (r *Runner) RunCapturing(ctx context.Context, command, workdir string) (string, error) {
	cmd := commandContext(ctx, command)
	if workdir != "" {
		cmd.Dir = workdir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("run %q: %w", command, err)
	}
	return string(out), nil
}

// Start launches spec's command in the background and returns its handle.
// Two goroutines drain stdout and stderr line-wise into the sink, tagged
// by stream origin, so the child never blocks on a full pipe buffer. A
// third goroutine reaps the child exactly once and closes Done().
func (r *Runner) Start(spec Spec, mergedEnv []string) (*Process, error) {
	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	switch {
	case len(mergedEnv) > 0:
		cmd.Env = mergedEnv
	case len(spec.Env) > 0:
		// No merger wired; per-service overrides still apply on top of
		// the parent environment.
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	configureSysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe for %s: %w", spec.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe for %s: %w", spec.Name, err)
	}

	outW, errW, err := spec.Log.Writers(spec.Name)
	if err != nil {
		return nil, err
	}

	p := &Process{
		spec:      spec,
		cmd:       cmd,
		state:     StateStarting,
		waitDone:  make(chan struct{}),
		outCloser: outW,
		errCloser: errW,
	}

	if err := cmd.Start(); err != nil {
		p.closeWriters()
		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}
	p.markRunning()
	r.Log.Info("process started", "service", spec.Name, "pid", cmd.Process.Pid)

	var readers sync.WaitGroup
	readers.Add(2)
	go r.drain(p, stdout, logger.StreamStdout, outW, &readers)
	go r.drain(p, stderr, logger.StreamStderr, errW, &readers)
	go r.reap(p, &readers)
	return p, nil
}

// drain forwards one pipe line-by-line to the sink (and the optional
// rotating file). Sequential reads preserve per-stream ordering.
func (r *Runner) drain(p *Process, pipe io.Reader, stream logger.Stream, fileW io.Writer, wg *sync.WaitGroup) {
	defer wg.Done()
	name := p.Name()
	sc := bufio.NewScanner(pipe)
	sc.Buffer(make([]byte, 64*1024), scanBuf)
	for sc.Scan() {
		line := sc.Text()
		r.Sink.Line(name, stream, line)
		if fileW != nil {
			_, _ = fileW.Write(append([]byte(line), '\n'))
		}
	}
	// Scanner errors here are pipe-closed races during shutdown; nothing to do.
}

// reap waits for both readers to hit EOF, then collects the exit status.
// It is the only caller of cmd.Wait for this process.
func (r *Runner) reap(p *Process, readers *sync.WaitGroup) {
	readers.Wait()
	err := p.cmd.Wait()
	p.markExited(err)
	p.closeWriters()
	st := p.Snapshot()
	r.Log.Debug("process reaped", "service", st.Name, "state", st.State, "exit_code", st.ExitCode)
}
