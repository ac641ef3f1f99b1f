// Package shell provides a shell-based executor for running tasks.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
	"go.trai.ch/zerr"
)

// terminationGrace is the delay between sending the graceful-termination
// signal and the forcible kill, for both per-task timeouts and the shared
// run cancellation token.
const terminationGrace = 500 * time.Millisecond

// Process represents a running command.
type Process interface {
	Wait() error
	Resize(rows, cols int) error
}

type ptyProcess struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	ioDone <-chan struct{}
	exited chan struct{}
}

func (p *ptyProcess) Wait() error {
	// The pty.Start command starts the process.
	// We need to wait for it to finish.
	// Note: p.cmd.Wait() handles closing of some pipes, but for PTYs
	// we managed the ptmx.

	// Wait for the command to exit.
	err := p.cmd.Wait()
	close(p.exited)

	// Wait for the IO copy loop to finish
	<-p.ioDone

	// Close the pty master if it hasn't been closed by the loop copying data.
	// Usually we close it after the command exits so that the copy loop finishes
	// reading what's left.

	return err
}

func (p *ptyProcess) Resize(rows, cols int) error {
	if rows > math.MaxUint16 || cols > math.MaxUint16 || rows < 0 || cols < 0 {
		return errors.New("terminal size out of bounds")
	}

	return pty.Setsize(p.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
		X:    0,
		Y:    0,
	})
}

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new ShellExecutor. A logger is optional; when
// omitted, output is still captured by the caller-supplied io.Writers but
// nothing is additionally routed through structured logging.
func NewExecutor(logger ...ports.Logger) *Executor {
	var l ports.Logger = noopLogger{}
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Executor{
		logger: l,
	}
}

// noopLogger discards everything; used when Executor is constructed without
// an explicit logger (e.g. ad hoc tests).
type noopLogger struct{}

func (noopLogger) Info(string)        {}
func (noopLogger) Warn(string)        {}
func (noopLogger) Error(error)        {}
func (noopLogger) SetJSON(bool)       {}
func (noopLogger) SetOutput(io.Writer) {}

// Start launches the task's command in a PTY; there is no fallback to plain pipes.
// It returns a Process interface to control and wait for the command.
func (e *Executor) Start(
	ctx context.Context,
	task *domain.Task,
	env []string,
	stdout, stderr io.Writer,
) (Process, error) {
	// Combined writers:
	// 1. Structural Logger (info/error)
	// 2. Output Writers (Span, etc.)
	stdoutLog := &logWriter{logger: e.logger, level: "info"}
	stderrLog := &logWriter{logger: e.logger, level: "error"}

	finalStdout := io.MultiWriter(stdoutLog, stdout)
	finalStderr := io.MultiWriter(stderrLog, stderr)

	return start(ctx, task, env, finalStdout, finalStderr, stdoutLog, stderrLog)
}

func start(
	ctx context.Context,
	task *domain.Task,
	env []string,
	stdout, _ io.Writer,
	stdoutLog, stderrLog *logWriter,
) (Process, error) {
	if task.Command == "" {
		return nil, nil
	}

	// Construct the final environment
	cmdEnv := resolveEnvironment(os.Environ(), env, task.Environment)

	// The command string is passed verbatim to the platform shell (spec
	// §4.F); the core never tokenizes or interprets it.
	shellPath, shellArgs := platformShell()
	args := append(append([]string{}, shellArgs...), task.Command)

	cmd := exec.CommandContext(ctx, shellPath, args...) //nolint:gosec // user provided command, passed verbatim to shell per spec

	// Termination is driven entirely by watchCancellation's graceful-then-forceful
	// sequence below; disable exec's own immediate-kill-on-cancel default so the
	// two mechanisms don't race each other.
	cmd.Cancel = func() error { return nil }

	if task.WorkingDir.String() != "" {
		cmd.Dir = task.WorkingDir.String()
	}

	cmd.Env = cmdEnv

	// pty.Start allows running with a PTY
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to start pty")
	}

	exited := make(chan struct{})
	go watchCancellation(ctx, cmd, exited)

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		// Ensure any remaining buffered logs are flushed when IO is done
		defer func() {
			_ = stdoutLog.Close()
			_ = stderrLog.Close()
		}()

		// The PTY merges the child's stdout and stderr into one stream, which
		// is copied to stdout only; the stderr writer receives nothing.
		// We use io.Copy which creates a 32k buffer. This is efficient enough.
		// The MultiWriter will ensure it goes to both logic logger and Span.
		_, _ = io.Copy(stdout, ptmx)
	}()

	return &ptyProcess{
		cmd:    cmd,
		ptmx:   ptmx,
		ioDone: ioDone,
		exited: exited,
	}, nil
}

// watchCancellation sends the platform's graceful-termination signal as soon
// as ctx is done, then escalates to a forcible kill if the process has not
// exited within terminationGrace. It is a no-op if the process exits first.
func watchCancellation(ctx context.Context, cmd *exec.Cmd, exited <-chan struct{}) {
	select {
	case <-exited:
		return
	case <-ctx.Done():
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)

	timer := time.NewTimer(terminationGrace)
	defer timer.Stop()

	select {
	case <-exited:
	case <-timer.C:
		_ = cmd.Process.Kill()
	}
}

// Execute runs the task's command, applying its configured timeout and
// retrying on Failed/TimedOut terminals per task.Retry. Cancellation of ctx
// (the run's shared token) is never retried.
func (e *Executor) Execute(ctx context.Context, task *domain.Task, env []string, stdout, stderr io.Writer) error {
	var lastErr error

	maxAttempts := task.Retry.Max + 1
	for attempt := uint32(0); attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepOrCancel(ctx, task.Retry.Delay(attempt-1)); err != nil {
				return err
			}
		}

		err := e.executeOnce(ctx, task, env, stdout, stderr)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, domain.ErrTaskCancelled) {
			return err
		}
	}

	return lastErr
}

// executeOnce runs a single supervised attempt, bounding it by task.Timeout
// when set, and classifies the terminal as TimedOut, Cancelled, or Failed.
func (e *Executor) executeOnce(ctx context.Context, task *domain.Task, env []string, stdout, stderr io.Writer) error {
	attemptCtx := ctx
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	proc, err := e.Start(attemptCtx, task, env, stdout, stderr)
	if err != nil {
		return err
	}
	if proc == nil {
		return nil // Empty command
	}

	// Mark execution start after process has started successfully
	if span, ok := stdout.(interface{ MarkExecStart() }); ok {
		span.MarkExecStart()
	}

	waitErr := proc.Wait()
	if waitErr == nil {
		return nil
	}

	if ctx.Err() != nil {
		return zerr.With(domain.ErrTaskCancelled, "cause", waitErr.Error())
	}
	if attemptCtx.Err() != nil {
		return zerr.With(domain.ErrTaskTimedOut, "cause", waitErr.Error())
	}

	var exitCode int
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else {
		exitCode = -1
	}
	return zerr.With(zerr.Wrap(waitErr, "command failed"), "exit_code", exitCode)
}

// sleepOrCancel waits out a retry backoff delay, returning early with
// ErrTaskCancelled if the run's shared token fires first.
func sleepOrCancel(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return zerr.With(domain.ErrTaskCancelled, "cause", ctx.Err().Error())
	}
}

type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	// Scan for newlines
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		line := w.buf[:i]
		w.logLine(line)

		// Advance buffer
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := string(line)
	// PTYs may introduce \r. Remove it.
	msg = strings.TrimSuffix(msg, "\r")

	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Error(zerr.New(msg))
	}
}

// allowListedEnvVars are the system environment variables that are allowed to be
// inherited by the task. This ensures the build environment is hermetic and
// reproducible, while still allowing basic system tools to function.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment merges environment variables with the defined priority.
func resolveEnvironment(sysEnv, nixEnv []string, taskEnv map[string]string) []string {
	// 1. Start with System Environment (Allow-list only)
	envMap := filterSystemEnv(sysEnv)

	// 2. Apply Nix Environment (Prepend PATH)
	applyNixEnv(envMap, nixEnv)

	// 3. Apply Task Environment Overrides
	for k, v := range taskEnv {
		envMap[k] = v
	}

	// Convert to slice
	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	return envMap
}

func applyNixEnv(envMap map[string]string, nixEnv []string) {
	for _, entry := range nixEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if k == "PATH" {
				if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
					envMap[k] = v + string(os.PathListSeparator) + sysPath
				} else {
					envMap[k] = v
				}
			} else {
				envMap[k] = v
			}
		}
	}
}

// platformShell returns the shell executable and its "run this string"
// flags: /bin/sh -c on POSIX, cmd.exe /C on Windows (spec §4.F).
func platformShell() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd.exe", []string{"/C"}
	}
	return "/bin/sh", []string{"-c"}
}
