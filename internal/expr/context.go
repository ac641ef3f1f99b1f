package expr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// RuntimeContext implements ports.ExprContext against the real OS process
// environment, filesystem, and a subshell, with matrix bindings and
// post-hoc task status/output supplied per evaluation.
type RuntimeContext struct {
	matrix       map[string]string
	TaskStatuses map[string]string
	TaskOutputs  map[string]string

	mu sync.Mutex
}

// NewRuntimeContext builds a RuntimeContext bound to the given matrix variant.
func NewRuntimeContext(matrix map[string]string) *RuntimeContext {
	return &RuntimeContext{matrix: matrix}
}

// PlatformOS returns runtime.GOOS.
func (c *RuntimeContext) PlatformOS() string { return runtime.GOOS }

// ArchName returns runtime.GOARCH.
func (c *RuntimeContext) ArchName() string { return runtime.GOARCH }

// Env looks up a process environment variable.
func (c *RuntimeContext) Env(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Matrix returns the bound value for a matrix key.
func (c *RuntimeContext) Matrix(key string) (string, bool) {
	v, ok := c.matrix[key]
	return v, ok
}

// FileExists reports whether path exists on disk.
func (c *RuntimeContext) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileHash returns a hex-encoded sha256 of the file's contents.
func (c *RuntimeContext) FileHash(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is author-controlled config, not untrusted input
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileNewer reports whether a's modification time is after b's.
func (c *RuntimeContext) FileNewer(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return infoA.ModTime().After(infoB.ModTime()), nil
}

// Shell invokes cmd through the platform shell and returns trimmed stdout.
func (c *RuntimeContext) Shell(cmd string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shellCmd := shellCommand(cmd)
	out, err := exec.CommandContext(ctx, shellCmd[0], shellCmd[1:]...).Output() //nolint:gosec // user-authored expression
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func shellCommand(cmd string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd.exe", "/C", cmd}
	}
	return []string{"/bin/sh", "-c", cmd}
}

// TaskStatus returns the terminal status recorded for a previously completed task.
func (c *RuntimeContext) TaskStatus(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.TaskStatuses[name]
	return v, ok
}

// TaskOutput returns the captured output recorded for a previously completed task.
func (c *RuntimeContext) TaskOutput(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.TaskOutputs[name]
	return v, ok
}

// RecordTaskResult stores a completed task's status/output for later
// task.status()/task.output() lookups (post-hoc only, per spec.md 4.A).
func (c *RuntimeContext) RecordTaskResult(name, status, output string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TaskStatuses == nil {
		c.TaskStatuses = make(map[string]string)
	}
	if c.TaskOutputs == nil {
		c.TaskOutputs = make(map[string]string)
	}
	c.TaskStatuses[name] = status
	c.TaskOutputs[name] = output
}
