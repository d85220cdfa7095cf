// SPDX-License-Identifier: Apache-2.0

package run

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every external command unless the caller overrides it.
const DefaultTimeout = 20 * time.Second

// Result holds the captured output of one external command. A timeout or a
// missing binary is reported through ExitCode/Stderr rather than an error, so
// probes can treat every command uniformly as evidence.
type Result struct {
	Command  []string
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// OK reports whether the command ran and exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Runner executes external commands with a bounded timeout.
type Runner struct {
	Timeout time.Duration
	WorkDir string
	Env     []string
}

// NewRunner creates a runner with the given default timeout. A zero timeout
// falls back to DefaultTimeout.
func NewRunner(timeout time.Duration, workDir string) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{Timeout: timeout, WorkDir: workDir}
}

// Run executes the command with the runner's default timeout.
func (r *Runner) Run(name string, args ...string) Result {
	return r.RunTimeout(r.Timeout, name, args...)
}

// RunTimeout executes the command with an explicit timeout.
func (r *Runner) RunTimeout(timeout time.Duration, name string, args ...string) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}
	if len(r.Env) > 0 {
		cmd.Env = r.Env
	}

	err := cmd.Run()
	result := Result{
		Command: append([]string{name}, args...),
		Stdout:  strings.TrimSpace(stdout.String()),
		Stderr:  strings.TrimSpace(stderr.String()),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		if result.Stderr == "" {
			result.Stderr = "timeout"
		}
		return result
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result
		}
		// Typically exec.ErrNotFound; the command never started.
		result.ExitCode = -1
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
		return result
	}
	return result
}
