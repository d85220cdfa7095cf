// SPDX-License-Identifier: Apache-2.0

// Package probe defines the Check contract, the probe registry, and the scan
// orchestrator that turns probes into scored readiness data.
package probe

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/uecfg/uecfg/internal/manifest"
	"github.com/uecfg/uecfg/internal/profile"
	"github.com/uecfg/uecfg/internal/run"
	"github.com/uecfg/uecfg/internal/toolchain"
)

// Context carries the ambient state probes and steps are allowed to read.
// Probes may run concurrently, so the discovery cache is the only mutable
// member and is guarded internally.
type Context struct {
	DryRun     bool
	Verbose    bool
	EngineRoot string
	WorkDir    string
	Profile    profile.Profile
	Manifest   *manifest.Manifest
	Runner     *run.Runner

	mu    sync.Mutex
	cache map[string]interface{}
}

// NewContext builds a Context with a bounded-command runner.
func NewContext(dryRun, verbose bool, engineRoot string, prof profile.Profile, m *manifest.Manifest) *Context {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}
	return &Context{
		DryRun:     dryRun,
		Verbose:    verbose,
		EngineRoot: engineRoot,
		WorkDir:    workDir,
		Profile:    prof,
		Manifest:   m,
		Runner:     run.NewRunner(run.DefaultTimeout, workDir),
		cache:      make(map[string]interface{}),
	}
}

// RunCommand executes an external command with the default timeout.
func (c *Context) RunCommand(name string, args ...string) run.Result {
	return c.Runner.Run(name, args...)
}

// RunCommandTimeout executes an external command with an explicit timeout.
func (c *Context) RunCommandTimeout(timeout time.Duration, name string, args ...string) run.Result {
	return c.Runner.RunTimeout(timeout, name, args...)
}

// Cached returns the memoized value for key, computing and storing it on the
// first call. fill runs while the lock is held so concurrent probes never
// duplicate the work; fills must not call Cached.
func (c *Context) Cached(key string, fill func() interface{}) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache[key]; ok {
		return v
	}
	v := fill()
	c.cache[key] = v
	return v
}

// ToolchainInstances discovers installed toolchain instances once per run.
func (c *Context) ToolchainInstances() []toolchain.Instance {
	v := c.Cached("toolchain.instances", func() interface{} {
		return toolchain.Discover(c.Runner)
	})
	instances, _ := v.([]toolchain.Instance)
	return instances
}

// PackageManagerAvailable reports whether winget can be invoked.
func (c *Context) PackageManagerAvailable() bool {
	v := c.Cached("winget.available", func() interface{} {
		return c.RunCommandTimeout(5*time.Second, "where", "winget").OK()
	})
	available, _ := v.(bool)
	return available
}

// DetectTool finds a tool on PATH and in common package-manager install
// roots, deduplicated in order.
func (c *Context) DetectTool(executable string) []string {
	v := c.Cached("where::"+executable, func() interface{} {
		paths := make([]string, 0, 2)
		result := c.RunCommandTimeout(5*time.Second, "where", executable)
		if result.OK() {
			for _, line := range splitLines(result.Stdout) {
				paths = append(paths, line)
			}
		}
		for _, root := range []string{
			`C:\Program Files\CMake\bin`,
			`C:\Program Files (x86)\CMake\bin`,
			`C:\ProgramData\chocolatey\bin`,
		} {
			candidate := filepath.Join(root, executable)
			if _, err := os.Stat(candidate); err == nil {
				paths = append(paths, candidate)
			}
		}
		return dedupe(paths)
	})
	paths, _ := v.([]string)
	return paths
}

func splitLines(s string) []string {
	out := make([]string, 0, 4)
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
