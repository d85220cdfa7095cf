// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/uecfg/uecfg/internal/run"
)

// RelaunchRequest asks the caller to restart the tool with elevation. The
// pipeline never spawns the elevated process itself; returning the request
// keeps the decision (and the UI around it) with the command layer.
type RelaunchRequest struct {
	// Args is the full argument vector after the program name, reconstructing
	// the current invocation plus the elevated marker.
	Args   []string
	Reason string
}

// IsElevated reports whether the current process holds administrative rights.
// On Windows `net session` succeeds only in an elevated shell.
func IsElevated(runner *run.Runner) bool {
	if runtime.GOOS != "windows" {
		return os.Geteuid() == 0
	}
	return runner.RunTimeout(5*time.Second, "net", "session").OK()
}

// ReconstructArgs rebuilds the setup invocation so an elevated relaunch
// continues exactly where this process stopped, resuming persisted state.
func ReconstructArgs(opts *Options) []string {
	args := []string{"setup"}
	// The elevated child starts in a fresh working directory; pin every
	// cwd-derived path explicitly or its state and catalog diverge.
	if opts.ProjectDir != "" {
		args = append(args, "--project-dir", opts.ProjectDir)
	}
	for _, phase := range opts.Phases {
		args = append(args, "--phase", strconv.Itoa(phase))
	}
	// The elevated process must resume, not restart.
	args = append(args, "--resume")
	if opts.PlanOnly {
		args = append(args, "--plan")
	}
	if opts.IncludeAgent {
		args = append(args, "--include-agent")
	}
	if opts.BuildEngine {
		args = append(args, "--build-engine")
	}
	for _, target := range opts.BuildTargets {
		args = append(args, "--build-target", target)
	}
	args = append(args, "--profile", string(opts.Profile))
	if opts.ManifestArg != "" {
		args = append(args, "--manifest", opts.ManifestArg)
	} else if opts.EngineVersion != "" {
		args = append(args, "--engine-version", opts.EngineVersion)
	}
	if opts.UseWinget {
		args = append(args, "--use-winget")
	} else {
		args = append(args, "--no-winget")
	}
	if opts.EngineRoot != "" {
		args = append(args, "--engine-root", opts.EngineRoot)
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	if opts.NoColor {
		args = append(args, "--no-color")
	}
	if opts.JSONPath != "" {
		args = append(args, "--json", opts.JSONPath)
	}
	args = append(args, "--log", opts.LogPath)
	if opts.StatePath != "" {
		args = append(args, "--state", opts.StatePath)
	}
	if opts.Apply {
		args = append(args, "--apply")
	}
	if !opts.InstallerPassive {
		args = append(args, "--installer-interactive")
	}
	args = append(args, "--elevated")
	return args
}

// Relaunch starts an elevated copy of this executable with the request's
// arguments and returns once the elevated window is launched.
func Relaunch(runner *run.Runner, req *RelaunchRequest) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("error locating executable for elevation: %w", err)
	}
	if runtime.GOOS != "windows" {
		return fmt.Errorf("elevation relaunch is only supported on Windows")
	}
	quoted := make([]string, 0, len(req.Args))
	for _, arg := range req.Args {
		quoted = append(quoted, fmt.Sprintf("'%s'", strings.ReplaceAll(arg, "'", "''")))
	}
	command := fmt.Sprintf("Start-Process -FilePath '%s' -ArgumentList %s -Verb RunAs",
		executable, strings.Join(quoted, ","))
	result := runner.RunTimeout(30*time.Second, "powershell", "-NoProfile", "-Command", command)
	if !result.OK() {
		return fmt.Errorf("elevation cancelled or failed: %s", strings.TrimSpace(result.Stderr+result.Stdout))
	}
	return nil
}
