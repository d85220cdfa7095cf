// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"fmt"
	"strings"

	"github.com/uecfg/uecfg/internal/manifest"
	"github.com/uecfg/uecfg/internal/probe"
	"github.com/uecfg/uecfg/internal/profile"
)

// StepStatus is one state of a step's lifecycle:
// PENDING -> RUNNING -> {DONE, SKIPPED, BLOCKED, FAILED}.
type StepStatus string

const (
	StepPending StepStatus = "PENDING"
	StepRunning StepStatus = "RUNNING"
	StepDone    StepStatus = "DONE"
	StepSkipped StepStatus = "SKIPPED"
	// StepBlocked marks a precondition shortfall (privileges, missing
	// installer, missing inputs); nothing was attempted.
	StepBlocked StepStatus = "BLOCKED"
	// StepFailed marks an attempted mutation that did not succeed.
	StepFailed StepStatus = "FAILED"
)

// StepResult is what an apply function reports back.
type StepResult struct {
	Status  StepStatus
	Message string
}

// Step is one guarded remediation. Check is cheap and read-only; Apply
// mutates the machine and is only reached when Check was false.
type Step struct {
	ID               string
	Title            string
	Phase            int
	RequiresAdmin    bool
	EstimatedMinutes int
	Description      string
	// Guard is an optional CEL expression over the scan's check statuses;
	// a step whose guard is false is never planned.
	Guard string
	Check func(*Runtime) bool
	Apply func(*Runtime) StepResult
}

// Options is the full setup invocation; ReconstructArgs must be able to
// rebuild the command line from it for an elevated relaunch.
type Options struct {
	Phases           []int
	Apply            bool
	Resume           bool
	PlanOnly         bool
	IncludeAgent     bool
	BuildEngine      bool
	BuildTargets     []string
	UseWinget        bool
	EngineRoot       string
	DryRun           bool
	Verbose          bool
	NoColor          bool
	JSONPath         string
	LogPath          string
	StatePath        string
	Elevated         bool
	InstallerPassive bool
	Profile          profile.Profile
	Manifest         *manifest.Manifest
	ManifestSource   string
	EngineVersion    string
	// ManifestArg preserves the raw --manifest value for relaunches.
	ManifestArg string
	// ProjectDir is the resolved project directory; relaunches must carry it
	// because the elevated child does not inherit this working directory.
	ProjectDir string
	CatalogDir string
}

// Runtime bundles what steps read and mutate during a run.
type Runtime struct {
	Options *Options
	Logger  *Logger
	Context *probe.Context
	Scan    *probe.ScanData
	State   *State
}

// RefreshScan re-runs the readiness scan, e.g. after applying steps.
func (rt *Runtime) RefreshScan() {
	rt.Logger.Log("Re-running readiness scan...")
	rt.Scan = probe.RunScan(rt.Options.Phases, rt.Context, rt.Options.Profile)
}

// NeedsAdmin reports whether any not-yet-done admin step would actually run,
// judged by its current check.
func NeedsAdmin(steps []Step, rt *Runtime) bool {
	for i := range steps {
		step := &steps[i]
		if !step.RequiresAdmin || rt.State.IsDone(step.ID) {
			continue
		}
		if step.Check != nil && step.Check(rt) {
			continue
		}
		return true
	}
	return false
}

// PrintPlan logs the ordered step plan.
func PrintPlan(rt *Runtime, steps []Step) {
	rt.Logger.Log("Setup plan:")
	for i, step := range steps {
		admin := ""
		if step.RequiresAdmin {
			admin = " [admin]"
		}
		rt.Logger.Logf(" %d. %s (Phase %d, ~%dm)%s: %s",
			i+1, step.Title, step.Phase, step.EstimatedMinutes, admin, step.Description)
	}
}

func progressBar(completed, total int) string {
	const width = 30
	if total == 0 {
		return "[" + strings.Repeat("-", width) + "]"
	}
	filled := width * completed / total
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat("#", filled), strings.Repeat("-", width-filled), completed, total)
}

func printProgress(rt *Runtime, steps []Step, statuses map[string]StepStatus, current string) {
	done := 0
	for _, status := range statuses {
		if status == StepDone {
			done++
		}
	}
	rt.Logger.Logf("[progress] %s", progressBar(done, len(steps)))
	if current != "" {
		rt.Logger.Logf("[progress] Running: %s", current)
	}
}

// ExecuteSteps walks the plan in order. Persisted completions short-circuit
// without re-checking; passing checks persist immediately; failures are
// recorded and the walk continues so one broken step never hides the rest.
// When an admin step would run and the process lacks elevation, no mutation
// happens and a RelaunchRequest comes back instead.
func ExecuteSteps(rt *Runtime, steps []Step) (map[string]StepStatus, *RelaunchRequest) {
	opts := rt.Options
	statuses := make(map[string]StepStatus, len(steps))

	applying := opts.Apply && !opts.PlanOnly
	if applying && !opts.DryRun && !opts.Elevated && !IsElevated(rt.Context.Runner) {
		if NeedsAdmin(steps, rt) {
			return statuses, &RelaunchRequest{
				Args:   ReconstructArgs(opts),
				Reason: "administrative rights are required for one or more pending steps",
			}
		}
	}

	for i := range steps {
		step := &steps[i]
		if rt.State.IsDone(step.ID) {
			statuses[step.ID] = StepDone
			continue
		}
		if step.Check != nil && step.Check(rt) {
			statuses[step.ID] = StepDone
			rt.State.MarkDone(step.ID)
			rt.persistState()
			continue
		}
		if !applying {
			statuses[step.ID] = StepPending
			continue
		}
		statuses[step.ID] = StepRunning
		printProgress(rt, steps, statuses, step.ID)
		result := step.Apply(rt)
		statuses[step.ID] = result.Status
		rt.Logger.Logf("[setup] Step '%s' -> %s: %s", step.Title, result.Status, result.Message)
		if result.Status == StepDone {
			rt.State.MarkDone(step.ID)
		}
		rt.persistState()
		printProgress(rt, steps, statuses, "")
	}
	return statuses, nil
}

func (rt *Runtime) persistState() {
	if err := SaveState(rt.Options.StatePath, rt.State); err != nil {
		rt.Logger.Logf("[setup] Warning: %v", err)
	}
}
