// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uecfg/uecfg/internal/artifact"
	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/fix"
	"github.com/uecfg/uecfg/internal/probe"
	"github.com/uecfg/uecfg/internal/setup/guard"
	"github.com/uecfg/uecfg/internal/toolchain"
)

const batchTimeout = time.Hour

// BuildSteps assembles the ordered step plan from the scan, the manifest, and
// the requested phases. Guard expressions run against the scan's check
// statuses; a guard that does not hold keeps its step out of the plan.
func BuildSteps(rt *Runtime) ([]Step, error) {
	evaluator, err := guard.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("error building guard evaluator: %w", err)
	}
	statuses := rt.Scan.StatusMap()
	planned := func(expr string) bool {
		if expr == "" {
			return true
		}
		ok, err := evaluator.Evaluate(expr, statuses)
		if err != nil {
			rt.Logger.Logf("[setup] Guard %q failed to evaluate: %v", expr, err)
			return false
		}
		return ok
	}

	opts := rt.Options
	phases := make(map[int]bool, len(opts.Phases))
	for _, phase := range opts.Phases {
		phases[phase] = true
	}

	var steps []Step
	add := func(step Step) {
		if planned(step.Guard) {
			steps = append(steps, step)
		}
	}

	if phases[0] {
		add(Step{
			ID:               "install.git",
			Title:            "Install Git",
			Phase:            0,
			RequiresAdmin:    opts.UseWinget,
			EstimatedMinutes: 3,
			Description:      "Install Git via winget (Git.Git).",
			Guard:            `checks["os.git"] != "PASS"`,
			Check: func(rt *Runtime) bool {
				return probe.CheckGitPresence(rt.Context).Status == check.StatusPass
			},
			Apply: func(rt *Runtime) StepResult {
				return applyWingetInstall(rt, "Git", "Git.Git")
			},
		})
	}

	if phases[1] {
		add(Step{
			ID:               "install.cmake_ninja",
			Title:            "Install CMake and Ninja",
			Phase:            1,
			RequiresAdmin:    opts.UseWinget,
			EstimatedMinutes: 5,
			Description:      "Install missing CMake/Ninja components with winget.",
			Guard:            `checks["toolchain.cmake"] != "PASS"`,
			Check: func(rt *Runtime) bool {
				return probe.CheckCMakeNinja(rt.Context).Status == check.StatusPass
			},
			Apply: applyToolchainExtras,
		})

		if opts.Manifest != nil {
			plan := toolchain.PlanModify(rt.Context.ToolchainInstances(), opts.Manifest)
			if plan.Required {
				add(Step{
					ID:               "toolchain.manifest",
					Title:            "Ensure toolchain components (manifest)",
					Phase:            1,
					RequiresAdmin:    true,
					EstimatedMinutes: 15,
					Description:      "Use the toolchain installer CLI to add manifest-required workloads/components.",
					Check: func(rt *Runtime) bool {
						return !toolchain.PlanModify(rt.Context.ToolchainInstances(), rt.Options.Manifest).Required
					},
					Apply: applyManifestComponents,
				})
			}
		}

		add(Step{
			ID:               "install.dotnet",
			Title:            "Install .NET SDK",
			Phase:            1,
			RequiresAdmin:    opts.UseWinget,
			EstimatedMinutes: 4,
			Description:      "Install the .NET SDK via winget.",
			Guard:            `checks["toolchain.dotnet"] != "PASS"`,
			Check: func(rt *Runtime) bool {
				return probe.CheckDotnet(rt.Context).Status == check.StatusPass
			},
			Apply: func(rt *Runtime) StepResult {
				return applyWingetInstall(rt, ".NET SDK", "Microsoft.DotNet.SDK.8")
			},
		})

		if opts.Manifest == nil {
			add(Step{
				ID:               "guidance.toolchain",
				Title:            "Toolchain components",
				Phase:            1,
				RequiresAdmin:    false,
				EstimatedMinutes: 2,
				Description:      "Review required toolchain workloads and install via the installer UI.",
				Guard:            `checks["toolchain.vs"] != "PASS" || checks["toolchain.msvc"] != "PASS" || checks["toolchain.sdk"] != "PASS"`,
				Check:            toolchainReady,
				Apply:            applyToolchainGuidance,
			})
		}
	}

	if phases[2] && opts.EngineRoot != "" {
		steps = append(steps, buildEngineSteps(rt)...)
	}

	if phases[3] && opts.IncludeAgent {
		add(Step{
			ID:               "agent.template",
			Title:            "Generate build agent configuration",
			Phase:            3,
			RequiresAdmin:    false,
			EstimatedMinutes: 1,
			Description:      "Create a starter BuildConfiguration.xml for distributed builds.",
			Guard:            `checks["agent.buildconfig"] != "PASS"`,
			Check: func(rt *Runtime) bool {
				return probe.CheckAgentBuildConfig(rt.Context).Status == check.StatusPass
			},
			Apply: applyAgentTemplate,
		})
	}

	return steps, nil
}

func applyWingetInstall(rt *Runtime, name, packageID string) StepResult {
	if !rt.Options.UseWinget {
		rt.Logger.Logf("[setup] winget disabled; skipping auto-install for %s.", name)
		return StepResult{StepBlocked, fmt.Sprintf("winget disabled for %s.", name)}
	}
	outcome := fix.InstallPackage(rt.Context, packageID, name, rt.Options.Elevated || IsElevated(rt.Context.Runner))
	logOutcome(rt, outcome)
	return mapOutcome(outcome)
}

func applyToolchainExtras(rt *Runtime) StepResult {
	if !rt.Options.UseWinget {
		rt.Logger.Log("[setup] winget disabled; skipping CMake/Ninja install.")
		return StepResult{StepBlocked, "winget disabled."}
	}
	outcome := fix.EnsureToolchainExtras(rt.Context, rt.Options.Elevated || IsElevated(rt.Context.Runner))
	logOutcome(rt, outcome)
	return mapOutcome(outcome)
}

func applyManifestComponents(rt *Runtime) StepResult {
	m := rt.Options.Manifest
	if m == nil {
		return StepResult{StepSkipped, "No manifest selected."}
	}
	outcome := fix.EnsureManifestComponents(rt.Context, m, rt.Options.CatalogDir,
		fix.ModifyOptions{Passive: rt.Options.InstallerPassive, DryRun: rt.Options.DryRun}, rt.Logger)
	logOutcome(rt, outcome)
	return mapOutcome(outcome)
}

func toolchainReady(rt *Runtime) bool {
	for _, fn := range []func(*probe.Context) check.Result{
		probe.CheckToolchainInstances,
		probe.CheckMSVCToolsets,
		probe.CheckPlatformSDK,
	} {
		if fn(rt.Context).Status != check.StatusPass {
			return false
		}
	}
	return true
}

func applyToolchainGuidance(rt *Runtime) StepResult {
	rt.Logger.Log("[setup] Toolchain workloads are incomplete.")
	rt.Logger.Log("Install the C++ desktop workload and the Windows 10/11 SDK via the installer UI.")
	rt.Logger.Log("Recommended command (elevated): vs_installer.exe modify --add Microsoft.VisualStudio.Workload.NativeDesktop")
	return StepResult{StepBlocked, "Awaiting toolchain modifications."}
}

func applyAgentTemplate(rt *Runtime) StepResult {
	target, wrote, err := fix.GenerateAgentTemplate("", rt.Options.DryRun)
	if err != nil {
		return StepResult{StepFailed, err.Error()}
	}
	if rt.Options.DryRun {
		rt.Logger.Logf("[dry-run] Would write agent template to %s", target)
		return StepResult{StepDone, "Agent template dry-run complete."}
	}
	if wrote {
		rt.Logger.Logf("[setup] Agent template written to %s", target)
	} else {
		rt.Logger.Logf("[setup] Agent template already up to date at %s", target)
	}
	return StepResult{StepDone, "Agent template generated."}
}

// buildEngineSteps assembles the engine checkout steps: tree validation,
// setup script, project file generation, prerequisite installer, and
// optionally building missing binaries.
func buildEngineSteps(rt *Runtime) []Step {
	root := rt.Options.EngineRoot
	steps := []Step{
		{
			ID:               "engine.root.validate",
			Title:            "Validate engine source tree",
			Phase:            2,
			RequiresAdmin:    false,
			EstimatedMinutes: 1,
			Description:      "Ensure Setup.bat and GenerateProjectFiles.bat exist.",
			Check: func(rt *Runtime) bool {
				return probe.CheckEngineScripts(rt.Context).Status == check.StatusPass
			},
			Apply: func(rt *Runtime) StepResult {
				return StepResult{StepBlocked, "Engine root missing required batch files. Re-sync the checkout and resume."}
			},
		},
		{
			ID:               "engine.setup",
			Title:            "Run engine Setup.bat",
			Phase:            2,
			RequiresAdmin:    false,
			EstimatedMinutes: 20,
			Description:      "Download engine prerequisites via Setup.bat.",
			Check:            stateDone("engine.setup"),
			Apply: func(rt *Runtime) StepResult {
				return runBatch(rt, filepath.Join(root, "Setup.bat"), "Setup.bat")
			},
		},
		{
			ID:               "engine.generate-project-files",
			Title:            "Generate project files",
			Phase:            2,
			RequiresAdmin:    false,
			EstimatedMinutes: 10,
			Description:      "Run GenerateProjectFiles.bat.",
			Check:            stateDone("engine.generate-project-files"),
			Apply: func(rt *Runtime) StepResult {
				return runBatch(rt, filepath.Join(root, "GenerateProjectFiles.bat"), "GenerateProjectFiles")
			},
		},
		{
			ID:               "engine.prereq",
			Title:            "Install engine prerequisites",
			Phase:            2,
			RequiresAdmin:    true,
			EstimatedMinutes: 5,
			Description:      "Run UEPrereqSetup_x64.exe from Engine/Extras/Redist.",
			Check:            stateDone("engine.prereq"),
			Apply: func(rt *Runtime) StepResult {
				installer := filepath.Join(root, "Engine", "Extras", "Redist", "en-us", "UEPrereqSetup_x64.exe")
				return runBatch(rt, installer, "Engine prerequisites installer")
			},
		},
	}
	if rt.Options.BuildEngine {
		steps = append(steps, Step{
			ID:               "engine.build-targets",
			Title:            "Build missing engine binaries",
			Phase:            2,
			RequiresAdmin:    false,
			EstimatedMinutes: 90,
			Description:      "Build engine targets whose binaries are missing.",
			Check: func(rt *Runtime) bool {
				resolver := artifact.NewResolver(rt.Options.EngineRoot, "")
				for _, res := range resolver.BuildPlan(selectedTargets(rt)) {
					if !res.Found() {
						return false
					}
				}
				return true
			},
			Apply: applyBuildTargets,
		})
	}
	return steps
}

func stateDone(stepID string) func(*Runtime) bool {
	return func(rt *Runtime) bool {
		return rt.State.IsDone(stepID)
	}
}

func runBatch(rt *Runtime, script, label string) StepResult {
	if _, err := os.Stat(script); err != nil {
		return StepResult{StepBlocked, fmt.Sprintf("%s missing.", label)}
	}
	if rt.Options.DryRun {
		rt.Logger.Logf("[dry-run] Would run %s", script)
		return StepResult{StepDone, fmt.Sprintf("%s dry-run complete.", label)}
	}
	result := rt.Context.RunCommandTimeout(batchTimeout, "cmd", "/c", script)
	if result.OK() {
		rt.Logger.Logf("[setup] %s succeeded.", label)
		return StepResult{StepDone, fmt.Sprintf("%s completed.", label)}
	}
	detail := result.Stderr
	if detail == "" {
		detail = result.Stdout
	}
	rt.Logger.Logf("[setup] %s failed: %s", label, detail)
	return StepResult{StepFailed, fmt.Sprintf("%s failed.", label)}
}

func selectedTargets(rt *Runtime) []artifact.BuildTarget {
	if len(rt.Options.BuildTargets) == 0 {
		return artifact.DefaultTargets()
	}
	return artifact.TargetsByName(rt.Options.BuildTargets)
}

func applyBuildTargets(rt *Runtime) StepResult {
	root := rt.Options.EngineRoot
	buildScript := filepath.Join(root, "Engine", "Build", "BatchFiles", "Build.bat")
	if _, err := os.Stat(buildScript); err != nil {
		return StepResult{StepBlocked, "Build.bat missing; run project file generation first."}
	}
	resolver := artifact.NewResolver(root, "")
	failures := 0
	for _, res := range resolver.BuildPlan(selectedTargets(rt)) {
		if res.Found() {
			continue
		}
		target := res.Target
		if rt.Options.DryRun {
			rt.Logger.Logf("[dry-run] Would run %s %s %s %s",
				buildScript, target.Name, target.Platform, target.Configuration)
			continue
		}
		rt.Logger.Logf("[setup] Building %s (%s %s)...", target.Name, target.Platform, target.Configuration)
		result := rt.Context.RunCommandTimeout(batchTimeout, "cmd", "/c",
			buildScript, target.Name, target.Platform, target.Configuration)
		if !result.OK() {
			failures++
			rt.Logger.Logf("[setup] Build of %s failed (exit %d).", target.Name, result.ExitCode)
		}
	}
	if failures > 0 {
		return StepResult{StepFailed, fmt.Sprintf("%d target build(s) failed.", failures)}
	}
	return StepResult{StepDone, "Engine targets built."}
}

func logOutcome(rt *Runtime, outcome fix.Outcome) {
	for _, line := range outcome.Logs {
		rt.Logger.Log(line)
	}
}

func mapOutcome(outcome fix.Outcome) StepResult {
	switch {
	case outcome.Success:
		return StepResult{StepDone, outcome.Message}
	case outcome.Blocked:
		return StepResult{StepBlocked, outcome.Message}
	default:
		return StepResult{StepFailed, outcome.Message}
	}
}
