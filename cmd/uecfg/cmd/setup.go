// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uecfg/uecfg/internal/probe"
	"github.com/uecfg/uecfg/internal/profile"
	"github.com/uecfg/uecfg/internal/report"
	"github.com/uecfg/uecfg/internal/setup"
)

var (
	setupPhases       []int
	setupApply        bool
	setupResume       bool
	setupPlanOnly     bool
	setupIncludeAgent bool
	setupBuildEngine  bool
	setupBuildTargets []string
	setupUseWinget    bool
	setupNoWinget     bool
	setupInteractive  bool
	setupLogPath      string
	setupStatePath    string
	setupElevated     bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Apply guarded setup steps",
	Long: `Setup plans the remediation steps the current scan justifies and, with
--apply, executes them in order. Progress persists between runs; admin-only
steps trigger a single elevated relaunch that resumes where this one stopped.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().IntSliceVar(&setupPhases, "phase", nil, "phases to set up (default depends on profile)")
	setupCmd.Flags().BoolVar(&setupApply, "apply", false, "apply steps without the confirmation prompt")
	setupCmd.Flags().BoolVar(&setupResume, "resume", false, "resume from persisted step state")
	setupCmd.Flags().BoolVar(&setupPlanOnly, "plan", false, "print the step plan and exit")
	setupCmd.Flags().BoolVar(&setupIncludeAgent, "include-agent", false, "include build-agent steps (phase 3)")
	setupCmd.Flags().BoolVar(&setupBuildEngine, "build-engine", false, "build engine targets whose binaries are missing")
	setupCmd.Flags().StringSliceVar(&setupBuildTargets, "build-target", nil, "engine targets to build (default editor set)")
	setupCmd.Flags().BoolVar(&setupUseWinget, "use-winget", true, "allow winget-driven installs")
	setupCmd.Flags().BoolVar(&setupNoWinget, "no-winget", false, "disable winget-driven installs")
	setupCmd.Flags().BoolVar(&setupInteractive, "installer-interactive", false, "run the toolchain installer with its UI instead of passive mode")
	setupCmd.Flags().StringVar(&setupLogPath, "log", "", "setup run log path (default reports/uecfg_setup.log)")
	setupCmd.Flags().StringVar(&setupStatePath, "state", "", "setup state path (default .uecfg_state.json)")
	setupCmd.Flags().BoolVar(&setupElevated, "elevated", false, "internal: marks an elevated relaunch")
	_ = setupCmd.Flags().MarkHidden("elevated")
	_ = setupCmd.Flags().MarkHidden("state")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	prof := activeProfile()
	phases := setupPhases
	if len(phases) == 0 {
		phases = profile.DefaultPhases(prof)
	}
	if err := validatePhases(phases); err != nil {
		return err
	}

	held, err := acquireLock()
	if err != nil {
		return err
	}
	defer held.Release()

	logPath := setupLogPath
	if logPath == "" {
		logPath = filepath.Join(reportsDir(), "uecfg_setup.log")
	}
	statePath := setupStatePath
	if statePath == "" {
		statePath = filepath.Join(projectDir, setup.DefaultStatePath)
	}

	logger, err := setup.NewLogger(logPath)
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.Logf("[setup] Log file: %s", logPath)

	if setupElevated {
		logger.Log("[setup] Elevated session confirmed. Continuing setup...")
	}

	res := resolveManifest()
	if res.Manifest != nil {
		source := res.Source
		if source == "" {
			source = "default"
		}
		logger.Logf("[setup] Using manifest %s (fingerprint %.12s) from %s",
			res.Manifest.Describe(), res.Manifest.Fingerprint, source)
	} else if engineVersion != "" {
		logger.Logf("[setup] Requested engine version %s but no manifest file was resolved.", engineVersion)
	}

	opts := &setup.Options{
		Phases:           phases,
		Apply:            setupApply,
		Resume:           setupResume,
		PlanOnly:         setupPlanOnly,
		IncludeAgent:     setupIncludeAgent,
		BuildEngine:      setupBuildEngine,
		BuildTargets:     setupBuildTargets,
		UseWinget:        setupUseWinget && !setupNoWinget,
		EngineRoot:       engineRoot,
		DryRun:           dryRun,
		Verbose:          verbose,
		NoColor:          noColor,
		JSONPath:         jsonPath,
		LogPath:          logPath,
		StatePath:        statePath,
		Elevated:         setupElevated,
		InstallerPassive: !setupInteractive,
		Profile:          prof,
		Manifest:         res.Manifest,
		ManifestSource:   res.Source,
		EngineVersion:    engineVersion,
		ManifestArg:      manifestArg,
		ProjectDir:       projectDir,
		CatalogDir:       catalogDir(),
	}
	if held.ReadOnly() {
		logger.Log("[setup] Running without the instance lock: plan only, no changes will be applied.")
		opts.PlanOnly = true
	}

	state := setup.NewState()
	if opts.Resume {
		state = setup.LoadState(statePath)
	}

	ctx := probe.NewContext(opts.DryRun, opts.Verbose, opts.EngineRoot, prof, opts.Manifest)
	logger.Log("[setup] Running initial readiness scan...")
	scan := probe.RunScan(phases, ctx, prof)

	rt := &setup.Runtime{Options: opts, Logger: logger, Context: ctx, Scan: scan, State: state}
	steps, err := setup.BuildSteps(rt)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		logger.Log("[setup] Nothing to do. System already satisfies requested phases.")
	}

	setup.PrintPlan(rt, steps)
	if opts.PlanOnly {
		return nil
	}

	if !opts.Apply {
		if !promptYesNo("Proceed with the above steps?", true) {
			logger.Log("[setup] Setup aborted by user.")
			return fmt.Errorf("setup aborted by user")
		}
		opts.Apply = true
	}

	statuses, relaunch := setup.ExecuteSteps(rt, steps)
	if relaunch != nil {
		logger.Log("[setup] Administrative rights are required. Launching elevated command:")
		logger.Logf("  uecfg %s", strings.Join(relaunch.Args, " "))
		logger.Log("[setup] A new elevated window will continue the setup. You can close this window.")
		if err := setup.Relaunch(ctx.Runner, relaunch); err != nil {
			logger.Logf("[setup] %v", err)
			return err
		}
		return nil
	}

	done, blocked, failed := 0, 0, 0
	for _, status := range statuses {
		switch status {
		case setup.StepDone:
			done++
		case setup.StepBlocked:
			blocked++
		case setup.StepFailed:
			failed++
		}
	}
	logger.Logf("[setup] Steps finished: %d done, %d blocked, %d failed.", done, blocked, failed)

	rt.RefreshScan()
	report.RenderConsole(os.Stdout, rt.Scan, report.ConsoleOptions{Verbose: verbose, NoColor: noColor})
	if jsonPath != "" {
		if err := report.WriteJSON(rt.Scan, jsonPath); err != nil {
			return err
		}
		logger.Logf("[setup] JSON report saved to %s", jsonPath)
	}
	return nil
}

func promptYesNo(prompt string, def bool) bool {
	suffix := "Y/n"
	if !def {
		suffix = "y/N"
	}
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s [%s] ", prompt, suffix)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return def
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}
