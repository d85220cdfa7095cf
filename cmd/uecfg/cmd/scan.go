// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/uecfg/uecfg/internal/lock"
	"github.com/uecfg/uecfg/internal/probe"
	"github.com/uecfg/uecfg/internal/profile"
	"github.com/uecfg/uecfg/internal/report"
	"github.com/uecfg/uecfg/internal/version"
)

var scanPhases []int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Audit workstation readiness",
	Long: `Scan runs the readiness probes for the requested phases, scores the
results, and renders a report. Nothing on the machine is changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prof := activeProfile()
		phases := scanPhases
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

		res := resolveManifest()
		ctx := probe.NewContext(dryRun, verbose, engineRoot, prof, res.Manifest)

		scan := probe.RunScan(phases, ctx, prof)
		report.RenderConsole(os.Stdout, scan, report.ConsoleOptions{Verbose: verbose, NoColor: noColor})
		if jsonPath != "" {
			if err := report.WriteJSON(scan, jsonPath); err != nil {
				return err
			}
			fmt.Printf("JSON report saved to %s\n", jsonPath)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().IntSliceVar(&scanPhases, "phase", nil, "phases to scan (default depends on profile)")
	rootCmd.AddCommand(scanCmd)
}

// validatePhases rejects phase numbers outside the registered set.
func validatePhases(phases []int) error {
	for _, phase := range phases {
		if !probe.KnownPhase(phase) {
			return fmt.Errorf("unknown phase %d (known phases: 0-3)", phase)
		}
	}
	return nil
}

// acquireLock takes the single-instance lock, prompting interactively when
// attached to a terminal.
func acquireLock() (*lock.Lock, error) {
	return lock.Acquire(lock.Options{
		Name:        "uecfg",
		RepoRoot:    projectDir,
		Command:     os.Args,
		ToolVersion: version.Version,
		Interactive: isatty.IsTerminal(os.Stdin.Fd()),
		Logf: func(format string, args ...interface{}) {
			if verbose {
				fmt.Printf(format+"\n", args...)
			}
		},
	})
}

// reportsDir resolves the reports directory relative to the project.
func reportsDir() string {
	if filepath.IsAbs(cfg.ReportsDir) {
		return cfg.ReportsDir
	}
	return filepath.Join(projectDir, cfg.ReportsDir)
}
