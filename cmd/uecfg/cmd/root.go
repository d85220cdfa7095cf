// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/uecfg/uecfg/internal/core/config"
	"github.com/uecfg/uecfg/internal/manifest"
	"github.com/uecfg/uecfg/internal/profile"
	"github.com/uecfg/uecfg/internal/version"
)

var (
	// Project directory
	projectDir string

	// Persistent flag values
	engineRoot    string
	manifestArg   string
	engineVersion string
	profileArg    string
	jsonPath      string
	verbose       bool
	noColor       bool
	dryRun        bool

	// Loaded configuration
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "uecfg",
	Short: "Engine Workstation Readiness Tool",
	Long: `Uecfg audits a workstation preparing to build a large engine source tree,
scores its readiness per phase, and applies guarded setup steps. Checks are
driven by versioned toolchain manifests; fixes are opt-in, resumable, and
escalate privileges only when a pending step requires them.`,
	Version: fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if projectDir == "" {
			projectDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("error getting current directory: %w", err)
			}
		} else {
			projectDir, err = filepath.Abs(projectDir)
			if err != nil {
				return fmt.Errorf("error resolving project directory: %w", err)
			}
		}

		cfg, err = config.Load(projectDir)
		if err != nil {
			fmt.Printf("Warning: Error loading configuration: %v\n", err)
			fmt.Println("Using default configuration instead.")
			cfg = config.NewDefaultConfig()
		}

		if engineRoot == "" {
			engineRoot = cfg.EngineRoot
		}
		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&engineRoot, "engine-root", "", "path to the engine source checkout")
	rootCmd.PersistentFlags().StringVar(&manifestArg, "manifest", "", "manifest id or path (overrides --engine-version)")
	rootCmd.PersistentFlags().StringVar(&engineVersion, "engine-version", "", "target engine version, e.g. 5.7 or 5.7.2")
	rootCmd.PersistentFlags().StringVar(&profileArg, "profile", "", "machine profile: workstation, agent, or minimal")
	rootCmd.PersistentFlags().StringVar(&jsonPath, "json", "", "write a JSON report to this path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print what would change without changing it")
}

// catalogDir resolves the manifest catalog relative to the project directory.
func catalogDir() string {
	if filepath.IsAbs(cfg.CatalogDir) {
		return cfg.CatalogDir
	}
	return filepath.Join(projectDir, cfg.CatalogDir)
}

// resolveManifest applies the id > version > detected precedence and logs the
// outcome.
func resolveManifest() manifest.Resolution {
	res := manifest.Resolve(catalogDir(), manifestArg, engineVersion, engineRoot)
	if res.Manifest != nil {
		if verbose {
			fmt.Printf("Using manifest %s (fingerprint %.12s) from %s\n",
				res.Manifest.Describe(), res.Manifest.Fingerprint, res.Source)
		}
		if res.Note != "" {
			fmt.Printf("Note: %s\n", res.Note)
		}
	} else if manifestArg != "" || engineVersion != "" {
		fmt.Printf("Warning: no manifest resolved (%s); continuing unconstrained.\n", res.FailureReason)
	}
	return res
}

// activeProfile resolves the profile flag, the UECFG_PROFILE environment
// variable, and the config default, in that order.
func activeProfile() profile.Profile {
	if profileArg == "" && os.Getenv("UECFG_PROFILE") == "" {
		return profile.Resolve(cfg.Profile)
	}
	return profile.Resolve(profileArg)
}
