// SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/uecfg/uecfg/internal/run"
)

// Instance is one installed toolchain installation as reported by the
// locator (vswhere).
type Instance struct {
	DisplayName string
	InstallPath string
	Version     string
	ProductID   string
	// Packages is the installed component inventory. The locator can
	// legitimately return an empty list; evaluation treats that as missing
	// evidence rather than missing components.
	Packages []string
}

// locatorInstance mirrors the locator's JSON output.
type locatorInstance struct {
	DisplayName         string `json:"displayName"`
	InstallationPath    string `json:"installationPath"`
	InstallationVersion string `json:"installationVersion"`
	ProductID           string `json:"productId"`
	Packages            []struct {
		ID string `json:"id"`
	} `json:"packages"`
}

func locatorCandidates() []string {
	candidates := []string{"vswhere"}
	for _, env := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
		if root := os.Getenv(env); root != "" {
			candidates = append(candidates, filepath.Join(root, "Microsoft Visual Studio", "Installer", "vswhere.exe"))
		}
	}
	return candidates
}

// Discover queries the locator for installed toolchain instances. Locator
// failures yield an empty slice; the caller decides what absence means.
func Discover(runner *run.Runner) []Instance {
	for _, candidate := range locatorCandidates() {
		result := runner.Run(candidate, "-all", "-format", "json", "-prerelease", "-products", "*")
		if !result.OK() || result.Stdout == "" {
			continue
		}
		var parsed []locatorInstance
		if err := json.Unmarshal([]byte(result.Stdout), &parsed); err != nil {
			continue
		}
		instances := make([]Instance, 0, len(parsed))
		for _, inst := range parsed {
			packages := make([]string, 0, len(inst.Packages))
			for _, pkg := range inst.Packages {
				if pkg.ID != "" {
					packages = append(packages, pkg.ID)
				}
			}
			display := inst.DisplayName
			if display == "" {
				display = filepath.Base(inst.InstallationPath)
			}
			version := inst.InstallationVersion
			if version == "" {
				version = "unknown"
			}
			instances = append(instances, Instance{
				DisplayName: display,
				InstallPath: inst.InstallationPath,
				Version:     version,
				ProductID:   inst.ProductID,
				Packages:    packages,
			})
		}
		if len(instances) > 0 {
			return instances
		}
	}
	return nil
}
