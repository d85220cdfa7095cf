// SPDX-License-Identifier: Apache-2.0

package fix

import (
	"fmt"
	"time"

	"github.com/uecfg/uecfg/internal/probe"
)

// Logger receives progress lines from fix helpers; the setup run log
// implements it.
type Logger interface {
	Log(message string)
}

// Outcome summarizes one guarded mutation attempt.
type Outcome struct {
	Success bool
	// Blocked marks preconditions that failed before anything was attempted
	// (missing installer, missing privileges); distinct from a failed attempt.
	Blocked bool
	Message string
	Logs    []string
}

func (o *Outcome) logf(format string, args ...interface{}) {
	o.Logs = append(o.Logs, fmt.Sprintf(format, args...))
}

// optionalTools are the supplemental build tools winget can provide.
var optionalTools = []struct {
	Name       string
	Executable string
	PackageID  string
}{
	{"CMake", "cmake.exe", "Kitware.CMake"},
	{"Ninja", "ninja.exe", "Ninja-build.Ninja"},
}

// InstallPackage installs one package via winget. Elevation is the caller's
// problem; without it the outcome is Blocked, never a half-attempted install.
func InstallPackage(ctx *probe.Context, packageID, name string, elevated bool) Outcome {
	out := Outcome{}
	if !ctx.PackageManagerAvailable() {
		out.Blocked = true
		out.Message = fmt.Sprintf("winget not available; %s must be installed manually.", name)
		out.logf("[uecfg] %s", out.Message)
		return out
	}
	if ctx.DryRun {
		out.Success = true
		out.Message = fmt.Sprintf("Dry-run complete for %s.", name)
		out.logf("[dry-run] Would run: winget install --id %s -e --source winget", packageID)
		return out
	}
	if !elevated {
		out.Blocked = true
		out.Message = fmt.Sprintf("Administrator privileges required to install %s.", name)
		out.logf("[uecfg] %s", out.Message)
		return out
	}

	out.logf("[uecfg] Installing %s via winget...", name)
	result := ctx.RunCommandTimeout(10*time.Minute, "winget",
		"install", "--id", packageID, "-e", "--source", "winget",
		"--accept-package-agreements", "--accept-source-agreements")
	if result.OK() {
		out.Success = true
		out.Message = fmt.Sprintf("%s installed.", name)
		out.logf("[uecfg] %s installed successfully.", name)
		return out
	}
	out.Message = fmt.Sprintf("%s installation failed.", name)
	out.logf("[uecfg] Failed to install %s (exit %d).", name, result.ExitCode)
	if detail := result.Stdout + result.Stderr; detail != "" {
		out.Logs = append(out.Logs, detail)
	}
	return out
}

// EnsureToolchainExtras installs whichever of the optional CMake/Ninja pair
// is missing.
func EnsureToolchainExtras(ctx *probe.Context, elevated bool) Outcome {
	out := Outcome{}
	var missing []int
	for i, tool := range optionalTools {
		if len(ctx.DetectTool(tool.Executable)) == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		out.Success = true
		out.Message = "All optional toolchain components (CMake/Ninja) are installed."
		out.logf("[uecfg] %s", out.Message)
		return out
	}
	if !ctx.PackageManagerAvailable() {
		out.Blocked = true
		out.Message = "winget command not found; unable to auto-install missing tools."
		out.logf("[uecfg] %s", out.Message)
		for _, i := range missing {
			tool := optionalTools[i]
			out.logf("[uecfg] Install %s manually or run 'winget install --id %s' after winget is installed.",
				tool.Name, tool.PackageID)
		}
		return out
	}

	out.Success = true
	for _, i := range missing {
		tool := optionalTools[i]
		attempt := InstallPackage(ctx, tool.PackageID, tool.Name, elevated)
		out.Logs = append(out.Logs, attempt.Logs...)
		if attempt.Blocked {
			out.Blocked = true
		}
		out.Success = out.Success && attempt.Success
	}
	out.Message = "Toolchain extras processed."
	return out
}
