// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/uecfg/uecfg/internal/core/check"
)

// minFreeDiskGB is the floor below which engine syncs and builds start
// failing in practice.
const minFreeDiskGB = 200

// CheckOSVersion records the host OS identity.
func CheckOSVersion(ctx *Context) check.Result {
	if runtime.GOOS != "windows" {
		return check.Record("os.version", 0, check.StatusWarn,
			"Non-Windows host",
			fmt.Sprintf("Guarded fixes target Windows; running on %s/%s.", runtime.GOOS, runtime.GOARCH),
			[]string{runtime.GOOS}, nil)
	}
	result := ctx.RunCommandTimeout(10*time.Second, "cmd", "/c", "ver")
	if !result.OK() {
		return check.Record("os.version", 0, check.StatusWarn,
			"Unable to determine OS version", result.Stderr, nil, nil)
	}
	version := strings.TrimSpace(result.Stdout)
	return check.Record("os.version", 0, check.StatusPass,
		"Windows detected", version, []string{version}, nil)
}

// CheckDiskSpace verifies the working volume has room for an engine checkout
// and build outputs.
func CheckDiskSpace(ctx *Context) check.Result {
	result := ctx.RunCommandTimeout(15*time.Second, "powershell", "-NoProfile", "-Command",
		"(Get-PSDrive -Name (Get-Location).Drive.Name).Free")
	if !result.OK() {
		return check.Record("os.disk", 0, check.StatusWarn,
			"Unable to query free disk space", result.Stderr, nil, nil)
	}
	freeBytes, err := strconv.ParseUint(strings.TrimSpace(result.Stdout), 10, 64)
	if err != nil {
		return check.Record("os.disk", 0, check.StatusWarn,
			"Unable to parse free disk space", result.Stdout, nil, nil)
	}
	freeGB := freeBytes / (1 << 30)
	evidence := []string{fmt.Sprintf("%d GB free", freeGB)}
	if freeGB < minFreeDiskGB {
		return check.Record("os.disk", 0, check.StatusWarn,
			fmt.Sprintf("Less than %d GB free", minFreeDiskGB),
			fmt.Sprintf("%d GB free; engine source plus build outputs typically need %d GB.", freeGB, minFreeDiskGB),
			evidence, nil)
	}
	return check.Record("os.disk", 0, check.StatusPass,
		"Sufficient disk space", fmt.Sprintf("%d GB free.", freeGB), evidence, nil)
}

// CheckPowerShell verifies PowerShell is invocable; several guarded fixes
// shell out through it.
func CheckPowerShell(ctx *Context) check.Result {
	result := ctx.RunCommandTimeout(10*time.Second, "powershell", "-NoProfile", "-Command", "$PSVersionTable.PSVersion.ToString()")
	if !result.OK() {
		return check.Record("os.powershell", 0, check.StatusFail,
			"PowerShell not available",
			"PowerShell could not be invoked; elevation handoff and several probes depend on it.",
			nil, nil)
	}
	version := strings.TrimSpace(result.Stdout)
	return check.Record("os.powershell", 0, check.StatusPass,
		"PowerShell available", version, []string{version}, nil)
}

// CheckGitPresence verifies git is on PATH.
func CheckGitPresence(ctx *Context) check.Result {
	result := ctx.RunCommandTimeout(10*time.Second, "git", "--version")
	if !result.OK() {
		actions := []check.ActionRecommendation{{
			ID:          "git.install",
			Description: "Install Git via winget.",
			Commands:    []string{"winget install --id Git.Git --source winget"},
		}}
		return check.Record("os.git", 0, check.StatusFail,
			"Git not found", "git --version failed; source sync requires Git.", nil, actions)
	}
	version := strings.TrimSpace(result.Stdout)
	return check.Record("os.git", 0, check.StatusPass,
		"Git detected", version, []string{version}, nil)
}
