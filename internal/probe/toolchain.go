// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/manifest"
	"github.com/uecfg/uecfg/internal/toolchain"
)

// CheckToolchainInstances reports the toolchain installations found by the
// locator.
func CheckToolchainInstances(ctx *Context) check.Result {
	instances := ctx.ToolchainInstances()
	if len(instances) == 0 {
		actions := []check.ActionRecommendation{{
			ID:          "toolchain.install",
			Description: "Install Visual Studio 2022 with the C++ desktop workload.",
			Commands:    []string{"winget install --id Microsoft.VisualStudio.2022.Community --source winget"},
		}}
		return check.Record("toolchain.vs", 1, check.StatusFail,
			"Toolchain not found",
			"The locator could not find any installed toolchain instances.",
			[]string{"vswhere"}, actions)
	}
	evidence := make([]string, 0, len(instances))
	for _, inst := range instances {
		evidence = append(evidence, fmt.Sprintf("%s (%s) @ %s", inst.DisplayName, inst.Version, inst.InstallPath))
	}
	return check.Record("toolchain.vs", 1, check.StatusPass,
		fmt.Sprintf("%d toolchain instance(s) detected", len(instances)),
		strings.Join(evidence, "; "), evidence, nil)
}

// CheckMSVCToolsets scans installed instances for compiler toolset
// directories.
func CheckMSVCToolsets(ctx *Context) check.Result {
	var paths []string
	for _, inst := range ctx.ToolchainInstances() {
		root := filepath.Join(inst.InstallPath, "VC", "Tools", "MSVC")
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			bin := filepath.Join(root, entry.Name(), "bin", "Hostx64", "x64")
			if _, err := os.Stat(bin); err == nil {
				paths = append(paths, bin)
			}
		}
	}
	if len(paths) == 0 {
		actions := []check.ActionRecommendation{{
			ID:          "toolchain.modify",
			Description: "Add the C++ desktop workload to the toolchain install.",
			Commands:    []string{"vs_installer.exe modify --installPath <path> --add Microsoft.VisualStudio.Workload.NativeDesktop"},
		}}
		return check.Record("toolchain.msvc", 1, check.StatusFail,
			"Compiler toolsets missing", "No MSVC bin directories detected.", []string{"missing"}, actions)
	}
	return check.Record("toolchain.msvc", 1, check.StatusPass,
		"Compiler toolsets located", strings.Join(paths, "; "), paths, nil)
}

// sdkRegistryEntries queries the platform SDK registry hive through reg.exe,
// cached per run.
func sdkRegistryEntries(ctx *Context) []string {
	v := ctx.Cached("sdk.entries", func() interface{} {
		if runtime.GOOS != "windows" {
			return []string(nil)
		}
		var versions []string
		key := `HKLM\SOFTWARE\Microsoft\Microsoft SDKs\Windows\v10.0`
		for _, view := range [][]string{nil, {"/reg:32"}} {
			args := append([]string{"query", key, "/v", "ProductVersion"}, view...)
			result := ctx.RunCommandTimeout(10*time.Second, "reg", args...)
			if !result.OK() {
				continue
			}
			for _, line := range splitLines(result.Stdout) {
				fields := strings.Fields(line)
				if len(fields) >= 3 && fields[0] == "ProductVersion" {
					versions = append(versions, fields[2])
				}
			}
		}
		return dedupe(versions)
	})
	entries, _ := v.([]string)
	return entries
}

// CheckPlatformSDK verifies at least one platform SDK is registered.
func CheckPlatformSDK(ctx *Context) check.Result {
	if runtime.GOOS != "windows" {
		return check.Record("toolchain.sdk", 1, check.StatusWarn,
			"SDK registry unavailable",
			"Cannot inspect the platform SDK registry hive from this environment.", nil, nil)
	}
	entries := sdkRegistryEntries(ctx)
	if len(entries) == 0 {
		actions := []check.ActionRecommendation{{
			ID:          "sdk.install",
			Description: "Install the Windows 10/11 SDK via the toolchain installer.",
			Commands:    []string{"vs_installer.exe modify --add " + toolchain.SDKComponentID("10.0.22621")},
		}}
		return check.Record("toolchain.sdk", 1, check.StatusFail,
			"Platform SDK missing", "No SDK registry entries discovered.", []string{"missing"}, actions)
	}
	return check.Record("toolchain.sdk", 1, check.StatusPass,
		"Platform SDK detected", strings.Join(entries, "; "), entries, nil)
}

// CheckDotnet verifies a .NET SDK is installed; the engine's build tool
// requires one.
func CheckDotnet(ctx *Context) check.Result {
	result := ctx.RunCommandTimeout(10*time.Second, "dotnet", "--list-sdks")
	sdks := splitLines(result.Stdout)
	ctx.Cached("dotnet.sdks", func() interface{} { return sdks })
	if !result.OK() || len(sdks) == 0 {
		actions := []check.ActionRecommendation{{
			ID:          "dotnet.install",
			Description: "Install the .NET SDK.",
			Commands:    []string{"winget install --id Microsoft.DotNet.SDK.8 --source winget"},
		}}
		return check.Record("toolchain.dotnet", 1, check.StatusWarn,
			".NET SDK missing", "dotnet command missing or returned no SDKs.", nil, actions)
	}
	shown := sdks
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return check.Record("toolchain.dotnet", 1, check.StatusPass,
		".NET SDKs detected", "SDKs: "+strings.Join(shown, ", "), sdks, nil)
}

// CheckCMakeNinja looks for the optional CMake/Ninja pair.
func CheckCMakeNinja(ctx *Context) check.Result {
	cmakePaths := ctx.DetectTool("cmake.exe")
	ninjaPaths := ctx.DetectTool("ninja.exe")
	var missing []string
	if len(cmakePaths) == 0 {
		missing = append(missing, "CMake")
	}
	if len(ninjaPaths) == 0 {
		missing = append(missing, "Ninja")
	}
	var actions []check.ActionRecommendation
	if len(missing) > 0 {
		if len(cmakePaths) == 0 {
			actions = append(actions, check.ActionRecommendation{
				ID:          "cmake.install",
				Description: "Install CMake.",
				Commands:    []string{"winget install --id Kitware.CMake --source winget"},
			})
		}
		if len(ninjaPaths) == 0 {
			actions = append(actions, check.ActionRecommendation{
				ID:          "ninja.install",
				Description: "Install Ninja.",
				Commands:    []string{"winget install --id Ninja-build.Ninja --source winget"},
			})
		}
		return check.Record("toolchain.cmake", 1, check.StatusWarn,
			"CMake/Ninja missing",
			"Missing: "+strings.Join(missing, ", "),
			append(cmakePaths, ninjaPaths...), actions)
	}
	details := fmt.Sprintf("CMake: %s; Ninja: %s", cmakePaths[0], ninjaPaths[0])
	return check.Record("toolchain.cmake", 1, check.StatusPass,
		"CMake/Ninja detected", details, append(cmakePaths, ninjaPaths...), nil)
}

// checkExtraTool evaluates one supplemental tool requirement from the
// manifest.
func checkExtraTool(ctx *Context, name, minVersion string) (check.Status, string, []string) {
	executable := strings.ToLower(name)
	if !strings.HasSuffix(executable, ".exe") {
		executable += ".exe"
	}
	paths := ctx.DetectTool(executable)
	if len(paths) == 0 {
		return check.StatusFail, fmt.Sprintf("%s not detected", name), nil
	}
	if minVersion != "" {
		result := ctx.RunCommandTimeout(10*time.Second, paths[0], "--version")
		if result.OK() {
			fields := strings.Fields(result.Stdout)
			for _, field := range fields {
				if tuple := toolchain.ParseVersion(field); len(tuple) > 1 {
					if toolchain.CompareVersions(tuple, toolchain.ParseVersion(minVersion)) < 0 {
						return check.StatusFail,
							fmt.Sprintf("%s %s below required %s", name, field, minVersion), paths
					}
					break
				}
			}
		}
	}
	return check.StatusPass, fmt.Sprintf("%s detected", name), paths
}

// CheckManifestCompliance evaluates the resolved manifest against discovered
// toolchain facts. Without a manifest the check is not applicable; the scan
// degrades gracefully instead of failing.
func CheckManifestCompliance(ctx *Context) check.Result {
	m := ctx.Manifest
	if m == nil {
		actions := []check.ActionRecommendation{{
			ID:          "manifest.select",
			Description: "Audit against a specific engine release.",
			Commands:    []string{"uecfg scan --phase 1 --engine-version 5.7"},
		}}
		return check.Record("toolchain.manifest", 1, check.StatusNotApplicable,
			"No toolchain manifest selected",
			"Run with --engine-version (e.g. 5.7) or --manifest to enforce a specific toolchain.",
			nil, actions)
	}

	status := check.StatusPass
	var details []string
	evidence := []string{fmt.Sprintf("Manifest %s fingerprint %.12s", m.ID, m.Fingerprint)}
	var actions []check.ActionRecommendation

	merge := func(s check.Status, msg string, ev []string, acts []check.ActionRecommendation) {
		switch s {
		case check.StatusFail:
			status = check.StatusFail
		case check.StatusWarn:
			if status != check.StatusFail {
				status = check.StatusWarn
			}
		}
		if msg != "" && s != check.StatusPass && s != check.StatusNotApplicable {
			details = append(details, msg)
		}
		evidence = append(evidence, ev...)
		actions = append(actions, acts...)
	}

	eval := toolchain.Evaluate(ctx.ToolchainInstances(), m.Toolchain)
	var evalActions []check.ActionRecommendation
	if len(eval.Missing) > 0 {
		evalActions = append(evalActions, toolchain.ComponentAction(eval.Missing))
	}
	merge(eval.Status, eval.Message, eval.Evidence, evalActions)

	sdkVersions := sdkRegistryEntries(ctx)
	if runtime.GOOS != "windows" {
		merge(check.StatusWarn, "unable to inspect platform SDK registry on this host", nil, nil)
	} else if ok, matched := toolchain.SDKSatisfied(sdkVersions, m.SDK); ok {
		merge(check.StatusPass, "", []string{"SDK " + matched}, nil)
	} else if len(sdkVersions) == 0 {
		merge(check.StatusFail, "required platform SDK not detected", nil, []check.ActionRecommendation{{
			ID:          "manifest.sdk.install",
			Description: "Install the platform SDK required by this engine release.",
			Commands:    []string{"uecfg setup --phase 1 --apply"},
		}})
	} else {
		merge(check.StatusWarn, "platform SDK installed but not in the manifest's accepted set", sdkVersions, nil)
	}

	for _, name := range sortedExtraNames(m.Extras) {
		req := m.Extras[name]
		if !req.Required {
			continue
		}
		s, msg, paths := checkExtraTool(ctx, name, req.MinVersion)
		var acts []check.ActionRecommendation
		if s == check.StatusFail && req.PackageID != "" {
			acts = append(acts, check.ActionRecommendation{
				ID:          "manifest.install." + strings.ToLower(name),
				Description: fmt.Sprintf("Install %s via winget.", name),
				Commands:    []string{fmt.Sprintf("winget install --id %s --source winget", req.PackageID)},
			})
		}
		merge(s, msg, paths, acts)
	}

	summary := fmt.Sprintf("%s manifest compliance verified", m.Describe())
	switch status {
	case check.StatusWarn:
		summary = fmt.Sprintf("%s manifest compliance warnings", m.Describe())
	case check.StatusFail:
		summary = fmt.Sprintf("%s manifest compliance failed", m.Describe())
	}
	detailText := strings.Join(details, "; ")
	if detailText == "" {
		detailText = "No additional details."
	}
	if status != check.StatusPass {
		actions = append(actions, check.ActionRecommendation{
			ID:          "manifest.autofix",
			Description: "Apply manifest-aligned fixes.",
			Commands: []string{
				fmt.Sprintf("uecfg setup --phase 1 --dry-run --engine-version %s", m.TargetVersion),
				fmt.Sprintf("uecfg setup --phase 1 --apply --engine-version %s", m.TargetVersion),
			},
		})
	}
	return check.Record("toolchain.manifest", 1, status, summary, detailText, evidence, actions)
}

func sortedExtraNames(extras map[string]manifest.ToolRequirement) []string {
	names := make([]string, 0, len(extras))
	for name := range extras {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
