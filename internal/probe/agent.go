// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uecfg/uecfg/internal/core/check"
)

// agentServiceName is the Windows service the distributed-build agent
// installs itself as.
const agentServiceName = "HordeAgent"

// buildConfigLocations lists where the engine's build tool reads its
// BuildConfiguration.xml, in precedence order relative to the engine root and
// the user profile.
func buildConfigLocations(engineRoot string) []string {
	var paths []string
	if engineRoot != "" {
		paths = append(paths,
			filepath.Join(engineRoot, "Engine", "Saved", "UnrealBuildTool", "BuildConfiguration.xml"))
	}
	if appData := os.Getenv("APPDATA"); appData != "" {
		paths = append(paths,
			filepath.Join(appData, "Unreal Engine", "UnrealBuildTool", "BuildConfiguration.xml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, "Documents", "Unreal Engine", "UnrealBuildTool", "BuildConfiguration.xml"))
	}
	return paths
}

// CheckAgentBuildConfig looks for a build tool configuration; agents without
// one fall back to defaults that rarely suit shared builders.
func CheckAgentBuildConfig(ctx *Context) check.Result {
	locations := buildConfigLocations(ctx.EngineRoot)
	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return check.Record("agent.buildconfig", 3, check.StatusPass,
				"Build configuration present", path, []string{path}, nil)
		}
	}
	actions := []check.ActionRecommendation{{
		ID:          "agent.buildconfig.generate",
		Description: "Generate a starter BuildConfiguration.xml.",
		Commands:    []string{"uecfg setup --phase 3 --apply --include-agent"},
	}}
	return check.Record("agent.buildconfig", 3, check.StatusWarn,
		"Build configuration not found",
		fmt.Sprintf("Checked: %s.", strings.Join(locations, "; ")),
		locations, actions)
}

// agentServiceState classifies the build-agent service from an `sc query`
// transcript.
func agentServiceState(output string) (installed, running bool, state string) {
	upper := strings.ToUpper(output)
	installed = strings.Contains(upper, "SERVICE_NAME") || strings.Contains(upper, "STATE")
	running = strings.Contains(upper, "RUNNING")
	if strings.Contains(upper, "1060") || strings.Contains(upper, "DOES NOT EXIST") {
		installed = false
		running = false
	}
	state = "unknown"
	for _, line := range splitLines(output) {
		if strings.Contains(strings.ToUpper(line), "STATE") {
			if _, value, ok := strings.Cut(line, ":"); ok {
				state = strings.TrimSpace(value)
			}
			break
		}
	}
	return installed, running, state
}

// CheckAgentRecommendation reports the distributed-build agent's service
// state when the manifest recommends one.
func CheckAgentRecommendation(ctx *Context) check.Result {
	if ctx.Manifest == nil {
		return check.Record("agent.recommended", 3, check.StatusNotApplicable,
			"No toolchain manifest selected",
			"Agent recommendations come from the resolved manifest.", nil, nil)
	}
	rec := ctx.Manifest.SecondaryAgent
	if rec == nil || !rec.Recommended {
		return check.Record("agent.recommended", 3, check.StatusNotApplicable,
			"No build agent recommended",
			fmt.Sprintf("Manifest %s does not recommend a distributed-build agent.", ctx.Manifest.ID), nil, nil)
	}

	result := ctx.RunCommandTimeout(5*time.Second, "sc", "query", agentServiceName)
	output := strings.TrimSpace(result.Stdout + "\n" + result.Stderr)
	installed, running, state := agentServiceState(output)

	details := output
	if details == "" {
		details = "Service query failed."
	}
	if rec.Notes != "" {
		details = rec.Notes + " " + details
	}
	evidence := []string{fmt.Sprintf("service=%s state=%s", agentServiceName, state)}

	if running {
		return check.Record("agent.recommended", 3, check.StatusPass,
			"Build agent running", details, evidence, nil)
	}
	var actions []check.ActionRecommendation
	summary := "Build agent not found"
	if installed {
		summary = "Build agent installed but not running"
		actions = append(actions, check.ActionRecommendation{
			ID:          "agent.start",
			Description: "Start the build agent service.",
			Commands:    []string{"sc start " + agentServiceName},
		})
	} else {
		actions = append(actions, check.ActionRecommendation{
			ID:          "agent.install",
			Description: "Install the build agent from your organization's distribution.",
			Commands:    []string{"Start-Process -Wait .\\HordeAgentInstaller.exe"},
		})
	}
	return check.Record("agent.recommended", 3, check.StatusWarn, summary, details, evidence, actions)
}
