// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/uecfg/uecfg/internal/artifact"
	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/manifest"
)

// engineScripts are the entry points an engine source checkout must carry.
var engineScripts = []string{"Setup.bat", "GenerateProjectFiles.bat"}

// CheckEngineScripts verifies the engine root looks like a source checkout.
func CheckEngineScripts(ctx *Context) check.Result {
	if ctx.EngineRoot == "" {
		return check.Record("engine.root", 2, check.StatusNotApplicable,
			"No engine root configured",
			"Pass --engine-root or set engine_root in the config to audit an engine checkout.",
			nil, nil)
	}
	info, err := os.Stat(ctx.EngineRoot)
	if err != nil || !info.IsDir() {
		return check.Record("engine.root", 2, check.StatusFail,
			"Engine root not found",
			fmt.Sprintf("%s is not a directory.", ctx.EngineRoot),
			[]string{ctx.EngineRoot}, nil)
	}
	var missing []string
	var found []string
	for _, script := range engineScripts {
		path := filepath.Join(ctx.EngineRoot, script)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, script)
		} else {
			found = append(found, path)
		}
	}
	if len(missing) > 0 {
		return check.Record("engine.root", 2, check.StatusFail,
			"Engine checkout incomplete",
			fmt.Sprintf("Missing: %s. The directory does not look like an engine source checkout.", strings.Join(missing, ", ")),
			found, nil)
	}
	return check.Record("engine.root", 2, check.StatusPass,
		"Engine checkout detected", strings.Join(found, "; "), found, nil)
}

// CheckEngineVersionFile reads the engine's build version file and compares it
// against the manifest target when one is selected.
func CheckEngineVersionFile(ctx *Context) check.Result {
	if ctx.EngineRoot == "" {
		return check.Record("engine.version", 2, check.StatusNotApplicable,
			"No engine root configured", "", nil, nil)
	}
	detected := manifest.DetectEngineVersion(ctx.EngineRoot)
	if detected == "" {
		return check.Record("engine.version", 2, check.StatusWarn,
			"Engine version undetermined",
			"Engine/Build/Build.version is missing or unreadable.", nil, nil)
	}
	evidence := []string{detected}
	if ctx.Manifest != nil {
		target := ctx.Manifest.TargetVersion
		if !strings.HasPrefix(detected, target) {
			return check.Record("engine.version", 2, check.StatusWarn,
				"Engine version differs from manifest",
				fmt.Sprintf("Checkout reports %s; manifest targets %s.", detected, target),
				evidence, nil)
		}
	}
	return check.Record("engine.version", 2, check.StatusPass,
		"Engine version "+detected, "Read from Engine/Build/Build.version.", evidence, nil)
}

// CheckEngineArtifacts resolves the expected build outputs under the engine
// root. Missing editor binaries usually just mean the engine has not been
// built yet, so this degrades to WARN rather than FAIL.
func CheckEngineArtifacts(ctx *Context) check.Result {
	if ctx.EngineRoot == "" {
		return check.Record("engine.artifacts", 2, check.StatusNotApplicable,
			"No engine root configured", "", nil, nil)
	}
	resolver := artifact.NewResolver(ctx.EngineRoot, "")
	var missing []string
	var evidence []string
	for _, target := range artifact.DefaultTargets() {
		res := resolver.Resolve(target)
		if res.Found() {
			evidence = append(evidence, res.Resolved)
		} else {
			missing = append(missing, target.Name)
		}
	}
	if len(missing) > 0 {
		actions := []check.ActionRecommendation{{
			ID:          "engine.build",
			Description: "Build the engine targets from the checkout.",
			Commands:    []string{"uecfg setup --phase 2 --apply --build-engine"},
		}}
		return check.Record("engine.artifacts", 2, check.StatusWarn,
			"Engine binaries missing",
			fmt.Sprintf("Not found: %s. Build the engine or point at a built checkout.", strings.Join(missing, ", ")),
			evidence, actions)
	}
	return check.Record("engine.artifacts", 2, check.StatusPass,
		"Engine binaries present", strings.Join(evidence, "; "), evidence, nil)
}
