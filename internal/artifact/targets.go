// SPDX-License-Identifier: Apache-2.0

// Package artifact locates expected engine build outputs, tolerating drift
// from their canonical locations.
package artifact

import "path/filepath"

// BuildTarget describes one expected build output.
type BuildTarget struct {
	Name          string
	Platform      string
	Configuration string
}

// BinaryRelPath is the canonical location of the target's binary relative to
// the engine root.
func (t BuildTarget) BinaryRelPath() string {
	name := t.Name
	if t.Configuration != "" && t.Configuration != "Development" {
		name = name + "-" + t.Platform + "-" + t.Configuration
	}
	return filepath.Join("Engine", "Binaries", t.Platform, name+".exe")
}

// Pattern is the filename glob used when the canonical path misses.
func (t BuildTarget) Pattern() string {
	return t.Name + "*.exe"
}

// DefaultTargets are the editor and helper binaries a workstation needs
// before it can open projects.
func DefaultTargets() []BuildTarget {
	names := []string{"UnrealEditor", "UnrealPak", "ShaderCompileWorker", "CrashReportClient"}
	targets := make([]BuildTarget, 0, len(names))
	for _, name := range names {
		targets = append(targets, BuildTarget{Name: name, Platform: "Win64", Configuration: "Development"})
	}
	return targets
}

// TargetsByName filters the default set down to the requested names; unknown
// names become plain Win64 Development targets so operator overrides still
// resolve.
func TargetsByName(names []string) []BuildTarget {
	if len(names) == 0 {
		return DefaultTargets()
	}
	targets := make([]BuildTarget, 0, len(names))
	for _, name := range names {
		targets = append(targets, BuildTarget{Name: name, Platform: "Win64", Configuration: "Development"})
	}
	return targets
}
