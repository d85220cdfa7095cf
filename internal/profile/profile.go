// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"os"
	"strings"
)

// Profile selects which phases a machine is expected to satisfy.
type Profile string

const (
	Workstation Profile = "workstation"
	Agent       Profile = "agent"
	Minimal     Profile = "minimal"
)

// Default is used when neither a flag nor UECFG_PROFILE selects a profile.
const Default = Workstation

// Mode describes how a phase applies to a profile.
type Mode string

const (
	ModeRequired      Mode = "required"
	ModeOptional      Mode = "optional"
	ModeRecommended   Mode = "recommended"
	ModeNotApplicable Mode = "na"
)

// All lists the known profiles for flag validation and help text.
func All() []Profile {
	return []Profile{Workstation, Agent, Minimal}
}

// Resolve picks a profile from an explicit value, falling back to the
// UECFG_PROFILE environment variable and then the default.
func Resolve(value string) Profile {
	raw := strings.ToLower(strings.TrimSpace(value))
	if raw == "" {
		raw = strings.ToLower(strings.TrimSpace(os.Getenv("UECFG_PROFILE")))
	}
	for _, p := range All() {
		if string(p) == raw {
			return p
		}
	}
	return Default
}

// DefaultPhases returns the phases scanned when no --phase flag is given.
func DefaultPhases(p Profile) []int {
	switch p {
	case Agent, Minimal:
		return []int{0, 1, 2, 3}
	default:
		return []int{0, 1, 2}
	}
}

// PhaseMode reports how strongly a phase applies to the profile. Phase 2 only
// applies when an engine root is known.
func PhaseMode(p Profile, phase int, hasEngineRoot bool) Mode {
	switch p {
	case Minimal:
		switch phase {
		case 0:
			return ModeRequired
		case 1:
			return ModeOptional
		default:
			return ModeNotApplicable
		}
	case Agent:
		switch phase {
		case 0, 1:
			return ModeRequired
		case 2:
			if hasEngineRoot {
				return ModeRequired
			}
			return ModeNotApplicable
		case 3:
			return ModeRecommended
		}
	}
	switch phase {
	case 0, 1, 2:
		return ModeRequired
	case 3:
		return ModeOptional
	}
	return ModeRequired
}
