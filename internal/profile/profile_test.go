// SPDX-License-Identifier: Apache-2.0

package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uecfg/uecfg/internal/profile"
)

func TestResolve(t *testing.T) {
	t.Setenv("UECFG_PROFILE", "")

	assert.Equal(t, profile.Workstation, profile.Resolve(""), "Empty input falls back to the default")
	assert.Equal(t, profile.Agent, profile.Resolve("agent"))
	assert.Equal(t, profile.Minimal, profile.Resolve(" Minimal "), "Resolution trims and lowercases")
	assert.Equal(t, profile.Workstation, profile.Resolve("bogus"), "Unknown names fall back to the default")
}

func TestResolveHonorsEnvironment(t *testing.T) {
	t.Setenv("UECFG_PROFILE", "agent")
	assert.Equal(t, profile.Agent, profile.Resolve(""), "The environment fills in for an empty value")
	assert.Equal(t, profile.Minimal, profile.Resolve("minimal"), "An explicit value beats the environment")
}

func TestDefaultPhases(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, profile.DefaultPhases(profile.Workstation))
	assert.Equal(t, []int{0, 1, 2, 3}, profile.DefaultPhases(profile.Agent))
	assert.Equal(t, []int{0, 1, 2, 3}, profile.DefaultPhases(profile.Minimal))
}

func TestPhaseMode(t *testing.T) {
	tests := []struct {
		name          string
		profile       profile.Profile
		phase         int
		hasEngineRoot bool
		expected      profile.Mode
	}{
		{"workstation core phase", profile.Workstation, 1, false, profile.ModeRequired},
		{"workstation agent phase is optional", profile.Workstation, 3, false, profile.ModeOptional},
		{"agent needs agent phase", profile.Agent, 3, false, profile.ModeRecommended},
		{"agent engine phase without root", profile.Agent, 2, false, profile.ModeNotApplicable},
		{"agent engine phase with root", profile.Agent, 2, true, profile.ModeRequired},
		{"minimal only needs phase zero", profile.Minimal, 0, false, profile.ModeRequired},
		{"minimal toolchain is optional", profile.Minimal, 1, false, profile.ModeOptional},
		{"minimal skips engine phase", profile.Minimal, 2, true, profile.ModeNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, profile.PhaseMode(tt.profile, tt.phase, tt.hasEngineRoot))
		})
	}
}
