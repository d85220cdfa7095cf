// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"sort"

	"github.com/uecfg/uecfg/internal/core/check"
)

// Probe is one readiness check. Implementations must be safe to run
// concurrently with other probes sharing the same Context.
type Probe interface {
	ID() string
	Phase() int
	Run(ctx *Context) check.Result
}

type probeFunc struct {
	id    string
	phase int
	fn    func(ctx *Context) check.Result
}

func (p probeFunc) ID() string                    { return p.id }
func (p probeFunc) Phase() int                    { return p.phase }
func (p probeFunc) Run(ctx *Context) check.Result { return p.fn(ctx) }

// New wraps a check function as a Probe.
func New(id string, phase int, fn func(ctx *Context) check.Result) Probe {
	return probeFunc{id: id, phase: phase, fn: fn}
}

var phaseNames = map[int]string{
	0: "Phase 0: OS & baseline",
	1: "Phase 1: Toolchain",
	2: "Phase 2: Engine prerequisites",
	3: "Phase 3: Build agent (optional)",
}

// registry holds the declared probe order per phase; scan output preserves
// this order regardless of concurrent completion.
func registry() map[int][]Probe {
	return map[int][]Probe{
		0: {
			New("os.version", 0, CheckOSVersion),
			New("os.disk", 0, CheckDiskSpace),
			New("os.powershell", 0, CheckPowerShell),
			New("os.git", 0, CheckGitPresence),
		},
		1: {
			New("toolchain.vs", 1, CheckToolchainInstances),
			New("toolchain.msvc", 1, CheckMSVCToolsets),
			New("toolchain.sdk", 1, CheckPlatformSDK),
			New("toolchain.dotnet", 1, CheckDotnet),
			New("toolchain.cmake", 1, CheckCMakeNinja),
			New("toolchain.manifest", 1, CheckManifestCompliance),
		},
		2: {
			New("engine.root", 2, CheckEngineScripts),
			New("engine.version", 2, CheckEngineVersionFile),
			New("engine.artifacts", 2, CheckEngineArtifacts),
		},
		3: {
			New("agent.buildconfig", 3, CheckAgentBuildConfig),
			New("agent.recommended", 3, CheckAgentRecommendation),
		},
	}
}

// Phases lists the known phase numbers in order.
func Phases() []int {
	phases := make([]int, 0, len(phaseNames))
	for phase := range phaseNames {
		phases = append(phases, phase)
	}
	sort.Ints(phases)
	return phases
}

// PhaseName returns the human label for a phase.
func PhaseName(phase int) string {
	if name, ok := phaseNames[phase]; ok {
		return name
	}
	return "Unknown"
}

// KnownPhase reports whether the phase number is registered.
func KnownPhase(phase int) bool {
	_, ok := phaseNames[phase]
	return ok
}
