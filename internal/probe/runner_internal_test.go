// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/profile"
)

func passing(id string, phase int, delay time.Duration) Probe {
	return New(id, phase, func(*Context) check.Result {
		time.Sleep(delay)
		return check.Record(id, phase, check.StatusPass, "ok", "", nil, nil)
	})
}

func TestRunProbePanicBecomesFailResult(t *testing.T) {
	crashing := New("os.crash", 0, func(*Context) check.Result {
		panic("unexpected nil instance")
	})
	res := runProbe(crashing, NewContext(false, false, "", profile.Workstation, nil))

	assert.Equal(t, "os.crash", res.ID)
	assert.Equal(t, 0, res.Phase)
	assert.Equal(t, check.StatusFail, res.Status, "A panic must collapse into FAIL")
	assert.Equal(t, "Probe crashed", res.Summary)
	assert.Contains(t, res.Details, "unexpected nil instance", "The panic value should survive as details")
}

func TestRunScanSurvivesPanickingProbe(t *testing.T) {
	probes := map[int][]Probe{
		0: {
			passing("os.first", 0, 0),
			New("os.crash", 0, func(*Context) check.Result { panic("boom") }),
			passing("os.last", 0, 0),
		},
	}
	ctx := NewContext(false, false, "", profile.Workstation, nil)
	data := runScan([]int{0}, probes, ctx, profile.Workstation)

	require.Len(t, data.Results[0], 3, "One crashing probe must not abort the phase")
	assert.Equal(t, check.StatusPass, data.Results[0][0].Status)
	assert.Equal(t, check.StatusFail, data.Results[0][1].Status)
	assert.Equal(t, "Probe crashed", data.Results[0][1].Summary)
	assert.Equal(t, check.StatusPass, data.Results[0][2].Status)
}

func TestRunScanJoinsInDeclarationOrder(t *testing.T) {
	// Slowest first: completion order is the reverse of declaration order.
	probes := map[int][]Probe{
		1: {
			passing("toolchain.slow", 1, 60*time.Millisecond),
			passing("toolchain.mid", 1, 30*time.Millisecond),
			passing("toolchain.fast", 1, 0),
		},
	}
	ctx := NewContext(false, false, "", profile.Workstation, nil)
	data := runScan([]int{1}, probes, ctx, profile.Workstation)

	require.Len(t, data.Results[1], 3)
	ids := []string{data.Results[1][0].ID, data.Results[1][1].ID, data.Results[1][2].ID}
	assert.Equal(t, []string{"toolchain.slow", "toolchain.mid", "toolchain.fast"}, ids,
		"Results must land in declaration order regardless of completion order")
}

func TestRunScanSkipsUnregisteredPhases(t *testing.T) {
	probes := map[int][]Probe{0: {passing("os.first", 0, 0)}}
	ctx := NewContext(false, false, "", profile.Workstation, nil)
	data := runScan([]int{0, 9, 0}, probes, ctx, profile.Workstation)

	assert.Equal(t, []int{0}, data.Phases(), "Unknown and duplicate phases are dropped")
	assert.Len(t, data.Results[0], 1)
}
