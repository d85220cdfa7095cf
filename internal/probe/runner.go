// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/profile"
)

// ScanData owns the collected results of one readiness scan.
type ScanData struct {
	Metadata map[string]string
	// Modes records how each scanned phase applies to the active profile.
	Modes   map[int]profile.Mode
	Results map[int][]check.Result
}

// PhaseScores computes the weighted score per scanned phase.
func (s *ScanData) PhaseScores() map[int]float64 {
	scores := make(map[int]float64, len(s.Results))
	for phase, results := range s.Results {
		score, _ := check.Score(results)
		scores[phase] = score
	}
	return scores
}

// TotalScore computes the weighted score across every scanned phase.
func (s *ScanData) TotalScore() float64 {
	all := make([]check.Result, 0)
	for _, results := range s.Results {
		all = append(all, results...)
	}
	score, count := check.Score(all)
	if count == 0 {
		return 0.0
	}
	return score
}

// Find returns the result with the given check id, or nil.
func (s *ScanData) Find(id string) *check.Result {
	for _, results := range s.Results {
		for i := range results {
			if results[i].ID == id {
				return &results[i]
			}
		}
	}
	return nil
}

// StatusMap flattens results into check id -> status for guard evaluation.
func (s *ScanData) StatusMap() map[string]string {
	out := make(map[string]string)
	for _, results := range s.Results {
		for _, res := range results {
			out[res.ID] = string(res.Status)
		}
	}
	return out
}

// Phases lists the scanned phases in order.
func (s *ScanData) Phases() []int {
	phases := make([]int, 0, len(s.Results))
	for phase := range s.Results {
		phases = append(phases, phase)
	}
	sort.Ints(phases)
	return phases
}

// runProbe shields the scan from a misbehaving probe: a panic becomes a
// synthetic FAIL result so one broken probe never aborts the scan.
func runProbe(p Probe, ctx *Context) (result check.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = check.Record(
				p.ID(), p.Phase(), check.StatusFail,
				"Probe crashed",
				fmt.Sprintf("%v", r),
				nil, nil,
			)
		}
	}()
	return p.Run(ctx)
}

// RunScan executes the probes for the requested phases. Probes within a
// phase run concurrently; results are joined back into declaration order so
// reports and scores are deterministic.
func RunScan(phases []int, ctx *Context, prof profile.Profile) *ScanData {
	return runScan(phases, registry(), ctx, prof)
}

// runScan is the execution core behind RunScan, taking the probe set as a
// parameter. Phases absent from the set are skipped.
func runScan(phases []int, probes map[int][]Probe, ctx *Context, prof profile.Profile) *ScanData {
	seen := make(map[int]struct{}, len(phases))
	unique := make([]int, 0, len(phases))
	for _, phase := range phases {
		if _, known := probes[phase]; !known {
			continue
		}
		if _, ok := seen[phase]; ok {
			continue
		}
		seen[phase] = struct{}{}
		unique = append(unique, phase)
	}
	sort.Ints(unique)

	results := make(map[int][]check.Result, len(unique))
	modes := make(map[int]profile.Mode, len(unique))
	for _, phase := range unique {
		declared := probes[phase]
		bucket := make([]check.Result, len(declared))
		var wg sync.WaitGroup
		for i, p := range declared {
			wg.Add(1)
			go func(idx int, pr Probe) {
				defer wg.Done()
				bucket[idx] = runProbe(pr, ctx)
			}(i, p)
		}
		wg.Wait()
		results[phase] = bucket
		modes[phase] = profile.PhaseMode(prof, phase, ctx.EngineRoot != "")
	}

	host, _ := os.Hostname()
	metadata := map[string]string{
		"host":      host,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"run_id":    uuid.NewString(),
		"profile":   string(prof),
	}
	if ctx.Manifest != nil {
		metadata["manifest"] = ctx.Manifest.ID
		metadata["manifest_fingerprint"] = ctx.Manifest.Fingerprint
	}
	return &ScanData{Metadata: metadata, Modes: modes, Results: results}
}
