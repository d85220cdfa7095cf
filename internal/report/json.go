// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/core/format"
	"github.com/uecfg/uecfg/internal/probe"
)

// Readiness carries the total and per-phase scores.
type Readiness struct {
	Total    float64            `json:"total"`
	PerPhase map[string]float64 `json:"perPhase"`
}

// PhaseReport is one phase's checks in declaration order.
type PhaseReport struct {
	ID     int            `json:"id"`
	Name   string         `json:"name"`
	Mode   string         `json:"mode,omitempty"`
	Checks []check.Result `json:"checks"`
}

// Document is the machine-readable scan report.
type Document struct {
	Metadata           map[string]string            `json:"metadata"`
	Readiness          Readiness                    `json:"readiness"`
	Phases             []PhaseReport                `json:"phases"`
	RecommendedActions []check.ActionRecommendation `json:"recommendedActions"`
}

// BuildDocument assembles the JSON report from a scan.
func BuildDocument(scan *probe.ScanData) Document {
	phaseScores := scan.PhaseScores()
	perPhase := make(map[string]float64, len(phaseScores))
	phases := make([]PhaseReport, 0, len(phaseScores))
	for _, phase := range scan.Phases() {
		perPhase[fmt.Sprintf("%d", phase)] = phaseScores[phase]
		phases = append(phases, PhaseReport{
			ID:     phase,
			Name:   probe.PhaseName(phase),
			Mode:   string(scan.Modes[phase]),
			Checks: scan.Results[phase],
		})
	}
	actions := CollectActions(scan)
	if actions == nil {
		actions = []check.ActionRecommendation{}
	}
	return Document{
		Metadata:           scan.Metadata,
		Readiness:          Readiness{Total: scan.TotalScore(), PerPhase: perPhase},
		Phases:             phases,
		RecommendedActions: actions,
	}
}

// WriteJSON writes the scan report to path, creating parent directories.
func WriteJSON(scan *probe.ScanData, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}
	if err := format.WriteJSON(path, BuildDocument(scan)); err != nil {
		return fmt.Errorf("error writing JSON report: %w", err)
	}
	return nil
}
