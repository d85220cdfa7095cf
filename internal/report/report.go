// SPDX-License-Identifier: Apache-2.0

// Package report renders scan results for operators (colored console) and
// machines (JSON documents).
package report

import (
	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/probe"
)

// CollectActions gathers the recommended actions of every non-passing check,
// deduplicated by action id in scan order.
func CollectActions(scan *probe.ScanData) []check.ActionRecommendation {
	seen := make(map[string]struct{})
	var actions []check.ActionRecommendation
	for _, phase := range scan.Phases() {
		for _, result := range scan.Results[phase] {
			if result.Status == check.StatusPass || result.Status == check.StatusNotApplicable {
				continue
			}
			for _, action := range result.Actions {
				if _, ok := seen[action.ID]; ok {
					continue
				}
				seen[action.ID] = struct{}{}
				actions = append(actions, action)
			}
		}
	}
	return actions
}
