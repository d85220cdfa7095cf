// SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"fmt"
	"strings"

	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/manifest"
)

// Evaluation is the compliance verdict for the toolchain section of a
// manifest.
type Evaluation struct {
	Status   check.Status
	Message  string
	Evidence []string
	// Best is the selected instance, nil when none matched the major/build
	// filter.
	Best *Instance
	// Missing lists the components the selected instance lacks. When Best is
	// nil it carries the full required set, the only knowledge available.
	Missing []string
}

type candidate struct {
	instance Instance
	version  []int
	missing  []string
}

func missingComponents(required, installed []string) []string {
	installedSet := make(map[string]struct{}, len(installed))
	for _, item := range installed {
		installedSet[strings.ToLower(item)] = struct{}{}
	}
	missing := make([]string, 0)
	for _, item := range required {
		slug := strings.TrimSpace(item)
		if slug == "" {
			continue
		}
		if _, ok := installedSet[strings.ToLower(slug)]; !ok {
			missing = append(missing, slug)
		}
	}
	return missing
}

// filterCandidates keeps instances matching the required major whose version
// is within [min, max].
func filterCandidates(instances []Instance, req manifest.ToolchainRequirement) []candidate {
	minTuple := ParseVersion(req.MinVersion)
	var maxTuple []int
	if req.MaxVersion != "" {
		maxTuple = ParseVersion(req.MaxVersion)
	}
	candidates := make([]candidate, 0, len(instances))
	for _, inst := range instances {
		version := ParseVersion(inst.Version)
		if len(version) == 0 || version[0] != req.RequiredMajor {
			continue
		}
		if req.MinVersion != "" && CompareVersions(version, minTuple) < 0 {
			continue
		}
		if maxTuple != nil && CompareVersions(version, maxTuple) > 0 {
			continue
		}
		candidates = append(candidates, candidate{
			instance: inst,
			version:  version,
			missing:  missingComponents(req.RequiresComponents, inst.Packages),
		})
	}
	return candidates
}

// selectBest picks the candidate with the fewest missing components,
// tie-broken by highest version tuple.
func selectBest(candidates []candidate) candidate {
	best := candidates[0]
	for _, cand := range candidates[1:] {
		if len(cand.missing) < len(best.missing) {
			best = cand
			continue
		}
		if len(cand.missing) == len(best.missing) && CompareVersions(cand.version, best.version) > 0 {
			best = cand
		}
	}
	return best
}

// Evaluate judges installed instances against a manifest's toolchain
// requirement.
func Evaluate(instances []Instance, req manifest.ToolchainRequirement) Evaluation {
	candidates := filterCandidates(instances, req)
	if len(candidates) == 0 {
		minLabel := req.MinVersion
		if minLabel == "" {
			minLabel = "n/a"
		}
		return Evaluation{
			Status:   check.StatusFail,
			Message:  fmt.Sprintf("no toolchain %d.x instance meets the manifest build requirements", req.RequiredMajor),
			Evidence: []string{fmt.Sprintf("found=%d; min_version=%s", len(instances), minLabel)},
			Missing:  append([]string(nil), req.RequiresComponents...),
		}
	}

	best := selectBest(candidates)
	evidence := []string{fmt.Sprintf("%s %s @ %s", best.instance.DisplayName, best.instance.Version, best.instance.InstallPath)}
	if len(best.instance.Packages) == 0 {
		// The locator gave us no inventory; absence of evidence is not proof
		// of non-compliance.
		return Evaluation{
			Status:   check.StatusWarn,
			Message:  "unable to verify toolchain components (locator returned no package list)",
			Evidence: evidence,
			Best:     &best.instance,
			Missing:  append([]string(nil), req.RequiresComponents...),
		}
	}
	if len(best.missing) == 0 {
		return Evaluation{
			Status:   check.StatusPass,
			Message:  fmt.Sprintf("toolchain %d.x build meets manifest requirements", req.RequiredMajor),
			Evidence: evidence,
			Best:     &best.instance,
		}
	}
	return Evaluation{
		Status:   check.StatusWarn,
		Message:  fmt.Sprintf("missing manifest components: %s", strings.Join(best.missing, ", ")),
		Evidence: evidence,
		Best:     &best.instance,
		Missing:  best.missing,
	}
}

// ModifyPlan is a pure judgment of whether an installer modify run is needed
// and against which instance.
type ModifyPlan struct {
	Required          bool
	Reason            string
	Instance          *Instance
	MissingComponents []string
}

// PlanModify decides whether the installer must add components to satisfy the
// manifest. When no instance passes the major/build filter there is nothing
// to modify; installation is a different remediation.
func PlanModify(instances []Instance, m *manifest.Manifest) ModifyPlan {
	if m == nil {
		return ModifyPlan{Required: false, Reason: "no manifest selected"}
	}
	if len(instances) == 0 {
		return ModifyPlan{Required: false, Reason: "toolchain not installed"}
	}
	candidates := filterCandidates(instances, m.Toolchain)
	if len(candidates) == 0 {
		return ModifyPlan{Required: false, Reason: "no toolchain instance matches manifest major/build requirements"}
	}
	best := selectBest(candidates)
	if len(best.missing) == 0 {
		return ModifyPlan{Required: false, Reason: "toolchain already satisfies manifest components"}
	}
	return ModifyPlan{
		Required:          true,
		Reason:            "missing toolchain workloads/components",
		Instance:          &best.instance,
		MissingComponents: best.missing,
	}
}

// ComponentAction builds the remediation action naming the given component
// set.
func ComponentAction(components []string) check.ActionRecommendation {
	parts := []string{"vs_installer.exe", "modify", "--installPath", "<path>"}
	for _, comp := range components {
		parts = append(parts, "--add", comp)
	}
	return check.ActionRecommendation{
		ID:          "manifest.toolchain.components",
		Description: "Add missing toolchain workloads/components for the current manifest.",
		Commands:    []string{strings.Join(parts, " ")},
	}
}
