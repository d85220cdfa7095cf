// SPDX-License-Identifier: Apache-2.0

// Package manifest loads and resolves versioned toolchain requirement
// documents from an on-disk catalog.
package manifest

import "fmt"

// ToolRequirement describes one supplemental tool named in a manifest's
// extras map.
type ToolRequirement struct {
	Name       string `json:"-"`
	Required   bool   `json:"required"`
	PackageID  string `json:"package_id,omitempty"`
	MinVersion string `json:"min_version,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// ToolchainRequirement pins the native toolchain (Visual Studio) a target
// engine release needs.
type ToolchainRequirement struct {
	RequiredMajor      int      `json:"required_major"`
	MinVersion         string   `json:"min_version,omitempty"`
	MaxVersion         string   `json:"max_version,omitempty"`
	RequiresComponents []string `json:"requires_components"`
	Notes              string   `json:"notes,omitempty"`
}

// SDKRequirement describes the platform SDK requirement: a floor plus a
// ranked list of known-good builds.
type SDKRequirement struct {
	MinimumVersion    string   `json:"minimum_version,omitempty"`
	PreferredVersions []string `json:"preferred_versions,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// AgentRecommendation flags whether a distributed-build agent is suggested
// for this release.
type AgentRecommendation struct {
	Recommended bool   `json:"recommended"`
	Notes       string `json:"notes,omitempty"`
}

// Manifest is one versioned requirements document. It is loaded once per run
// and immutable afterward.
type Manifest struct {
	ID             string                     `json:"id"`
	TargetVersion  string                     `json:"target_version"`
	Toolchain      ToolchainRequirement       `json:"toolchain"`
	SDK            SDKRequirement             `json:"sdk"`
	Extras         map[string]ToolRequirement `json:"extras,omitempty"`
	SecondaryAgent *AgentRecommendation       `json:"secondary_agent,omitempty"`
	Notes          string                     `json:"notes,omitempty"`

	// Fingerprint is a stable content hash of the normalized source
	// document; it names generated artifacts and detects drift between runs.
	Fingerprint string `json:"-"`
	// Path is where the document was loaded from.
	Path string `json:"-"`
}

// Describe returns a short human label for logs.
func (m *Manifest) Describe() string {
	return fmt.Sprintf("%s (engine %s)", m.ID, m.TargetVersion)
}

// Resolution is the outcome of resolving a manifest request.
type Resolution struct {
	Manifest         *Manifest
	Source           string
	RequestedVersion string
	DetectedVersion  string
	ResolvedVersion  string
	// Note is set when a fallback occurred, e.g. a patch-version request
	// resolved to the enclosing minor-version manifest.
	Note string
	// FailureReason is set when nothing resolved; it enumerates the
	// available candidates for the operator.
	FailureReason string
}
