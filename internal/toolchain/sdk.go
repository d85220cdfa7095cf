// SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/uecfg/uecfg/internal/manifest"
)

// sdkComponentPrefix is the installer package family for platform SDK builds.
const sdkComponentPrefix = "Microsoft.VisualStudio.Component.Windows10SDK."

// ErrNoSDKCandidates is returned when the requirement gives the resolver
// nothing to compute a package id from. The system never guesses an installer
// package id.
var ErrNoSDKCandidates = errors.New("sdk requirement names no preferred versions and no minimum version")

// SDKResolution is the outcome of picking an installable SDK package.
type SDKResolution struct {
	// ComponentID is the installer package id to request; empty only on
	// failure.
	ComponentID string
	// Version is the SDK version the id was derived from.
	Version string
	// FromFallback is true when the exact preferred build was unavailable
	// and a ranked fallback was chosen instead.
	FromFallback bool
}

// sdkBuildNumber extracts the build segment used in installer package ids:
// "10.0.22621" -> "22621", "22621" -> "22621".
func sdkBuildNumber(version string) string {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) >= 3 {
		return parts[2]
	}
	return parts[len(parts)-1]
}

// SDKComponentID maps an SDK version to its installer package id.
func SDKComponentID(version string) string {
	build := sdkBuildNumber(version)
	if build == "" {
		return ""
	}
	return sdkComponentPrefix + build
}

// ResolveSDKComponent picks the SDK package to install. It prefers the ranked
// candidates in order, accepting the first one the installer catalog offers;
// with no preferred versions it derives a candidate from the minimum version.
// offered reports whether the installer catalog carries a package id.
func ResolveSDKComponent(req manifest.SDKRequirement, offered func(componentID string) bool) (SDKResolution, error) {
	versions := append([]string(nil), req.PreferredVersions...)
	if len(versions) == 0 && req.MinimumVersion != "" {
		versions = append(versions, req.MinimumVersion)
	}
	if len(versions) == 0 {
		return SDKResolution{}, ErrNoSDKCandidates
	}

	for idx, version := range versions {
		id := SDKComponentID(version)
		if id == "" {
			continue
		}
		if offered == nil || offered(id) {
			return SDKResolution{ComponentID: id, Version: version, FromFallback: idx > 0}, nil
		}
	}
	return SDKResolution{}, fmt.Errorf("no sdk candidate among %s is offered by the installer catalog", strings.Join(versions, ", "))
}

// SDKSatisfied reports whether any installed SDK version meets the
// requirement: membership in the preferred list, else >= the minimum.
func SDKSatisfied(installed []string, req manifest.SDKRequirement) (bool, string) {
	preferred := make(map[string]struct{}, len(req.PreferredVersions))
	for _, v := range req.PreferredVersions {
		preferred[v] = struct{}{}
	}
	for _, v := range installed {
		if _, ok := preferred[v]; ok {
			return true, v
		}
	}
	if req.MinimumVersion != "" {
		minTuple := ParseVersion(req.MinimumVersion)
		for _, v := range installed {
			if CompareVersions(ParseVersion(v), minTuple) >= 0 {
				return true, v
			}
		}
	}
	return false, ""
}
