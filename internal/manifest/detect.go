// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// engineVersionFile is the engine's own version metadata, relative to the
// engine root.
var engineVersionFile = filepath.Join("Engine", "Build", "Build.version")

type buildVersion struct {
	MajorVersion *int `json:"MajorVersion"`
	MinorVersion *int `json:"MinorVersion"`
	PatchVersion *int `json:"PatchVersion"`
}

// DetectEngineVersion reads the engine version from a source tree. Returns an
// empty string when the tree or its version file is absent or unparseable;
// detection is best-effort.
func DetectEngineVersion(engineRoot string) string {
	if engineRoot == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(engineRoot, engineVersionFile))
	if err != nil {
		return ""
	}
	var bv buildVersion
	if err := json.Unmarshal(data, &bv); err != nil {
		return ""
	}
	if bv.MajorVersion == nil || bv.MinorVersion == nil {
		return ""
	}
	version := fmt.Sprintf("%d.%d", *bv.MajorVersion, *bv.MinorVersion)
	if bv.PatchVersion != nil && *bv.PatchVersion != 0 {
		version = fmt.Sprintf("%s.%d", version, *bv.PatchVersion)
	}
	return version
}
