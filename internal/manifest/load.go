// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"github.com/zeebo/blake3"

	"github.com/uecfg/uecfg/internal/core/format"
)

// documentSchema validates manifest documents before they are trusted.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "target_version", "toolchain", "sdk"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "target_version": {"type": "string", "minLength": 1},
    "toolchain": {
      "type": "object",
      "required": ["required_major", "requires_components"],
      "properties": {
        "required_major": {"type": "integer", "minimum": 0},
        "min_version": {"type": "string"},
        "max_version": {"type": "string"},
        "requires_components": {"type": "array", "items": {"type": "string"}},
        "notes": {"type": "string"}
      }
    },
    "sdk": {
      "type": "object",
      "properties": {
        "minimum_version": {"type": "string"},
        "preferred_versions": {"type": "array", "items": {"type": "string"}},
        "notes": {"type": "string"}
      }
    },
    "extras": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "required": {"type": "boolean"},
          "package_id": {"type": "string"},
          "min_version": {"type": "string"},
          "notes": {"type": "string"}
        }
      }
    },
    "secondary_agent": {
      "type": "object",
      "properties": {
        "recommended": {"type": "boolean"},
        "notes": {"type": "string"}
      }
    },
    "notes": {"type": "string"}
  }
}`

// Available maps manifest ids to their paths within the catalog directory.
// The catalog itself is JSON-only; YAML documents are accepted via explicit
// --manifest paths.
func Available(catalogDir string) map[string]string {
	out := map[string]string{}
	entries, err := os.ReadDir(catalogDir)
	if err != nil {
		return out
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "ue_") || !format.IsJSONFile(name) {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		out[id] = filepath.Join(catalogDir, name)
	}
	return out
}

func availableIDs(catalogDir string) []string {
	ids := make([]string, 0)
	for id := range Available(catalogDir) {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// fingerprint hashes the canonical document bytes.
func fingerprint(canonical []byte) string {
	sum := blake3.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

func validateDocument(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(documentSchema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("error validating manifest: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("manifest is not valid: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// LoadPath loads, validates, and fingerprints one manifest document. JSON is
// the catalog convention, but YAML documents are accepted too: both are
// canonicalized to key-sorted JSON before schema validation and hashing, so
// the fingerprint depends only on the document's content, never its format.
func LoadPath(path string) (*Manifest, error) {
	var payload map[string]interface{}
	if err := format.ParseFile(path, &payload); err != nil {
		return nil, fmt.Errorf("error reading manifest %s: %w", path, err)
	}
	canonical, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error canonicalizing manifest %s: %w", path, err)
	}
	if err := validateDocument(canonical); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(canonical, m); err != nil {
		return nil, fmt.Errorf("error parsing manifest %s: %w", path, err)
	}
	if m.ID == "" {
		m.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for name, req := range m.Extras {
		req.Name = name
		m.Extras[name] = req
	}
	m.Fingerprint = fingerprint(canonical)
	m.Path = path
	return m, nil
}

// normalizeVersion splits MAJOR.MINOR[.PATCH] into its minor key and the
// optional patch component. Whitespace is tolerated; anything else fails.
func normalizeVersion(raw string) (minorKey, patch string, err error) {
	trimmed := strings.TrimSpace(raw)
	parts := strings.Split(trimmed, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", fmt.Errorf("version %q must be MAJOR.MINOR or MAJOR.MINOR.PATCH", raw)
	}
	for _, part := range parts {
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			return "", "", fmt.Errorf("version %q contains a non-numeric component", raw)
		}
	}
	minorKey = parts[0] + "." + parts[1]
	if len(parts) == 3 {
		patch = parts[2]
	}
	return minorKey, patch, nil
}

// Resolve resolves a manifest request. Precedence: explicit id, explicit
// version, version auto-detected from the engine root. When nothing resolves
// the caller proceeds in unconstrained mode; this is not an error.
func Resolve(catalogDir, explicitID, explicitVersion, engineRoot string) Resolution {
	if explicitID != "" {
		return resolveByID(catalogDir, explicitID)
	}

	requested := strings.TrimSpace(explicitVersion)
	detected := ""
	if requested == "" && engineRoot != "" {
		detected = DetectEngineVersion(engineRoot)
	}
	version := requested
	if version == "" {
		version = detected
	}
	if version == "" {
		return Resolution{FailureReason: noManifestReason(catalogDir, "no version requested or detected")}
	}

	res := resolveByVersion(catalogDir, version)
	res.RequestedVersion = requested
	res.DetectedVersion = detected
	return res
}

func resolveByID(catalogDir, id string) Resolution {
	trimmed := strings.TrimSuffix(strings.TrimSpace(id), ".json")
	// An id may also be a direct path to a document outside the catalog.
	for _, candidate := range []string{id, trimmed + ".json", filepath.Join(catalogDir, trimmed+".json")} {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		m, err := LoadPath(candidate)
		if err != nil {
			return Resolution{FailureReason: err.Error()}
		}
		return Resolution{Manifest: m, Source: candidate, ResolvedVersion: m.TargetVersion}
	}
	return Resolution{FailureReason: noManifestReason(catalogDir, fmt.Sprintf("manifest %q not found", id))}
}

func resolveByVersion(catalogDir, version string) Resolution {
	minorKey, patch, err := normalizeVersion(version)
	if err != nil {
		return Resolution{FailureReason: noManifestReason(catalogDir, err.Error())}
	}

	catalog := Available(catalogDir)
	note := ""
	path, ok := "", false
	if patch != "" {
		// Manifests are authored per minor release; a patch-specific document
		// is the exception, so fall back to the minor manifest when absent.
		if path, ok = catalog["ue_"+minorKey+"."+patch]; !ok {
			if path, ok = catalog["ue_"+minorKey]; ok {
				note = fmt.Sprintf("requested %s; resolved to minor-version manifest ue_%s", version, minorKey)
			}
		}
	} else {
		path, ok = catalog["ue_"+minorKey]
	}
	if !ok {
		return Resolution{FailureReason: noManifestReason(catalogDir, fmt.Sprintf("no manifest for engine version %s", version))}
	}

	m, err := LoadPath(path)
	if err != nil {
		return Resolution{FailureReason: err.Error()}
	}
	return Resolution{Manifest: m, Source: path, ResolvedVersion: m.TargetVersion, Note: note}
}

func noManifestReason(catalogDir, cause string) string {
	ids := availableIDs(catalogDir)
	if len(ids) == 0 {
		return fmt.Sprintf("%s; catalog %s contains no manifests", cause, catalogDir)
	}
	return fmt.Sprintf("%s; available manifests: %s", cause, strings.Join(ids, ", "))
}
