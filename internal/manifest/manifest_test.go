// SPDX-License-Identifier: Apache-2.0

package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uecfg/uecfg/internal/manifest"
)

const validDocument = `{
  "id": "ue_5.7",
  "target_version": "5.7",
  "toolchain": {
    "required_major": 17,
    "min_version": "17.10",
    "requires_components": ["Microsoft.VisualStudio.Workload.NativeDesktop"]
  },
  "sdk": {
    "minimum_version": "10.0.20348",
    "preferred_versions": ["10.0.22621"]
  },
  "extras": {
    "CMake": {"required": true, "package_id": "Kitware.CMake", "min_version": "3.28"}
  },
  "secondary_agent": {"recommended": true, "notes": "shared builders"}
}`

func writeCatalog(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644),
			"Error writing catalog fixture %s", name)
	}
	return dir
}

func TestLoadPath(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"ue_5.7.json": validDocument})
	m, err := manifest.LoadPath(filepath.Join(dir, "ue_5.7.json"))
	require.NoError(t, err, "A valid document should load")

	assert.Equal(t, "ue_5.7", m.ID)
	assert.Equal(t, "5.7", m.TargetVersion)
	assert.Equal(t, 17, m.Toolchain.RequiredMajor)
	assert.NotEmpty(t, m.Fingerprint, "Every loaded manifest carries a fingerprint")
	assert.Equal(t, "CMake", m.Extras["CMake"].Name, "Extras should learn their map key as name")
	require.NotNil(t, m.SecondaryAgent)
	assert.True(t, m.SecondaryAgent.Recommended)
}

func TestLoadPathRejectsInvalidDocument(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"ue_bad.json": `{"id": "ue_bad", "target_version": "5.7"}`,
	})
	_, err := manifest.LoadPath(filepath.Join(dir, "ue_bad.json"))
	require.Error(t, err, "A document missing required sections must be rejected")
	assert.Contains(t, err.Error(), "not valid")
}

func TestFingerprintIgnoresFormatting(t *testing.T) {
	reordered := `{
  "target_version": "5.7",
  "secondary_agent": {"notes": "shared builders", "recommended": true},
  "sdk": {"preferred_versions": ["10.0.22621"], "minimum_version": "10.0.20348"},
  "extras": {"CMake": {"min_version": "3.28", "package_id": "Kitware.CMake", "required": true}},
  "toolchain": {"requires_components": ["Microsoft.VisualStudio.Workload.NativeDesktop"], "min_version": "17.10", "required_major": 17},
  "id": "ue_5.7"
}`
	dir := writeCatalog(t, map[string]string{
		"a.json": validDocument,
		"b.json": reordered,
	})
	a, err := manifest.LoadPath(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	b, err := manifest.LoadPath(filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint, b.Fingerprint,
		"Key order and whitespace must not change the fingerprint")
}

func TestLoadPathAcceptsYAML(t *testing.T) {
	yamlDocument := `id: ue_5.7
target_version: "5.7"
toolchain:
  required_major: 17
  min_version: "17.10"
  requires_components:
    - Microsoft.VisualStudio.Workload.NativeDesktop
sdk:
  minimum_version: "10.0.20348"
  preferred_versions:
    - "10.0.22621"
extras:
  CMake:
    required: true
    package_id: Kitware.CMake
    min_version: "3.28"
secondary_agent:
  recommended: true
  notes: shared builders
`
	dir := writeCatalog(t, map[string]string{
		"ue_5.7.yaml": yamlDocument,
		"ue_5.7.json": validDocument,
	})

	fromYAML, err := manifest.LoadPath(filepath.Join(dir, "ue_5.7.yaml"))
	require.NoError(t, err, "A YAML document should load")
	assert.Equal(t, "ue_5.7", fromYAML.ID)
	assert.Equal(t, 17, fromYAML.Toolchain.RequiredMajor)
	assert.Equal(t, "CMake", fromYAML.Extras["CMake"].Name)

	fromJSON, err := manifest.LoadPath(filepath.Join(dir, "ue_5.7.json"))
	require.NoError(t, err)
	assert.Equal(t, fromJSON.Fingerprint, fromYAML.Fingerprint,
		"The same document must fingerprint identically in either format")
}

func TestLoadPathYAMLStillValidated(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"ue_bad.yaml": "id: ue_bad\ntarget_version: \"5.7\"\n",
	})
	_, err := manifest.LoadPath(filepath.Join(dir, "ue_bad.yaml"))
	require.Error(t, err, "Schema validation applies to YAML documents too")
	assert.Contains(t, err.Error(), "not valid")
}

func TestAvailableListsOnlyJSONCatalogEntries(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"ue_5.7.json": validDocument,
		"ue_5.6.yaml": "id: ue_5.6\n",
		"notes.txt":   "not a manifest",
	})
	catalog := manifest.Available(dir)
	assert.Contains(t, catalog, "ue_5.7")
	assert.NotContains(t, catalog, "ue_5.6", "YAML files are loadable by path but stay out of the catalog")
	assert.Len(t, catalog, 1)
}

func TestResolveByExplicitID(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"ue_5.7.json": validDocument})
	res := manifest.Resolve(dir, "ue_5.7", "", "")
	require.NotNil(t, res.Manifest, "Explicit id should resolve")
	assert.NotEmpty(t, res.Source, "A resolved manifest always names its source")
	assert.Equal(t, "5.7", res.ResolvedVersion)
}

func TestResolvePatchFallsBackToMinor(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"ue_5.7.json": validDocument})
	res := manifest.Resolve(dir, "", "5.7.2", "")
	require.NotNil(t, res.Manifest, "A patch request should fall back to the minor manifest")
	assert.Equal(t, "ue_5.7", res.Manifest.ID)
	assert.NotEmpty(t, res.Note, "Fallback resolution must carry a note")
	assert.Contains(t, res.Note, "5.7.2")
	assert.Equal(t, "5.7.2", res.RequestedVersion)
}

func TestResolveUnknownVersionListsCandidates(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"ue_5.7.json": validDocument})
	res := manifest.Resolve(dir, "", "4.27", "")
	assert.Nil(t, res.Manifest, "Unknown versions must not resolve")
	assert.Contains(t, res.FailureReason, "ue_5.7", "Failure should enumerate available manifests")
}

func TestResolveRejectsMalformedVersion(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"ue_5.7.json": validDocument})
	res := manifest.Resolve(dir, "", "5.7rc1", "")
	assert.Nil(t, res.Manifest, "Malformed versions must not resolve")
	assert.NotEmpty(t, res.FailureReason)
}

func TestResolveDetectsEngineVersion(t *testing.T) {
	catalog := writeCatalog(t, map[string]string{"ue_5.7.json": validDocument})
	engineRoot := t.TempDir()
	versionDir := filepath.Join(engineRoot, "Engine", "Build")
	require.NoError(t, os.MkdirAll(versionDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(versionDir, "Build.version"),
		[]byte(`{"MajorVersion": 5, "MinorVersion": 7, "PatchVersion": 2}`), 0644))

	res := manifest.Resolve(catalog, "", "", engineRoot)
	require.NotNil(t, res.Manifest, "Detection should resolve against the catalog")
	assert.Equal(t, "5.7.2", res.DetectedVersion)
	assert.Empty(t, res.RequestedVersion, "Nothing was explicitly requested")
}

func TestDetectEngineVersion(t *testing.T) {
	assert.Empty(t, manifest.DetectEngineVersion(""), "Empty root detects nothing")
	assert.Empty(t, manifest.DetectEngineVersion(t.TempDir()), "Missing version file detects nothing")

	engineRoot := t.TempDir()
	versionDir := filepath.Join(engineRoot, "Engine", "Build")
	require.NoError(t, os.MkdirAll(versionDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(versionDir, "Build.version"),
		[]byte(`{"MajorVersion": 5, "MinorVersion": 6, "PatchVersion": 0}`), 0644))
	assert.Equal(t, "5.6", manifest.DetectEngineVersion(engineRoot),
		"A zero patch is omitted from the detected version")
}

func TestAvailable(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"ue_5.6.json": validDocument,
		"ue_5.7.json": validDocument,
		"notes.txt":   "ignored",
	})
	available := manifest.Available(dir)
	assert.Len(t, available, 2, "Only ue_*.json files belong to the catalog")
	assert.Contains(t, available, "ue_5.6")
	assert.Contains(t, available, "ue_5.7")
}
