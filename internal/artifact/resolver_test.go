// SPDX-License-Identifier: Apache-2.0

package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uecfg/uecfg/internal/artifact"
)

func editorTarget() artifact.BuildTarget {
	return artifact.BuildTarget{Name: "UnrealEditor", Platform: "Win64", Configuration: "Development"}
}

func writeBinary(t *testing.T, root string, rel ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, rel...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0755))
	return path
}

func TestResolveCanonicalPathSkipsSearch(t *testing.T) {
	root := t.TempDir()
	canonical := writeBinary(t, root, "Engine", "Binaries", "Win64", "UnrealEditor.exe")

	resolver := artifact.NewResolver(root, filepath.Join(t.TempDir(), "cache.json"))
	res := resolver.Resolve(editorTarget())

	assert.Equal(t, canonical, res.Resolved, "Canonical hit should resolve directly")
	assert.False(t, res.FoundViaSearch, "Canonical hits never count as search hits")
	assert.True(t, res.Found())
}

func TestResolveSearchPrefersShallowerPaths(t *testing.T) {
	root := t.TempDir()
	deep := writeBinary(t, root, "Engine", "Saved", "Staging", "Win64", "Deep", "UnrealEditor.exe")
	shallow := writeBinary(t, root, "Engine", "Programs", "UnrealEditor.exe")
	_ = deep

	resolver := artifact.NewResolver(root, filepath.Join(t.TempDir(), "cache.json"))
	res := resolver.Resolve(editorTarget())

	assert.Equal(t, shallow, res.Resolved, "Fewest segments from root should win")
	assert.True(t, res.FoundViaSearch)
	assert.NotEmpty(t, res.Candidates)
	assert.LessOrEqual(t, len(res.Candidates), 5, "Candidate list is bounded")
}

func TestResolveMissingTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Engine"), 0755))

	resolver := artifact.NewResolver(root, filepath.Join(t.TempDir(), "cache.json"))
	res := resolver.Resolve(editorTarget())

	assert.Empty(t, res.Resolved, "Nothing to resolve in an empty tree")
	assert.False(t, res.Found())
	assert.NotEmpty(t, res.Canonical, "Canonical path is reported even when absent")
}

func TestResolveCachePersistsAcrossResolvers(t *testing.T) {
	root := t.TempDir()
	hit := writeBinary(t, root, "Engine", "Programs", "UnrealEditor.exe")
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	first := artifact.NewResolver(root, cachePath)
	res := first.Resolve(editorTarget())
	require.Equal(t, hit, res.Resolved, "Search should find the binary")

	_, err := os.Stat(cachePath)
	require.NoError(t, err, "A search hit should persist to the cache file")

	second := artifact.NewResolver(root, cachePath)
	res = second.Resolve(editorTarget())
	assert.Equal(t, hit, res.Resolved, "A fresh resolver should reuse the cached path")
	assert.True(t, res.FoundViaSearch)
}

func TestResolveCacheInvalidatesLazily(t *testing.T) {
	root := t.TempDir()
	hit := writeBinary(t, root, "Engine", "Programs", "UnrealEditor.exe")
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	first := artifact.NewResolver(root, cachePath)
	require.Equal(t, hit, first.Resolve(editorTarget()).Resolved)

	// The cached location disappears; the entry must not be trusted.
	require.NoError(t, os.Remove(hit))
	moved := writeBinary(t, root, "Engine", "Restricted", "UnrealEditor.exe")

	second := artifact.NewResolver(root, cachePath)
	res := second.Resolve(editorTarget())
	assert.Equal(t, moved, res.Resolved, "A stale cache entry should fall through to a fresh search")
}

func TestBuildPlanCoversEveryTarget(t *testing.T) {
	root := t.TempDir()
	writeBinary(t, root, "Engine", "Binaries", "Win64", "UnrealPak.exe")

	resolver := artifact.NewResolver(root, filepath.Join(t.TempDir(), "cache.json"))
	plan := resolver.BuildPlan(artifact.DefaultTargets())
	require.Len(t, plan, len(artifact.DefaultTargets()), "One row per target")

	found := 0
	for _, res := range plan {
		if res.Found() {
			found++
			assert.Equal(t, "UnrealPak", res.Target.Name)
		}
	}
	assert.Equal(t, 1, found, "Only the present binary should resolve")
}

func TestBinaryRelPath(t *testing.T) {
	dev := artifact.BuildTarget{Name: "UnrealEditor", Platform: "Win64", Configuration: "Development"}
	assert.Equal(t, filepath.Join("Engine", "Binaries", "Win64", "UnrealEditor.exe"), dev.BinaryRelPath(),
		"Development builds use the bare binary name")

	shipping := artifact.BuildTarget{Name: "UnrealPak", Platform: "Win64", Configuration: "Shipping"}
	assert.Equal(t, filepath.Join("Engine", "Binaries", "Win64", "UnrealPak-Win64-Shipping.exe"),
		shipping.BinaryRelPath(), "Non-development builds carry the platform/config suffix")
}
