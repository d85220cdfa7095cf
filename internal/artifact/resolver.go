// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// maxCandidates bounds how many alternates a resolution reports.
	maxCandidates = 5
	// maxSearchDepth bounds the recursive fallback search below the engine
	// subtree.
	maxSearchDepth = 12
)

// Resolution is one row of a target build plan.
type Resolution struct {
	Target         BuildTarget
	Canonical      string
	Resolved       string
	FoundViaSearch bool
	Pattern        string
	Candidates     []string
}

// Found reports whether the target's binary exists on disk.
func (r Resolution) Found() bool {
	if r.Resolved == "" {
		return false
	}
	_, err := os.Stat(r.Resolved)
	return err == nil
}

// Resolver locates build artifacts under one engine root. Search hits are
// memoized to a small JSON cache so repeated invocations skip the tree walk;
// entries are invalidated lazily, only when the recorded path no longer
// exists at read time.
type Resolver struct {
	root      string
	cachePath string
	cache     map[string]map[string]string
}

// NewResolver creates a resolver for the given engine root. cachePath may be
// empty to place the cache under reports/ in the working directory.
func NewResolver(root, cachePath string) *Resolver {
	if cachePath == "" {
		cachePath = filepath.Join("reports", "uecfg_artifacts_cache.json")
	}
	r := &Resolver{root: root, cachePath: cachePath}
	r.cache = r.loadCache()
	return r
}

// Resolve locates one target: canonical path first, then the path cache,
// then a bounded recursive search.
func (r *Resolver) Resolve(target BuildTarget) Resolution {
	canonical := filepath.Join(r.root, target.BinaryRelPath())
	pattern := target.Pattern()

	if _, err := os.Stat(canonical); err == nil {
		return Resolution{
			Target:    target,
			Canonical: canonical,
			Resolved:  canonical,
			Pattern:   pattern,
		}
	}

	if cached := r.cachedPath(target); cached != "" {
		return Resolution{
			Target:         target,
			Canonical:      canonical,
			Resolved:       cached,
			FoundViaSearch: true,
			Pattern:        pattern,
		}
	}

	candidates := r.search(pattern)
	resolved := ""
	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			return r.scoreLess(candidates[i], candidates[j])
		})
		resolved = candidates[0]
		r.setCachedPath(target, resolved)
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return Resolution{
		Target:         target,
		Canonical:      canonical,
		Resolved:       resolved,
		FoundViaSearch: resolved != "",
		Pattern:        pattern,
		Candidates:     candidates,
	}
}

// BuildPlan resolves every target, one row per expected artifact.
func (r *Resolver) BuildPlan(targets []BuildTarget) []Resolution {
	plan := make([]Resolution, 0, len(targets))
	for _, target := range targets {
		plan = append(plan, r.Resolve(target))
	}
	return plan
}

func (r *Resolver) search(pattern string) []string {
	searchRoot := filepath.Join(r.root, "Engine")
	if _, err := os.Stat(searchRoot); err != nil {
		return nil
	}
	var matches []string
	_ = filepath.WalkDir(searchRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			rel, relErr := filepath.Rel(r.root, path)
			if relErr == nil && len(strings.Split(rel, string(filepath.Separator))) > maxSearchDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			matches = append(matches, path)
		}
		return nil
	})
	return matches
}

// scoreLess prefers the fewest path segments from the root, then the
// canonical binaries subdirectory, then lexicographic order.
func (r *Resolver) scoreLess(a, b string) bool {
	sa, ka := r.score(a)
	sb, kb := r.score(b)
	if sa != sb {
		return sa < sb
	}
	return ka < kb
}

func (r *Resolver) score(path string) (int, string) {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		rel = path
	}
	parts := strings.Split(strings.ToLower(rel), string(filepath.Separator))
	depth := len(parts) * 2
	canonical := false
	hasEngine, hasBinaries, hasPlatform := false, false, false
	for _, part := range parts {
		switch part {
		case "engine":
			hasEngine = true
		case "binaries":
			hasBinaries = true
		case "win64":
			hasPlatform = true
		}
	}
	canonical = hasEngine && hasBinaries && hasPlatform
	if !canonical {
		depth++
	}
	return depth, strings.ToLower(rel)
}

func (r *Resolver) rootKey() string {
	abs, err := filepath.Abs(r.root)
	if err != nil {
		abs = r.root
	}
	return strings.ToLower(filepath.Clean(abs))
}

func (r *Resolver) cachedPath(target BuildTarget) string {
	entry := r.cache[r.rootKey()][target.Name]
	if entry == "" {
		return ""
	}
	if _, err := os.Stat(entry); err != nil {
		return ""
	}
	return entry
}

func (r *Resolver) setCachedPath(target BuildTarget, path string) {
	key := r.rootKey()
	if r.cache[key] == nil {
		r.cache[key] = map[string]string{}
	}
	r.cache[key][target.Name] = path
	r.saveCache()
}

func (r *Resolver) loadCache() map[string]map[string]string {
	data, err := os.ReadFile(r.cachePath)
	if err != nil {
		return map[string]map[string]string{}
	}
	cache := map[string]map[string]string{}
	if err := json.Unmarshal(data, &cache); err != nil {
		return map[string]map[string]string{}
	}
	return cache
}

func (r *Resolver) saveCache() {
	if err := os.MkdirAll(filepath.Dir(r.cachePath), 0755); err != nil {
		return
	}
	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		return
	}
	// Cache writes are best-effort; resolution already succeeded.
	_ = os.WriteFile(r.cachePath, data, 0644)
}
