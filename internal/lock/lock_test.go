// SPDX-License-Identifier: Apache-2.0

package lock_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uecfg/uecfg/internal/lock"
)

func writeHolder(t *testing.T, dir string, meta lock.Metadata) string {
	t.Helper()
	path := filepath.Join(dir, "uecfg.lock")
	data, err := json.MarshalIndent(meta, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func liveHolder(t *testing.T, repoRoot string) lock.Metadata {
	t.Helper()
	host, err := os.Hostname()
	require.NoError(t, err)
	return lock.Metadata{
		Name:     "uecfg",
		PID:      os.Getpid(),
		Hostname: host,
		RepoRoot: repoRoot,
		Command:  []string{"uecfg", "setup", "--apply"},
	}
}

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	repo := t.TempDir()

	held, err := lock.Acquire(lock.Options{Dir: dir, RepoRoot: repo})
	require.NoError(t, err, "Error acquiring an uncontended lock")
	assert.False(t, held.ReadOnly())

	data, err := os.ReadFile(held.Path())
	require.NoError(t, err, "The lock file must exist while held")
	var meta lock.Metadata
	require.NoError(t, json.Unmarshal(data, &meta), "Lock metadata must be JSON")
	assert.Equal(t, os.Getpid(), meta.PID)
	assert.NotEmpty(t, meta.StartTime)
	assert.NotEmpty(t, meta.Hostname)

	held.Release()
	_, statErr := os.Stat(held.Path())
	assert.True(t, os.IsNotExist(statErr), "Release removes the lock file")

	held.Release() // safe to repeat
}

func TestAcquireRecoversDeadPID(t *testing.T) {
	dir := t.TempDir()
	repo := t.TempDir()
	holder := liveHolder(t, repo)
	holder.PID = 999999999
	writeHolder(t, dir, holder)

	held, err := lock.Acquire(lock.Options{Dir: dir, RepoRoot: repo})
	require.NoError(t, err, "A dead holder must be recovered automatically")
	defer held.Release()
	assert.False(t, held.ReadOnly())
}

func TestAcquireRecoversForeignHost(t *testing.T) {
	dir := t.TempDir()
	repo := t.TempDir()
	holder := liveHolder(t, repo)
	holder.Hostname = "some-other-machine"
	writeHolder(t, dir, holder)

	held, err := lock.Acquire(lock.Options{Dir: dir, RepoRoot: repo})
	require.NoError(t, err, "A foreign-host holder must be recovered automatically")
	held.Release()
}

func TestAcquireRecoversForeignRepo(t *testing.T) {
	dir := t.TempDir()
	repo := t.TempDir()
	holder := liveHolder(t, filepath.Join(t.TempDir(), "elsewhere"))
	writeHolder(t, dir, holder)

	held, err := lock.Acquire(lock.Options{Dir: dir, RepoRoot: repo})
	require.NoError(t, err, "A holder scoped to another repo must not contend")
	held.Release()
}

func TestAcquireRecoversUnreadableMetadata(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uecfg.lock"), []byte("{broken"), 0644))

	held, err := lock.Acquire(lock.Options{Dir: dir, RepoRoot: t.TempDir()})
	require.NoError(t, err, "Unreadable metadata counts as stale")
	held.Release()
}

func TestAcquireContentionNonInteractive(t *testing.T) {
	dir := t.TempDir()
	repo := t.TempDir()
	abs, err := filepath.Abs(repo)
	require.NoError(t, err)
	writeHolder(t, dir, liveHolder(t, abs))

	_, err = lock.Acquire(lock.Options{Dir: dir, RepoRoot: repo})
	require.Error(t, err, "A live same-host same-repo holder must contend")

	var contention *lock.ContentionError
	require.True(t, errors.As(err, &contention), "Contention must surface as ContentionError")
	assert.Contains(t, contention.Message, "Another instance appears to be running")
	assert.Equal(t, filepath.Join(dir, "uecfg.lock"), contention.LockPath)
}

func TestAcquireInteractiveReadOnly(t *testing.T) {
	dir := t.TempDir()
	repo := t.TempDir()
	abs, err := filepath.Abs(repo)
	require.NoError(t, err)
	path := writeHolder(t, dir, liveHolder(t, abs))

	held, err := lock.Acquire(lock.Options{
		Dir:         dir,
		RepoRoot:    repo,
		Interactive: true,
		Prompt:      strings.NewReader("3\n"),
	})
	require.NoError(t, err, "Choosing read-only continues without the lock")
	assert.True(t, held.ReadOnly())

	held.Release()
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "A read-only bypass must never remove the holder's lock")
}

func TestAcquireInteractiveForceClear(t *testing.T) {
	dir := t.TempDir()
	repo := t.TempDir()
	abs, err := filepath.Abs(repo)
	require.NoError(t, err)
	writeHolder(t, dir, liveHolder(t, abs))

	held, err := lock.Acquire(lock.Options{
		Dir:         dir,
		RepoRoot:    repo,
		Interactive: true,
		Prompt:      strings.NewReader("2\n"),
	})
	require.NoError(t, err, "Force-clear should take over the lock")
	defer held.Release()
	assert.False(t, held.ReadOnly(), "Force-clear acquires for real")
}

func TestAcquireInteractiveAbort(t *testing.T) {
	dir := t.TempDir()
	repo := t.TempDir()
	abs, err := filepath.Abs(repo)
	require.NoError(t, err)
	writeHolder(t, dir, liveHolder(t, abs))

	_, err = lock.Acquire(lock.Options{
		Dir:         dir,
		RepoRoot:    repo,
		Interactive: true,
		Prompt:      strings.NewReader("1\n"),
	})
	var contention *lock.ContentionError
	require.True(t, errors.As(err, &contention), "Abort exits with a contention error")
}

func TestDetectRepoRoot(t *testing.T) {
	root := lock.DetectRepoRoot()
	assert.NotEmpty(t, root, "Detection always lands somewhere")
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
