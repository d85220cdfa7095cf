// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseClosesSignalChannel(t *testing.T) {
	held, err := Acquire(Options{Dir: t.TempDir(), RepoRoot: t.TempDir()})
	require.NoError(t, err, "Acquire should succeed in an empty directory")

	sigs := held.sigs
	require.NotNil(t, sigs, "An acquired lock should install signal cleanup")

	held.Release()

	_, open := <-sigs
	assert.False(t, open, "Release should close the signal channel so the cleanup goroutine exits")
	assert.Nil(t, held.sigs, "Release should drop the channel reference")

	held.Release() // a second Release must not close twice
}

func TestReadOnlyLockHasNoSignalCleanup(t *testing.T) {
	held := &Lock{path: "unused", readOnly: true}
	held.Release()
	assert.Nil(t, held.sigs, "A read-only lock never registers a signal handler")
}
