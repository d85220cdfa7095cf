// SPDX-License-Identifier: Apache-2.0

package run_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uecfg/uecfg/internal/run"
)

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	runner := run.NewRunner(0, "")

	ok := runner.Run("/bin/sh", "-c", "echo out; echo err >&2")
	assert.True(t, ok.OK())
	assert.Equal(t, "out", ok.Stdout, "Stdout is trimmed")
	assert.Equal(t, "err", ok.Stderr, "Stderr is trimmed")

	failed := runner.Run("/bin/sh", "-c", "exit 3")
	assert.False(t, failed.OK())
	assert.Equal(t, 3, failed.ExitCode)
}

func TestRunMissingBinaryIsAResultNotAnError(t *testing.T) {
	runner := run.NewRunner(0, "")
	res := runner.Run("definitely-not-a-real-binary-uecfg")
	assert.False(t, res.OK())
	assert.Equal(t, -1, res.ExitCode)
	assert.NotEmpty(t, res.Stderr, "The failure reason lands in stderr")
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	runner := run.NewRunner(0, "")
	res := runner.RunTimeout(100*time.Millisecond, "/bin/sh", "-c", "sleep 5")
	assert.True(t, res.TimedOut)
	assert.False(t, res.OK())
}
