// SPDX-License-Identifier: Apache-2.0

// Package fix holds the guarded mutation helpers the setup pipeline applies:
// package installs, installer modify runs, and generated configuration files.
package fix

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// backupTimestamp names backup files so repeated overwrites never clobber an
// earlier backup.
const backupTimestamp = "20060102-150405"

// WriteFileWithBackup writes content to path, backing up any existing file
// first. Writing identical content is a no-op: no write, no backup. Returns
// whether a write happened and the backup path when one was made.
func WriteFileWithBackup(path string, content []byte) (bool, string, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, "", nil
	}

	backup := ""
	if err == nil {
		backup = fmt.Sprintf("%s.bak.%s", path, time.Now().Format(backupTimestamp))
		if err := os.WriteFile(backup, existing, 0644); err != nil {
			return false, "", fmt.Errorf("error backing up %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, backup, fmt.Errorf("error creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, backup, fmt.Errorf("error writing %s: %w", path, err)
	}
	return true, backup, nil
}
