// SPDX-License-Identifier: Apache-2.0

// Package setup plans and applies guarded remediation steps, resuming across
// interrupted (and elevated) runs via a persisted completion state.
package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger tees setup progress to the console and a run log file.
type Logger struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewLogger truncates and opens the run log at path.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating log file: %w", err)
	}
	return &Logger{path: path, file: file}, nil
}

// Log writes one line to stdout and the run log.
func (l *Logger) Log(message string) {
	fmt.Println(message)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	timestamp := time.Now().Format("2006-01-02T15:04:05")
	fmt.Fprintf(l.file, "[%s] %s\n", timestamp, message)
}

// Logf formats and logs one line.
func (l *Logger) Logf(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...))
}

// Path returns the run log location.
func (l *Logger) Path() string { return l.path }

// Close flushes and closes the run log.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
