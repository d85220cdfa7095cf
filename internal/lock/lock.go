// SPDX-License-Identifier: Apache-2.0

// Package lock provides a file-based single-instance lock so two concurrent
// runs never both mutate the same machine.
package lock

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Metadata identifies the lock holder; it is what a contending process reads
// to judge staleness.
type Metadata struct {
	Name        string   `json:"name"`
	PID         int      `json:"pid"`
	StartTime   string   `json:"start_time"`
	Hostname    string   `json:"hostname"`
	Username    string   `json:"username"`
	RepoRoot    string   `json:"repo_root"`
	Command     []string `json:"command"`
	ToolVersion string   `json:"tool_version"`
}

// ContentionError reports a live holder of the lock. Callers map it to a
// distinct exit code.
type ContentionError struct {
	Message  string
	LockPath string
}

func (e *ContentionError) Error() string { return e.Message }

// Options configures lock acquisition.
type Options struct {
	// Name keys the lock file; default "uecfg".
	Name string
	// Dir holds the lock file; default is the OS temp directory.
	Dir string
	// RepoRoot scopes the lock; two runs against different repos do not
	// contend. Defaults to a walk up from the working directory.
	RepoRoot    string
	Command     []string
	ToolVersion string
	// Interactive enables the abort / force-clear / read-only prompt when a
	// live holder exists.
	Interactive bool
	// Prompt reads the operator's choice; defaults to stdin.
	Prompt io.Reader
	// Logf receives lock lifecycle lines; may be nil.
	Logf func(format string, args ...interface{})
}

// Lock is a held (or read-only bypassed) single-instance lock.
type Lock struct {
	path     string
	readOnly bool

	mu       sync.Mutex
	released bool
	sigs     chan os.Signal
}

// ReadOnly reports whether the operator chose to continue without holding the
// lock; mutating commands must refuse to apply in this mode.
func (l *Lock) ReadOnly() bool { return l.readOnly }

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	if l.sigs != nil {
		signal.Stop(l.sigs)
		close(l.sigs)
		l.sigs = nil
	}
	if !l.readOnly {
		_ = os.Remove(l.path)
	}
}

// DetectRepoRoot walks up from the working directory to the nearest directory
// carrying .git or go.mod, else the working directory itself.
func DetectRepoRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	current := cwd
	for {
		for _, marker := range []string{".git", "go.mod"} {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return cwd
		}
		current = parent
	}
}

func buildMetadata(opts *Options) Metadata {
	host, _ := os.Hostname()
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	command := opts.Command
	if command == nil {
		command = os.Args
	}
	version := opts.ToolVersion
	if version == "" {
		version = "unknown"
	}
	return Metadata{
		Name:        opts.Name,
		PID:         os.Getpid(),
		StartTime:   time.Now().UTC().Format(time.RFC3339),
		Hostname:    host,
		Username:    username,
		RepoRoot:    opts.RepoRoot,
		Command:     command,
		ToolVersion: version,
	}
}

func loadMetadata(path string) *Metadata {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil
	}
	return &meta
}

func formatDetails(meta *Metadata) string {
	if meta == nil {
		return ""
	}
	var parts []string
	if meta.PID != 0 {
		parts = append(parts, fmt.Sprintf("PID %d", meta.PID))
	}
	if meta.StartTime != "" {
		parts = append(parts, "started "+meta.StartTime)
	}
	if meta.RepoRoot != "" {
		parts = append(parts, "repo "+meta.RepoRoot)
	}
	if len(meta.Command) > 0 {
		parts = append(parts, "command "+strings.Join(meta.Command, " "))
	}
	return strings.Join(parts, "; ")
}

// pidAlive is a best-effort liveness check.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// Permission errors still mean the process exists.
	return errors.Is(err, os.ErrPermission)
}

// staleReason judges whether the holder's metadata describes a dead or
// foreign run; empty means the holder looks live.
func staleReason(meta *Metadata, currentHost, currentRepo string) string {
	if meta == nil {
		return ""
	}
	if meta.PID != 0 && !pidAlive(meta.PID) {
		return fmt.Sprintf("PID %d is not running", meta.PID)
	}
	if meta.Hostname != "" && meta.Hostname != currentHost {
		return fmt.Sprintf("hostname differs (lock on %s, current %s)", meta.Hostname, currentHost)
	}
	if meta.RepoRoot != "" && currentRepo != "" && meta.RepoRoot != currentRepo {
		return fmt.Sprintf("repo root differs (lock at %s, current %s)", meta.RepoRoot, currentRepo)
	}
	return ""
}

// Acquire takes the single-instance lock. Stale locks (dead pid, foreign
// host, foreign repo) are recovered automatically. A live holder yields a
// ContentionError, unless Interactive allows force-clear or read-only
// continuation.
func Acquire(opts Options) (*Lock, error) {
	if opts.Name == "" {
		opts.Name = "uecfg"
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	if opts.RepoRoot == "" {
		opts.RepoRoot = DetectRepoRoot()
	}
	if abs, err := filepath.Abs(opts.RepoRoot); err == nil {
		opts.RepoRoot = abs
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating lock directory: %w", err)
	}
	path := filepath.Join(opts.Dir, opts.Name+".lock")
	meta := buildMetadata(&opts)
	host, _ := os.Hostname()

	for {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			encoder := json.NewEncoder(file)
			encoder.SetIndent("", "  ")
			writeErr := encoder.Encode(meta)
			closeErr := file.Close()
			if writeErr != nil || closeErr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("error writing lock metadata: %w", errors.Join(writeErr, closeErr))
			}
			logf("Lock acquired at %s by PID %d", path, meta.PID)
			lock := &Lock{path: path}
			lock.installSignalCleanup()
			return lock, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("error creating lock file: %w", err)
		}

		holder := loadMetadata(path)
		if reason := staleReason(holder, host, opts.RepoRoot); reason != "" || holder == nil {
			if reason == "" {
				reason = "lock metadata unreadable"
			}
			logf("Stale lock detected (%s) - recovering automatically.", reason)
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, &ContentionError{
					Message:  fmt.Sprintf("Unable to clear stale lock at %s. Please remove it manually.", path),
					LockPath: path,
				}
			}
			continue
		}

		details := formatDetails(holder)
		if !opts.Interactive {
			message := fmt.Sprintf(
				"Another instance appears to be running. Lock file: %s. %s "+
					"If this seems stale, rerun interactively or remove the lock once the other process is finished.",
				path, details)
			logf("%s", message)
			return nil, &ContentionError{Message: message, LockPath: path}
		}

		choice, err := promptChoice(opts.Prompt, details)
		if err != nil {
			return nil, &ContentionError{Message: "Exiting because another instance is active.", LockPath: path}
		}
		switch choice {
		case "2":
			logf("User chose to remove existing lock and continue. %s", details)
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, &ContentionError{
					Message:  fmt.Sprintf("Unable to remove existing lock at %s. Please delete it manually.", path),
					LockPath: path,
				}
			}
			continue
		case "3":
			logf("User chose to continue without acquiring the lock (read-only/scan mode). %s", details)
			return &Lock{path: path, readOnly: true}, nil
		default:
			return nil, &ContentionError{Message: "Exiting because another instance is active.", LockPath: path}
		}
	}
}

func promptChoice(input io.Reader, details string) (string, error) {
	if input == nil {
		input = os.Stdin
	}
	fmt.Println("Another instance appears to be running.")
	if details != "" {
		fmt.Printf("Details: %s\n", details)
	}
	fmt.Println("Options:")
	fmt.Println("  1) Exit (recommended)")
	fmt.Println("  2) Remove stale lock and restart")
	fmt.Println("  3) Continue in read-only / scan mode")
	reader := bufio.NewReader(input)
	for {
		fmt.Print("Select an option [1]: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		choice := strings.TrimSpace(line)
		switch choice {
		case "":
			return "1", nil
		case "1", "2", "3":
			return choice, nil
		}
		fmt.Println("Please enter 1, 2, or 3.")
	}
}

// installSignalCleanup removes the lock file on SIGINT/SIGTERM before the
// process dies.
func (l *Lock) installSignalCleanup() {
	sigs := make(chan os.Signal, 1)
	l.sigs = sigs
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-sigs
		if !ok {
			return
		}
		l.Release()
		signal.Stop(sigs)
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			_ = p.Signal(sig)
		}
	}()
}
