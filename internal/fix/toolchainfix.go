// SPDX-License-Identifier: Apache-2.0

package fix

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/uecfg/uecfg/internal/manifest"
	"github.com/uecfg/uecfg/internal/probe"
	"github.com/uecfg/uecfg/internal/toolchain"
)

const (
	generatedDir = "generated"
	// heartbeatInterval paces progress lines while the installer runs; modify
	// runs routinely take ten minutes or more with no output.
	heartbeatInterval = 30 * time.Second
	installerTimeout  = time.Hour
)

// FindInstallerSetup locates the toolchain installer's setup.exe under
// Program Files (x86).
func FindInstallerSetup() string {
	base := os.Getenv("ProgramFiles(x86)")
	if base == "" {
		base = `C:\Program Files (x86)`
	}
	path := filepath.Join(base, "Microsoft Visual Studio", "Installer", "setup.exe")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// installerConfig is the JSON document the installer's --config flag accepts.
type installerConfig struct {
	Version    string   `json:"version"`
	Components []string `json:"components"`
	Workloads  []string `json:"workloads"`
}

// GenerateInstallerConfig writes the manifest's required component set as an
// installer config file named by manifest id and fingerprint, so distinct
// manifest revisions never share a generated file.
func GenerateInstallerConfig(m *manifest.Manifest, catalogDir string) (string, error) {
	dir := filepath.Join(catalogDir, generatedDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating generated config directory: %w", err)
	}
	var workloads, components []string
	for _, item := range m.Toolchain.RequiresComponents {
		slug := strings.TrimSpace(item)
		if slug == "" {
			continue
		}
		if strings.Contains(slug, ".Workload.") {
			workloads = append(workloads, slug)
		} else {
			components = append(components, slug)
		}
	}
	sort.Strings(workloads)
	sort.Strings(components)
	config := installerConfig{Version: "1.0", Components: dedupeSorted(components), Workloads: dedupeSorted(workloads)}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding installer config: %w", err)
	}
	target := filepath.Join(dir, fmt.Sprintf("%s_%s.vsconfig", m.ID, m.Fingerprint))
	if _, _, err := WriteFileWithBackup(target, append(data, '\n')); err != nil {
		return "", err
	}
	return target, nil
}

func dedupeSorted(items []string) []string {
	out := items[:0]
	var last string
	for i, item := range items {
		if i > 0 && item == last {
			continue
		}
		out = append(out, item)
		last = item
	}
	if out == nil {
		return []string{}
	}
	return out
}

// ModifyOptions tunes an installer modify run.
type ModifyOptions struct {
	Passive bool
	DryRun  bool
}

// EnsureManifestComponents drives the toolchain installer to add whatever
// components the manifest requires and the best instance lacks.
func EnsureManifestComponents(ctx *probe.Context, m *manifest.Manifest, catalogDir string, opts ModifyOptions, logger Logger) Outcome {
	out := Outcome{}
	plan := toolchain.PlanModify(ctx.ToolchainInstances(), m)
	if !plan.Required {
		out.Success = true
		out.Message = plan.Reason
		if out.Message == "" {
			out.Message = "Toolchain already compliant."
		}
		return out
	}
	setupExe := FindInstallerSetup()
	if setupExe == "" {
		out.Blocked = true
		out.Message = "Toolchain installer (setup.exe) not found under Program Files (x86)."
		out.logf("[uecfg] %s", out.Message)
		return out
	}
	configPath, err := GenerateInstallerConfig(m, catalogDir)
	if err != nil {
		out.Message = err.Error()
		out.logf("[uecfg] %s", out.Message)
		return out
	}

	args := []string{"modify", "--installPath", plan.Instance.InstallPath,
		"--config", configPath, "--norestart", "--wait"}
	if opts.Passive {
		args = append(args, "--passive")
	}
	command := setupExe + " " + strings.Join(args, " ")
	out.logf("[vs-installer] %s", command)
	if logger != nil {
		logger.Log("[vs-installer] " + command)
	}
	if opts.DryRun {
		out.Success = true
		out.Message = "[dry-run] Installer modify skipped."
		return out
	}

	done := make(chan struct{})
	if logger != nil {
		go func() {
			started := time.Now()
			ticker := time.NewTicker(heartbeatInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					logger.Log(fmt.Sprintf("[vs-installer] still running (%s elapsed)...",
						time.Since(started).Round(time.Second)))
				}
			}
		}()
	}
	result := ctx.RunCommandTimeout(installerTimeout, setupExe, args...)
	close(done)

	if detail := strings.TrimSpace(result.Stdout); detail != "" {
		out.Logs = append(out.Logs, detail)
	}
	if detail := strings.TrimSpace(result.Stderr); detail != "" {
		out.Logs = append(out.Logs, detail)
	}
	if !result.OK() {
		out.Message = fmt.Sprintf("Toolchain installer exited with %d.", result.ExitCode)
		return out
	}
	out.Success = true
	out.Message = "Toolchain components updated to match manifest."
	return out
}
