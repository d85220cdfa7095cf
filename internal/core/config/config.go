// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/uecfg/uecfg/internal/core/format"
)

// Constants for default paths.
const (
	DefaultConfigDir      = ".uecfg"
	DefaultConfigFileName = "config.yaml"
	DefaultCatalogDirName = "manifests"
	DefaultReportsDirName = "reports"
)

// Config holds the application configuration. Everything here is an operator
// default; command-line flags always win over file values.
type Config struct {
	// CatalogDir is where manifest documents live.
	CatalogDir string `yaml:"catalog_dir"`
	// ReportsDir receives generated JSON reports and the artifact path cache.
	ReportsDir string `yaml:"reports_dir"`
	// Profile is the default machine profile (workstation, agent, minimal).
	Profile string `yaml:"profile"`
	// UsePackageManager enables winget-driven installs during setup.
	UsePackageManager bool `yaml:"use_package_manager"`
	// EngineRoot is a sticky default for --engine-root.
	EngineRoot string `yaml:"engine_root"`
}

// NewDefaultConfig creates a default configuration.
func NewDefaultConfig() *Config {
	return &Config{
		CatalogDir:        DefaultCatalogDirName,
		ReportsDir:        DefaultReportsDirName,
		Profile:           "",
		UsePackageManager: true,
	}
}

// Path returns the config file location inside a project directory.
func Path(projectDir string) string {
	return filepath.Join(projectDir, DefaultConfigDir, DefaultConfigFileName)
}

// Load reads the config file under projectDir, merging it over defaults. A
// missing file is not an error; defaults are returned.
func Load(projectDir string) (*Config, error) {
	cfg := NewDefaultConfig()
	path := Path(projectDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	loaded := &fileConfig{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	merge(cfg, loaded)
	return cfg, nil
}

// Save writes the configuration under projectDir, creating the config
// directory when needed.
func Save(cfg *Config, projectDir string) error {
	dir := filepath.Join(projectDir, DefaultConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, DefaultConfigFileName)
	if err := format.WriteYAML(path, cfg); err != nil {
		return fmt.Errorf("error writing config file %s: %w", path, err)
	}
	return nil
}

// fileConfig mirrors Config for parsing; the pointer distinguishes an absent
// use_package_manager key from an explicit false.
type fileConfig struct {
	CatalogDir        string `yaml:"catalog_dir"`
	ReportsDir        string `yaml:"reports_dir"`
	Profile           string `yaml:"profile"`
	UsePackageManager *bool  `yaml:"use_package_manager"`
	EngineRoot        string `yaml:"engine_root"`
}

// merge copies set values from source into target.
func merge(target *Config, source *fileConfig) {
	if source.CatalogDir != "" {
		target.CatalogDir = source.CatalogDir
	}
	if source.ReportsDir != "" {
		target.ReportsDir = source.ReportsDir
	}
	if source.Profile != "" {
		target.Profile = source.Profile
	}
	if source.EngineRoot != "" {
		target.EngineRoot = source.EngineRoot
	}
	if source.UsePackageManager != nil {
		target.UsePackageManager = *source.UsePackageManager
	}
}
