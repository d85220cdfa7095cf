// SPDX-License-Identifier: Apache-2.0

package format

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile reads and parses a file, trying YAML first, then JSON.
func ParseFile(filePath string, v interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	return ParseData(data, v)
}

// ParseData parses data, trying YAML first, then JSON.
func ParseData(data []byte, v interface{}) error {
	err := yaml.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	jsonErr := json.Unmarshal(data, v)
	if jsonErr == nil {
		return nil
	}

	return fmt.Errorf("failed to parse as YAML (%v) or JSON (%v)", err, jsonErr)
}

// WriteJSON writes data to a file in indented JSON.
func WriteJSON(filePath string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// WriteYAML writes data to a file in YAML format.
func WriteYAML(filePath string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("error marshaling YAML: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// IsJSONFile returns true if the file extension suggests a JSON file.
func IsJSONFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".json"
}
