// SPDX-License-Identifier: Apache-2.0

package fix

import (
	"os"
	"path/filepath"
)

// agentConfigTemplate is a starter build tool configuration enabling
// distributed builds; operators tune the values afterwards.
const agentConfigTemplate = `<?xml version="1.0" encoding="utf-8"?>
<Configuration xmlns="https://www.unrealengine.com/BuildConfiguration">
  <BuildConfiguration>
    <ParallelExecutor>UBT</ParallelExecutor>
    <MaxParallelActions>16</MaxParallelActions>
    <bAllowRemoteBuilds>true</bAllowRemoteBuilds>
    <bAllowXGE>true</bAllowXGE>
    <bUseHordeAgent>true</bUseHordeAgent>
  </BuildConfiguration>
</Configuration>
`

// DefaultAgentConfigPath is where the build tool looks for a user-level
// configuration.
func DefaultAgentConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "Documents", "Unreal Engine", "UnrealBuildTool", "BuildConfiguration.xml")
}

// GenerateAgentTemplate writes the starter configuration, backing up any
// existing file. A repeated run against unchanged content writes nothing.
func GenerateAgentTemplate(destination string, dryRun bool) (string, bool, error) {
	target := destination
	if target == "" {
		target = DefaultAgentConfigPath()
	}
	if dryRun {
		return target, false, nil
	}
	wrote, _, err := WriteFileWithBackup(target, []byte(agentConfigTemplate))
	return target, wrote, err
}
