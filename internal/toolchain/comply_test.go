// SPDX-License-Identifier: Apache-2.0

package toolchain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/manifest"
	"github.com/uecfg/uecfg/internal/toolchain"
)

var componentReq = manifest.ToolchainRequirement{
	RequiredMajor: 17,
	MinVersion:    "17.8",
	RequiresComponents: []string{
		"Microsoft.VisualStudio.Workload.NativeDesktop",
		"Microsoft.VisualStudio.Component.VC.Tools.x86.x64",
	},
}

func TestEvaluatePrefersCompliantInstance(t *testing.T) {
	instances := []toolchain.Instance{
		{
			DisplayName: "VS 2022 Preview",
			InstallPath: `C:\VS\Preview`,
			Version:     "17.11.0",
			Packages:    []string{"Microsoft.VisualStudio.Workload.NativeDesktop"},
		},
		{
			DisplayName: "VS 2022",
			InstallPath: `C:\VS\Stable`,
			Version:     "17.10.3",
			Packages: []string{
				"microsoft.visualstudio.workload.nativedesktop",
				"MICROSOFT.VISUALSTUDIO.COMPONENT.VC.TOOLS.X86.X64",
			},
		},
	}
	eval := toolchain.Evaluate(instances, componentReq)
	assert.Equal(t, check.StatusPass, eval.Status, "Fully compliant instance should win despite lower version")
	require.NotNil(t, eval.Best, "A best instance should be selected")
	assert.Equal(t, "VS 2022", eval.Best.DisplayName, "Fewest missing components should outrank version")
	assert.Empty(t, eval.Missing, "No components should be missing")
}

func TestEvaluateNoMatchingInstance(t *testing.T) {
	instances := []toolchain.Instance{
		{DisplayName: "VS 2019", Version: "16.11.0", Packages: []string{"anything"}},
		{DisplayName: "VS 2022 Old", Version: "17.4.0", Packages: []string{"anything"}},
	}
	eval := toolchain.Evaluate(instances, componentReq)
	assert.Equal(t, check.StatusFail, eval.Status, "No instance in range should fail")
	assert.Nil(t, eval.Best, "No best instance should be selected")
	assert.Equal(t, componentReq.RequiresComponents, eval.Missing,
		"Failure should carry the full required component set")
	require.NotEmpty(t, eval.Evidence, "Failure evidence should be recorded")
	assert.Contains(t, eval.Evidence[0], "found=2", "Evidence should count the discovered instances")
}

func TestEvaluateEmptyPackageInventory(t *testing.T) {
	instances := []toolchain.Instance{
		{DisplayName: "VS 2022", Version: "17.10.0", Packages: nil},
	}
	eval := toolchain.Evaluate(instances, componentReq)
	assert.Equal(t, check.StatusWarn, eval.Status,
		"An empty inventory is unverifiable, not non-compliant")
	require.NotNil(t, eval.Best, "The instance should still be selected")
}

func TestEvaluateRespectsMaxVersion(t *testing.T) {
	req := componentReq
	req.MaxVersion = "17.10"
	instances := []toolchain.Instance{
		{DisplayName: "Too new", Version: "17.12.0", Packages: req.RequiresComponents},
	}
	eval := toolchain.Evaluate(instances, req)
	assert.Equal(t, check.StatusFail, eval.Status, "Instances above max_version must be filtered out")
}

func TestPlanModify(t *testing.T) {
	m := &manifest.Manifest{ID: "ue_5.7", TargetVersion: "5.7", Toolchain: componentReq}

	plan := toolchain.PlanModify(nil, m)
	assert.False(t, plan.Required, "Nothing to modify when no toolchain is installed")

	compliant := []toolchain.Instance{{
		DisplayName: "VS 2022", Version: "17.10.0",
		Packages: componentReq.RequiresComponents,
	}}
	plan = toolchain.PlanModify(compliant, m)
	assert.False(t, plan.Required, "Compliant instance needs no modify run")

	partial := []toolchain.Instance{{
		DisplayName: "VS 2022", InstallPath: `C:\VS`, Version: "17.10.0",
		Packages: []string{"Microsoft.VisualStudio.Workload.NativeDesktop"},
	}}
	plan = toolchain.PlanModify(partial, m)
	require.True(t, plan.Required, "Missing components should require a modify run")
	require.NotNil(t, plan.Instance, "The target instance should be identified")
	assert.Equal(t, []string{"Microsoft.VisualStudio.Component.VC.Tools.x86.x64"},
		plan.MissingComponents, "Only the absent component should be planned")
}

func TestComponentAction(t *testing.T) {
	action := toolchain.ComponentAction([]string{"A", "B"})
	require.Len(t, action.Commands, 1, "One modify command expected")
	assert.Contains(t, action.Commands[0], "--add A", "Command should add each component")
	assert.Contains(t, action.Commands[0], "--add B", "Command should add each component")
}
