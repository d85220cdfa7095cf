// SPDX-License-Identifier: Apache-2.0

package toolchain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uecfg/uecfg/internal/toolchain"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		raw      string
		expected []int
	}{
		{"17.10.3", []int{17, 10, 3}},
		{"17.10.35201.131", []int{17, 10, 35201, 131}},
		{"10.0.22621", []int{10, 0, 22621}},
		{"17.10-preview", []int{17}},
		{"", []int{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, toolchain.ParseVersion(tt.raw), "ParseVersion(%q)", tt.raw)
	}
}

func TestCompareVersionsZeroPads(t *testing.T) {
	assert.Equal(t, 0, toolchain.CompareVersions([]int{17, 10}, []int{17, 10, 0}),
		"17.10 should equal 17.10.0")
	assert.Equal(t, -1, toolchain.CompareVersions([]int{17, 9, 5}, []int{17, 10}),
		"17.9.5 should sort below 17.10")
	assert.Equal(t, 1, toolchain.CompareVersions([]int{18}, []int{17, 99, 99}),
		"18 should sort above 17.99.99")
}
