// SPDX-License-Identifier: Apache-2.0

package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uecfg/uecfg/internal/setup/guard"
)

func TestEvaluate(t *testing.T) {
	evaluator, err := guard.NewEvaluator()
	require.NoError(t, err, "Error creating guard evaluator")

	statuses := map[string]string{
		"os.git":          "FAIL",
		"toolchain.cmake": "PASS",
		"toolchain.vs":    "WARN",
	}

	tests := []struct {
		name       string
		expression string
		expected   bool
		wantErr    bool
	}{
		{
			name:       "failing check triggers guard",
			expression: `checks["os.git"] != "PASS"`,
			expected:   true,
		},
		{
			name:       "passing check suppresses guard",
			expression: `checks["toolchain.cmake"] != "PASS"`,
			expected:   false,
		},
		{
			name:       "logical OR across checks",
			expression: `checks["toolchain.cmake"] != "PASS" || checks["toolchain.vs"] != "PASS"`,
			expected:   true,
		},
		{
			name:       "logical AND across checks",
			expression: `checks["os.git"] == "FAIL" && checks["toolchain.vs"] == "WARN"`,
			expected:   true,
		},
		{
			name:       "invalid syntax",
			expression: `checks["os.git"] = "FAIL"`,
			wantErr:    true,
		},
		{
			name:       "non-boolean result",
			expression: `checks["os.git"]`,
			wantErr:    true,
		},
		{
			name:       "unknown check id",
			expression: `checks["does.not.exist"] != "PASS"`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := evaluator.Evaluate(tt.expression, statuses)
			if tt.wantErr {
				assert.Error(t, err, "Expected error for expression: %s", tt.expression)
			} else {
				assert.NoError(t, err, "Unexpected error for expression: %s", tt.expression)
				assert.Equal(t, tt.expected, result, "Unexpected result for expression: %s", tt.expression)
			}
		})
	}
}
