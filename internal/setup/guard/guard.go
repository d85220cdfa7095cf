// SPDX-License-Identifier: Apache-2.0

// Package guard evaluates CEL gate expressions over scan results. A step's
// guard decides whether the step applies on this machine at all.
package guard

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Evaluator handles evaluation of CEL guard expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator exposing a `checks` variable: a map from
// check id to its status string ("PASS", "WARN", "FAIL", "SKIP", "N/A").
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("checks", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Evaluate runs a guard expression against the check statuses. Expressions
// must evaluate to a boolean.
func (e *Evaluator) Evaluate(expression string, statuses map[string]string) (bool, error) {
	ast, issues := e.env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("error parsing expression: %w", issues.Err())
	}

	checked, issues := e.env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("error type-checking expression: %w", issues.Err())
	}

	program, err := e.env.Program(checked)
	if err != nil {
		return false, fmt.Errorf("error compiling expression: %w", err)
	}

	checks := make(map[string]interface{}, len(statuses))
	for id, status := range statuses {
		checks[id] = status
	}
	result, _, err := program.Eval(map[string]interface{}{"checks": checks})
	if err != nil {
		return false, fmt.Errorf("error evaluating expression: %w", err)
	}

	if result.Type() != types.BoolType {
		return false, fmt.Errorf("expression did not evaluate to a boolean")
	}
	return result.Value().(bool), nil
}
