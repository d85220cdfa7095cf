// SPDX-License-Identifier: Apache-2.0

package check

// Status is the outcome of a single readiness check.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
	StatusSkip Status = "SKIP"
	// StatusNotApplicable marks checks that do not apply to the current
	// profile or manifest selection; they never enter the score denominator.
	StatusNotApplicable Status = "N/A"
)

// ActionRecommendation is a high-level remediation suggestion attached to a check.
type ActionRecommendation struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Commands    []string `json:"commands"`
}

// Result is the immutable record produced by one probe invocation.
type Result struct {
	ID       string                 `json:"id"`
	Phase    int                    `json:"phase"`
	Status   Status                 `json:"status"`
	Summary  string                 `json:"summary"`
	Details  string                 `json:"details"`
	Evidence []string               `json:"evidence"`
	Actions  []ActionRecommendation `json:"actions"`
}

// Record constructs a Result. Evidence and actions are copied so callers
// cannot mutate a collected result afterwards.
func Record(id string, phase int, status Status, summary, details string, evidence []string, actions []ActionRecommendation) Result {
	ev := make([]string, len(evidence))
	copy(ev, evidence)
	acts := make([]ActionRecommendation, len(actions))
	copy(acts, actions)
	return Result{
		ID:       id,
		Phase:    phase,
		Status:   status,
		Summary:  summary,
		Details:  details,
		Evidence: ev,
		Actions:  acts,
	}
}

func weight(status Status) (float64, bool) {
	switch status {
	case StatusPass:
		return 1.0, true
	case StatusWarn, StatusSkip:
		return 0.5, true
	case StatusFail:
		return 0.0, true
	default:
		return 0.0, false
	}
}

// Score computes the weighted readiness percentage for a set of results and
// returns it together with the number of scorable checks. A set with no
// scorable checks scores 0 with count 0.
func Score(results []Result) (float64, int) {
	total := 0.0
	count := 0
	for _, res := range results {
		w, scorable := weight(res.Status)
		if !scorable {
			continue
		}
		total += w
		count++
	}
	if count == 0 {
		return 0.0, 0
	}
	return (total / float64(count)) * 100.0, count
}
