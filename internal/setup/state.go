// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultStatePath is where completed step ids persist between runs.
const DefaultStatePath = ".uecfg_state.json"

// State records which steps have completed, step id -> RFC3339 completion
// time. It is the resume authority: a persisted step is never re-checked or
// re-applied.
type State struct {
	Completed map[string]string `json:"completed"`
}

// NewState returns an empty completion record.
func NewState() *State {
	return &State{Completed: make(map[string]string)}
}

// IsDone reports whether a step has a persisted completion.
func (s *State) IsDone(stepID string) bool {
	_, ok := s.Completed[stepID]
	return ok
}

// MarkDone records a step's completion time.
func (s *State) MarkDone(stepID string) {
	if s.Completed == nil {
		s.Completed = make(map[string]string)
	}
	s.Completed[stepID] = time.Now().UTC().Format(time.RFC3339)
}

// LoadState reads persisted state; a missing or corrupt file yields a fresh
// state so an interrupted run can always start over.
func LoadState(path string) *State {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewState()
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil || state.Completed == nil {
		return NewState()
	}
	return &state
}

// SaveState persists the state; called after every step transition so a crash
// never replays completed work.
func SaveState(path string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding setup state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing setup state: %w", err)
	}
	return nil
}
