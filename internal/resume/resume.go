package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/maxvaer/proxycheck/internal/candidate"
	"github.com/maxvaer/proxycheck/internal/probe"
)

// State tracks the results of an interrupted run so a later run can skip
// the candidates already checked.
type State struct {
	Targets []string       `json:"targets"`
	Results []probe.Result `json:"results"`

	mu   sync.Mutex
	path string
	done map[candidate.Candidate]struct{}
}

// New creates a new empty resume state that will be saved to the given path.
func New(path string, targets []probe.Target) *State {
	return &State{
		Targets: targetNames(targets),
		path:    path,
		done:    make(map[candidate.Candidate]struct{}),
	}
}

// Load reads an existing resume state from disk. Returns nil if the file
// does not exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}

	s.path = path
	s.done = make(map[candidate.Candidate]struct{}, len(s.Results))
	for _, r := range s.Results {
		s.done[r.Candidate] = struct{}{}
	}

	return &s, nil
}

// Matches reports whether the state was recorded against the same
// targets, in the same order. Results for other targets cannot be merged.
func (s *State) Matches(targets []probe.Target) bool {
	names := targetNames(targets)
	if len(names) != len(s.Targets) {
		return false
	}
	for i := range names {
		if names[i] != s.Targets[i] {
			return false
		}
	}
	return true
}

// Record stores a completed result.
func (s *State) Record(r probe.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done[r.Candidate]; !ok {
		s.done[r.Candidate] = struct{}{}
		s.Results = append(s.Results, r)
	}
}

// Completed returns a copy of the stored results.
func (s *State) Completed() []probe.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]probe.Result(nil), s.Results...)
}

// Save writes the current state to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// FilterRemaining returns only candidates that haven't been checked yet.
func (s *State) FilterRemaining(cands []candidate.Candidate) []candidate.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	var remaining []candidate.Candidate
	for _, c := range cands {
		if _, ok := s.done[c]; !ok {
			remaining = append(remaining, c)
		}
	}
	return remaining
}

// Remove deletes the resume file (called on successful completion).
func (s *State) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func targetNames(targets []probe.Target) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}
	return names
}
