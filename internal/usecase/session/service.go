// Package session owns the search session state: the current result set and
// the selected video. The original interface kept this state implicitly in
// the UI framework; here it is an explicit object with documented reset
// triggers.
package session

import (
	"fmt"
	"sync"

	"github.com/kailas-cloud/videoseek/internal/domain"
)

// Service holds the session-lived state. Reset rules:
//   - a new search replaces the result set wholesale and clears the selection;
//   - a mode change clears both the result set and the selection.
//
// User actions arrive one at a time, but the HTTP server is concurrent, so
// the state is mutex-guarded.
type Service struct {
	mu       sync.Mutex
	mode     domain.Mode
	results  []domain.Match
	selected *domain.Selection
}

// New creates a session starting in the given mode.
func New(mode domain.Mode) *Service {
	return &Service{mode: mode, results: []domain.Match{}}
}

// Mode returns the current search mode.
func (s *Service) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the search mode. Switching to a different mode
// invalidates any prior results and selection.
func (s *Service) SetMode(mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == s.mode {
		return
	}
	s.mode = mode
	s.results = []domain.Match{}
	s.selected = nil
}

// SetResults replaces the result set and clears the selection.
func (s *Service) SetResults(matches []domain.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make([]domain.Match, len(matches))
	copy(s.results, matches)
	s.selected = nil
}

// Results returns a copy of the current result set.
func (s *Service) Results() []domain.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Match, len(s.results))
	copy(out, s.results)
	return out
}

// Select chooses one video from the current result set by document id.
// Returns domain.ErrNotInResults if the id is not part of the set.
func (s *Service) Select(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.results {
		if m.DocumentID == documentID {
			sel := domain.SelectionFromMatch(m)
			s.selected = &sel
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrNotInResults, documentID)
}

// Selected returns the current selection, if any.
func (s *Service) Selected() (domain.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return domain.Selection{}, false
	}
	return *s.selected, true
}
