// Package search runs mode-tagged text queries against the video index.
package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/videoseek/internal/domain"
)

// Service handles video moment search by visual or speech content.
type Service struct {
	indexer Indexer
}

// New creates a search service.
func New(indexer Indexer) *Service {
	return &Service{indexer: indexer}
}

// Search builds the query for the given text and mode, runs it, and returns
// matches ordered by relevance descending (stable; ties keep arrival order).
// A transport or index failure returns an error wrapping
// domain.ErrIndexerUnavailable; a well-formed zero-match response returns an
// empty, non-nil slice. Empty text is forwarded unchanged — the remote index
// owns that semantic.
func (s *Service) Search(ctx context.Context, text string, mode domain.Mode) ([]domain.Match, error) {
	query := domain.NewQuery(text, mode)

	matches, err := s.indexer.QueryByText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	if matches == nil {
		matches = []domain.Match{}
	}

	domain.SortByRelevance(matches)
	return matches, nil
}
