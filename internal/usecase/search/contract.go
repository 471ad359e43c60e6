package search

import (
	"context"

	"github.com/kailas-cloud/videoseek/internal/domain"
)

// Indexer runs text queries against the remote video index.
type Indexer interface {
	QueryByText(ctx context.Context, query domain.Query) ([]domain.Match, error)
}
