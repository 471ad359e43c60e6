// Package catalog resolves document ids to their base playable URLs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/videoseek/internal/db"
	"github.com/kailas-cloud/videoseek/internal/domain"
	"github.com/kailas-cloud/videoseek/internal/metrics"
	"github.com/kailas-cloud/videoseek/internal/transport/indexer"
)

const cacheKeyPrefix = "videoseek:catalog:"

// Lister fetches the full document catalog from the remote index.
type Lister interface {
	ListDocuments(ctx context.Context) ([]indexer.Document, error)
}

// store is the consumer interface for the catalog cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Resolver maps a document id to its base URL. The remote API has no
// per-document lookup, so a miss costs one full listing fetch; resolved
// URLs are cached with a TTL to keep playback off that O(n) path. A cache
// outage degrades to the live fetch, never to failure.
type Resolver struct {
	lister Lister
	cache  store
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a resolver. cache may be nil, which disables caching.
func New(lister Lister, cache store, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lister: lister, cache: cache, ttl: ttl, logger: logger}
}

// ResolveURL returns the base playable URL for a document id.
// Returns domain.ErrDocumentNotFound if no document in the catalog has the id.
func (r *Resolver) ResolveURL(ctx context.Context, documentID string) (string, error) {
	if url, ok := r.getFromCache(ctx, documentID); ok {
		r.incCache("hit")
		return url, nil
	}
	r.incCache("miss")

	docs, err := r.lister.ListDocuments(ctx)
	if err != nil {
		return "", fmt.Errorf("list catalog: %w", err)
	}

	// One listing fetch refreshes every known id, not just the requested one.
	var resolved string
	for _, doc := range docs {
		if doc.DocumentID == documentID {
			resolved = doc.DocumentURL
		}
		r.putToCache(ctx, doc.DocumentID, doc.DocumentURL)
	}

	if resolved == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, documentID)
	}
	return resolved, nil
}

func (r *Resolver) incCache(result string) {
	if r.cache != nil {
		metrics.CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

func (r *Resolver) getFromCache(ctx context.Context, documentID string) (string, bool) {
	if r.cache == nil {
		return "", false
	}

	data, err := r.cache.Get(ctx, cacheKeyPrefix+documentID)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to read catalog cache",
				zap.String("document_id", documentID), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (r *Resolver) putToCache(ctx context.Context, documentID, url string) {
	if r.cache == nil || url == "" {
		return
	}
	if err := r.cache.SetWithTTL(ctx, cacheKeyPrefix+documentID, []byte(url), r.ttl); err != nil {
		r.logger.Warn("Failed to write catalog cache",
			zap.String("document_id", documentID), zap.Error(err))
	}
}
