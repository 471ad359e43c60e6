// Package indexer is the HTTP client for the remote video retrieval API.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/videoseek/internal/domain"
	"github.com/kailas-cloud/videoseek/internal/metrics"
)

const subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// Document is one indexed video asset from the catalog listing.
type Document struct {
	DocumentID  string `json:"documentId"`
	DocumentURL string `json:"documentUrl"`
}

// Client talks to the remote video retrieval index.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	indexName       string
	apiVersion      string
	subscriptionKey string
	logger          *zap.Logger
}

// Config holds the video index connection settings.
type Config struct {
	Endpoint        string // host, with or without scheme
	IndexName       string
	APIVersion      string
	SubscriptionKey string
	RequestTimeout  time.Duration
	Logger          *zap.Logger
}

// NewClient creates a video index client.
func NewClient(cfg *Config) *Client {
	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         strings.TrimRight(endpoint, "/"),
		indexName:       cfg.IndexName,
		apiVersion:      cfg.APIVersion,
		subscriptionKey: cfg.SubscriptionKey,
		logger:          logger,
	}
}

// queryPayload is the wire format of a text query. The feature filter list
// always holds exactly one tag, selected by the query mode.
type queryPayload struct {
	QueryText string       `json:"queryText"`
	Filters   queryFilters `json:"filters"`
}

type queryFilters struct {
	FeatureFilters []string `json:"featureFilters"`
}

// QueryByText runs one blocking search against the index and returns raw,
// unordered matches. Any transport or non-2xx failure wraps
// domain.ErrIndexerUnavailable.
func (c *Client) QueryByText(ctx context.Context, query domain.Query) ([]domain.Match, error) {
	url := fmt.Sprintf("%s/computervision/retrieval/indexes/%s:queryByText?api-version=%s",
		c.baseURL, c.indexName, c.apiVersion)

	payload := queryPayload{
		QueryText: query.Text,
		Filters:   queryFilters{FeatureFilters: []string{query.Mode.FeatureFilter()}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	var parsed struct {
		Value []domain.Match `json:"value"`
	}
	if err := c.doJSON(ctx, "query", http.MethodPost, url, bytes.NewReader(body), &parsed); err != nil {
		return nil, err
	}

	c.logger.Debug("index query completed",
		zap.String("mode", string(query.Mode)),
		zap.Int("matches", len(parsed.Value)),
	)
	return parsed.Value, nil
}

// ListDocuments fetches the full document catalog known to the index.
// The API offers no per-document lookup, so callers resolve single ids by
// scanning (or caching) this listing.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	url := fmt.Sprintf("%s/computervision/retrieval/indexes/%s/documents?api-version=%s",
		c.baseURL, c.indexName, c.apiVersion)

	var parsed struct {
		Value []Document `json:"value"`
	}
	if err := c.doJSON(ctx, "list_documents", http.MethodGet, url, nil, &parsed); err != nil {
		return nil, err
	}

	return parsed.Value, nil
}

// HealthCheck verifies index availability via the document listing.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.ListDocuments(ctx); err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	return nil
}

// doJSON issues one request and decodes the JSON response with per-call metrics.
func (c *Client) doJSON(ctx context.Context, op, method, url string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(subscriptionKeyHeader, c.subscriptionKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := c.httpClient.Do(req)

	duration := time.Since(start)

	if err != nil {
		metrics.IndexerRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("index request failed: %w: %w", domain.ErrIndexerUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IndexerRequestsTotal.WithLabelValues(op, "error").Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("index returned %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(detail)), domain.ErrIndexerUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.IndexerRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("decode index response: %w: %w", domain.ErrIndexerUnavailable, err)
	}

	metrics.IndexerRequestsTotal.WithLabelValues(op, "success").Inc()
	metrics.IndexerRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
	return nil
}
