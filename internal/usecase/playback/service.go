// Package playback turns a selected match into a playable signed URL.
package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/videoseek/internal/domain"
	"github.com/kailas-cloud/videoseek/internal/metrics"
)

// Playback carries everything a player needs to start: the signed URL and
// the seek offset in seconds. No derived state is left to the client.
type Playback struct {
	DocumentID   string  `json:"documentId"`
	DocumentKind string  `json:"documentKind"`
	URL          string  `json:"url"`
	StartSeconds float64 `json:"startSeconds"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
}

// Service assembles playback URLs: resolve the document, mint a token,
// compose, convert the seek timecode.
type Service struct {
	resolver Resolver
	signer   Signer
	validFor time.Duration
}

// New creates a playback service. validFor bounds each minted token's
// lifetime; <= 0 falls back to the signer's default.
func New(resolver Resolver, signer Signer, validFor time.Duration) *Service {
	return &Service{resolver: resolver, signer: signer, validFor: validFor}
}

// Playback builds a playable URL for the selection, seeking to its best
// timestamp. A fresh token is minted on every call; the composed URL is
// never stored, so it cannot outlive the token's validity window.
func (s *Service) Playback(ctx context.Context, sel domain.Selection) (Playback, error) {
	baseURL, err := s.resolver.ResolveURL(ctx, sel.DocumentID)
	if err != nil {
		return Playback{}, fmt.Errorf("resolve document: %w", err)
	}

	token, err := s.signer.SignContainer(s.validFor)
	if err != nil {
		metrics.SASTokensMintedTotal.WithLabelValues("error").Inc()
		return Playback{}, fmt.Errorf("sign container access: %w", err)
	}
	metrics.SASTokensMintedTotal.WithLabelValues("success").Inc()

	startSeconds, err := domain.ParseTimecode(sel.BestTime)
	if err != nil {
		return Playback{}, fmt.Errorf("parse seek timecode: %w", err)
	}

	return Playback{
		DocumentID:   sel.DocumentID,
		DocumentKind: sel.DocumentKind,
		URL:          composeURL(baseURL, sel.BestTime, token),
		StartSeconds: startSeconds,
		StartTime:    sel.StartTime,
		EndTime:      sel.EndTime,
	}, nil
}

// composeURL concatenates base URL, start-offset parameter and signed token.
// The token is assumed to be a bare query fragment without a leading '?' or '&'.
func composeURL(baseURL, startTime, token string) string {
	return baseURL + "?start=" + startTime + "&" + token
}
