package playback

import (
	"context"
	"time"
)

// Resolver maps a document id to its base playable URL.
type Resolver interface {
	ResolveURL(ctx context.Context, documentID string) (string, error)
}

// Signer mints a signed-access query fragment for the video container.
type Signer interface {
	SignContainer(validFor time.Duration) (string, error)
}
