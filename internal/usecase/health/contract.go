package health

import "context"

// CachePinger checks catalog cache connectivity.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker verifies the remote video index is reachable.
type IndexChecker interface {
	HealthCheck(ctx context.Context) error
}
