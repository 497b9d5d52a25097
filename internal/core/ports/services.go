package ports

import (
	"context"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
)

// SnapshotPublisher fans session snapshots out to a message broker.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, sessionID string, snap domain.Snapshot) error
	PublishClosed(ctx context.Context, sessionID string) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
}
