// internal/domain/payment/snapshot.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ves-sport/commerce-backend/internal/domain/cart"
)

// SnapshotStore keeps the cart lines submitted for a checkout session until the
// payment round-trip completes
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, snap *Snapshot) error
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
}

// Snapshot is the cart state captured when the checkout session was opened
type Snapshot struct {
	UserID        string          `json:"userId"`
	CartSessionID string          `json:"cartSessionId,omitempty"`
	Items         []cart.CartLine `json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// RedisSnapshotStore stores snapshots under checkout:session:<id>
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotStore creates a Redis-backed snapshot store
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("checkout:session:%s", sessionID)
}

// Save stores the snapshot with the configured TTL
func (s *RedisSnapshotStore) Save(ctx context.Context, sessionID string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode checkout snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save checkout snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot, or nil when it expired or was never written
func (s *RedisSnapshotStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode checkout snapshot: %w", err)
	}
	return &snap, nil
}
