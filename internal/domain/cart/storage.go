// internal/domain/cart/storage.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Storage persists the line list of one cart session
type Storage interface {
	Load(ctx context.Context, sessionID string) ([]CartLine, error)
	Save(ctx context.Context, sessionID string, lines []CartLine) error
}

// storedCart is the JSON document kept in the cart slot
type storedCart struct {
	Items []CartLine `json:"items"`
}

// RedisStorage keeps each cart under "<namespace>:<session id>"
type RedisStorage struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisStorage creates a Redis-backed cart storage
func NewRedisStorage(client *redis.Client, namespace string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (s *RedisStorage) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.namespace, sessionID)
}

// Load returns the stored lines, or an empty list when the slot does not exist
func (s *RedisStorage) Load(ctx context.Context, sessionID string) ([]CartLine, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var stored storedCart
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if stored.Items == nil {
		stored.Items = []CartLine{}
	}
	return stored.Items, nil
}

// Save overwrites the slot with lines
func (s *RedisStorage) Save(ctx context.Context, sessionID string, lines []CartLine) error {
	if lines == nil {
		lines = []CartLine{}
	}
	data, err := json.Marshal(storedCart{Items: lines})
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Persister returns a listener that writes the line list after every mutation.
// Storage failures are logged and never reach the caller.
func Persister(ctx context.Context, storage Storage, sessionID string, log logrus.FieldLogger) Listener {
	return func(e Event) {
		if err := storage.Save(ctx, sessionID, e.Lines); err != nil {
			log.WithFields(logrus.Fields{
				"cart_session": sessionID,
				"event":        e.Type,
			}).WithError(err).Error("Failed to persist cart")
		}
	}
}
