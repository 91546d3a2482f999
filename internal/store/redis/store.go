package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLayerTTL lets an abandoned mirror age out; every run refreshes it.
	DefaultLayerTTL = 7 * 24 * time.Hour
	// DefaultEventsCap bounds the mirrored event list.
	DefaultEventsCap = 1000
)

// Store mirrors the inventory, recent events and the last run summary in Redis.
// The CSV/JSON artifacts stay the source of truth.
type Store struct {
	client    redis.UniversalClient
	eventsCap int64
}

// NewStore creates a new Redis store. eventsCap <= 0 uses DefaultEventsCap.
func NewStore(client redis.UniversalClient, eventsCap int) *Store {
	if eventsCap <= 0 {
		eventsCap = DefaultEventsCap
	}
	return &Store{
		client:    client,
		eventsCap: int64(eventsCap),
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
