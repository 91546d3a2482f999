package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/MrSnakeDoc/geoinv/internal/index"
	"github.com/MrSnakeDoc/geoinv/internal/logger"
)

// MirrorSource is the read side of the Redis mirror
type MirrorSource interface {
	LoadInventory(ctx context.Context) (domain.Inventory, error)
	LastRunSummary(ctx context.Context) (*domain.RunSummary, error)
}

// RedisSyncer warms the memory index from the Redis mirror on startup
type RedisSyncer struct {
	store  MirrorSource
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store MirrorSource,
	idx *index.MemoryIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads the mirrored inventory and last run summary into the memory index.
// The index stays not ready: only a local run marks it ready.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing inventory from redis to memory")

	inv, err := rs.store.LoadInventory(ctx)
	if err != nil {
		return err
	}

	if len(inv) == 0 {
		rs.logger.Info("no layers found in redis")
		return nil
	}

	rs.index.UpdateInventory(inv, "redis")

	summary, err := rs.store.LastRunSummary(ctx)
	if err != nil {
		rs.logger.Warn("failed to read last run summary from redis",
			logger.Error(err))
	} else if summary != nil {
		rs.index.SetMirroredRun(*summary)
	}

	rs.logger.Info("synced inventory from redis",
		logger.Int("count", len(inv)))

	return nil
}
