package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

// mgetBatch bounds the keys fetched per MGET.
const mgetBatch = 500

// SaveInventory replaces the mirrored inventory with inv. Layers no longer in
// inv are deleted.
func (s *Store) SaveInventory(ctx context.Context, inv domain.Inventory) error {
	existing, err := s.client.SMembers(ctx, KeyAllLayers).Result()
	if err != nil {
		return fmt.Errorf("failed to get layer ids: %w", err)
	}

	keep := make(map[string]bool, len(inv))
	pipe := s.client.TxPipeline()
	for _, l := range inv {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to marshal layer %s: %w", l.Key(), err)
		}
		id := LayerID(l.Key())
		keep[id] = true
		pipe.Set(ctx, LayerKeyFromID(id), data, DefaultLayerTTL)
		pipe.SAdd(ctx, KeyAllLayers, id)
	}
	for _, id := range existing {
		if keep[id] {
			continue
		}
		pipe.Del(ctx, LayerKeyFromID(id))
		pipe.SRem(ctx, KeyAllLayers, id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	return nil
}

// LoadInventory returns the mirrored inventory sorted in persisted order.
// Ids whose record expired are skipped.
func (s *Store) LoadInventory(ctx context.Context) (domain.Inventory, error) {
	ids, err := s.client.SMembers(ctx, KeyAllLayers).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get layer ids: %w", err)
	}

	inv := make(domain.Inventory, 0, len(ids))
	for start := 0; start < len(ids); start += mgetBatch {
		end := min(start+mgetBatch, len(ids))
		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, LayerKeyFromID(id))
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get layers: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var l domain.Layer
			if err := json.Unmarshal([]byte(raw), &l); err != nil {
				return nil, fmt.Errorf("failed to unmarshal layer %s: %w", keys[i], err)
			}
			inv = append(inv, l)
		}
	}

	inv.Sort()
	return inv, nil
}
