package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AppendEvents pushes events to the capped list, oldest first.
func (s *Store) AppendEvents(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	values := make([]any, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, KeyEvents, values...)
	pipe.LTrim(ctx, KeyEvents, -s.eventsCap, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append events: %w", err)
	}
	return nil
}

// RecentEvents returns up to n of the newest mirrored events, oldest first.
func (s *Store) RecentEvents(ctx context.Context, n int) ([]domain.Event, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, KeyEvents, int64(-n), -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	events := make([]domain.Event, 0, len(raw))
	for _, r := range raw {
		var e domain.Event
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

// SaveRunSummary stores the summary of the last completed run.
func (s *Store) SaveRunSummary(ctx context.Context, summary domain.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := s.client.Set(ctx, KeyLastRun, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}
	return nil
}

// LastRunSummary returns the stored summary, or nil when no run was mirrored yet.
func (s *Store) LastRunSummary(ctx context.Context) (*domain.RunSummary, error) {
	data, err := s.client.Get(ctx, KeyLastRun).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &summary, nil
}
