// Package report keeps the outcome of recent seed runs in Redis.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pageza/foodseed/backend/internal/types"
	"github.com/redis/go-redis/v9"
)

const (
	latestKey  = "seed:runs:latest"
	historyKey = "seed:runs:history"

	// DefaultHistorySize is how many past runs are kept
	DefaultHistorySize = 20
)

// ErrNoReports is returned when no run has been recorded yet
var ErrNoReports = errors.New("no seed runs recorded")

// Store persists seed summaries: the latest run plus a capped history, newest first
type Store struct {
	client      *redis.Client
	historySize int
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, historySize: DefaultHistorySize}
}

// Save records summary as the latest run and prepends it to the history
func (s *Store) Save(ctx context.Context, summary *types.SeedSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode seed summary: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, latestKey, data, 0)
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, int64(s.historySize-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save seed summary %s: %w", summary.RunID, err)
	}
	return nil
}

// Latest returns the most recently saved run
func (s *Store) Latest(ctx context.Context) (*types.SeedSummary, error) {
	data, err := s.client.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoReports
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest seed summary: %w", err)
	}

	var summary types.SeedSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode latest seed summary: %w", err)
	}
	return &summary, nil
}

// History returns up to limit past runs, newest first
func (s *Store) History(ctx context.Context, limit int) ([]types.SeedSummary, error) {
	if limit <= 0 || limit > s.historySize {
		limit = s.historySize
	}

	raw, err := s.client.LRange(ctx, historyKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read seed history: %w", err)
	}

	runs := make([]types.SeedSummary, 0, len(raw))
	for _, item := range raw {
		var summary types.SeedSummary
		if err := json.Unmarshal([]byte(item), &summary); err != nil {
			return nil, fmt.Errorf("failed to decode seed history entry: %w", err)
		}
		runs = append(runs, summary)
	}
	return runs, nil
}
