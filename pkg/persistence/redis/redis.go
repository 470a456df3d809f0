// Package redis provides Redis persistence implementation for run history.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "outreach"
	pingTimeout   = 5 * time.Second
)

// Persistence stores runs as JSON strings indexed by a sorted set on start time.
type Persistence struct {
	client  redis.UniversalClient
	logger  *slog.Logger
	runRepo *RunRepository
}

// NewPersistence connects to the Redis instance described by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	p := NewPersistenceWithClient(logger, redis.NewClient(options))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.HealthCheck(pingCtx); err != nil {
		_ = p.client.Close()

		return nil, err
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return p, nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(logger *slog.Logger, client redis.UniversalClient) *Persistence {
	return &Persistence{
		client:  client,
		logger:  logger,
		runRepo: &RunRepository{client: client, prefix: defaultPrefix},
	}
}

func (p *Persistence) RunRepository() persistence.RunRepository {
	return p.runRepo
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

// RunRepository handles run-related Redis operations.
type RunRepository struct {
	client redis.UniversalClient
	prefix string
}

func (r *RunRepository) runKey(id string) string {
	return r.prefix + ":run:" + id
}

func (r *RunRepository) indexKey() string {
	return r.prefix + ":runs"
}

// Save writes the run and indexes it by start time in one transaction.
func (r *RunRepository) Save(ctx context.Context, run *models.RunRecord) error {
	if run == nil || run.ID == "" {
		return persistence.NewRunError("Save", "", persistence.ErrInvalidRun)
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.runKey(run.ID), data, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(run.StartedAt.UnixMilli()), Member: run.ID})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.RunRecord, error) {
	data, err := r.client.Get(ctx, r.runKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	var run models.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

// GetAll returns runs newest first. Index entries whose run is gone are skipped.
func (r *RunRepository) GetAll(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*models.RunRecord, 0, len(ids))
	if len(ids) == 0 {
		return runs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.runKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var run models.RunRecord
		if err := json.Unmarshal([]byte(raw), &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run %s: %w", ids[i], err)
		}

		runs = append(runs, &run)
	}

	return runs, nil
}
