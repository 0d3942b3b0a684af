package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/pkg/logger"
	pkgRedis "github.com/vogiaan1904/spacehost/pkg/redis"
)

const spaceRecordTTL = 30 * 24 * time.Hour

var ErrSpaceNotFound = errors.New("space record not found")

type SpaceHistoryRepository interface {
	RecordStarted(ctx context.Context, rec models.SpaceRecord) error
	RecordEnded(ctx context.Context, spaceID string, endedAt time.Time) error
	LastEndedAt(ctx context.Context) (time.Time, bool, error)
	Get(ctx context.Context, spaceID string) (*models.SpaceRecord, error)
	ListRecent(ctx context.Context, limit int64) ([]models.SpaceRecord, error)
}

type redisSpaceHistoryRepository struct {
	cli     *pkgRedis.Client
	l       logger.Logger
	agentID string
}

// NewRedisSpaceHistoryRepository scopes every key to agentID so several
// agents can share one Redis.
func NewRedisSpaceHistoryRepository(cli *pkgRedis.Client, l logger.Logger, agentID string) SpaceHistoryRepository {
	return &redisSpaceHistoryRepository{
		cli:     cli,
		l:       l,
		agentID: agentID,
	}
}

func (r *redisSpaceHistoryRepository) RecordStarted(ctx context.Context, rec models.SpaceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal space record: %w", err)
	}

	pipe := r.cli.GetClient().TxPipeline()
	pipe.Set(ctx, r.spaceKey(rec.SpaceID), data, spaceRecordTTL)
	pipe.ZAdd(ctx, r.spacesKey(), redis.Z{
		Score:  float64(rec.StartedAt.UnixMilli()),
		Member: rec.SpaceID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisSpaceHistoryRepository.RecordStarted: %v", err)
		return err
	}

	r.l.Debugf(ctx, "redisSpaceHistoryRepository.RecordStarted: space=%s", rec.SpaceID)
	return nil
}

func (r *redisSpaceHistoryRepository) RecordEnded(ctx context.Context, spaceID string, endedAt time.Time) error {
	rec, err := r.Get(ctx, spaceID)
	if errors.Is(err, ErrSpaceNotFound) {
		rec = &models.SpaceRecord{SpaceID: spaceID, AgentID: r.agentID}
	} else if err != nil {
		return err
	}
	rec.EndedAt = &endedAt

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal space record: %w", err)
	}

	pipe := r.cli.GetClient().TxPipeline()
	pipe.Set(ctx, r.spaceKey(spaceID), data, spaceRecordTTL)
	pipe.Set(ctx, r.lastEndedKey(), strconv.FormatInt(endedAt.UnixMilli(), 10), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisSpaceHistoryRepository.RecordEnded: %v", err)
		return err
	}

	return nil
}

func (r *redisSpaceHistoryRepository) LastEndedAt(ctx context.Context) (time.Time, bool, error) {
	data, err := r.cli.Get(ctx, r.lastEndedKey())
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		r.l.Errorf(ctx, "redisSpaceHistoryRepository.LastEndedAt: %v", err)
		return time.Time{}, false, err
	}

	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid last ended marker %q: %w", data, err)
	}

	return time.UnixMilli(ms).UTC(), true, nil
}

func (r *redisSpaceHistoryRepository) Get(ctx context.Context, spaceID string) (*models.SpaceRecord, error) {
	data, err := r.cli.Get(ctx, r.spaceKey(spaceID))
	if err == redis.Nil {
		return nil, ErrSpaceNotFound
	}
	if err != nil {
		r.l.Errorf(ctx, "redisSpaceHistoryRepository.Get: %v", err)
		return nil, err
	}

	var rec models.SpaceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.l.Errorf(ctx, "redisSpaceHistoryRepository.Get: %v", err)
		return nil, err
	}

	return &rec, nil
}

// ListRecent returns up to limit records, newest first. Expired records are
// skipped.
func (r *redisSpaceHistoryRepository) ListRecent(ctx context.Context, limit int64) ([]models.SpaceRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	ids, err := r.cli.GetClient().ZRevRange(ctx, r.spacesKey(), 0, limit-1).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisSpaceHistoryRepository.ListRecent: %v", err)
		return nil, err
	}

	out := make([]models.SpaceRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if errors.Is(err, ErrSpaceNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}

	return out, nil
}

func (r *redisSpaceHistoryRepository) spaceKey(spaceID string) string {
	return fmt.Sprintf("spacehost:%s:space:%s", r.agentID, spaceID)
}

func (r *redisSpaceHistoryRepository) spacesKey() string {
	return fmt.Sprintf("spacehost:%s:spaces", r.agentID)
}

func (r *redisSpaceHistoryRepository) lastEndedKey() string {
	return fmt.Sprintf("spacehost:%s:last_ended_at", r.agentID)
}
