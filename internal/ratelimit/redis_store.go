package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key retention. Daily counters stay readable well past the date
// rollover; the sliding window set only needs to survive the window itself.
const (
	redisDailyTTL  = 48 * time.Hour
	redisWindowTTL = 10 * time.Minute
)

// RedisStore is a Redis-backed UsageStore. The daily count lives in a string
// counter mutated with INCR and the sliding window in a sorted set scored by
// unix milliseconds, so all mutations are atomic on the server.
type RedisStore struct {
	client *redis.Client
}

var _ UsageStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore over an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get implements UsageStore.
func (s *RedisStore) Get(ctx context.Context, identity, date string) (Record, bool, error) {
	countRaw, err := s.client.Get(ctx, dailyKey(identity, date)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Record{}, false, fmt.Errorf("ratelimit: redis get: %w", err)
	}
	missing := errors.Is(err, redis.Nil)

	var count int64
	if !missing {
		count, err = strconv.ParseInt(countRaw, 10, 64)
		if err != nil {
			return Record{}, false, fmt.Errorf("ratelimit: redis counter value %q: %w", countRaw, err)
		}
	}

	entries, err := s.client.ZRangeWithScores(ctx, windowKey(identity), 0, -1).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("ratelimit: redis window: %w", err)
	}
	if missing && len(entries) == 0 {
		return Record{}, false, nil
	}

	timestamps := make([]int64, 0, len(entries))
	for _, entry := range entries {
		timestamps = append(timestamps, int64(entry.Score))
	}
	return Record{Date: date, DailyCount: count, RecentTimestamps: timestamps}, true, nil
}

// Record implements UsageStore using a single transactional pipeline.
func (s *RedisStore) Record(ctx context.Context, identity, date string, now time.Time, window time.Duration) (Record, error) {
	nowMS := now.UnixMilli()
	daily := dailyKey(identity, date)
	recent := windowKey(identity)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, daily)
	pipe.Expire(ctx, daily, redisDailyTTL)
	pipe.ZRemRangeByScore(ctx, recent, "-inf", strconv.FormatInt(nowMS-window.Milliseconds(), 10))
	pipe.ZAdd(ctx, recent, redis.Z{
		Score:  float64(nowMS),
		Member: strconv.FormatInt(nowMS, 10) + "-" + uuid.NewString(),
	})
	pipe.Expire(ctx, recent, redisWindowTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return Record{}, fmt.Errorf("ratelimit: redis record: %w", err)
	}

	entries, err := s.client.ZRangeWithScores(ctx, recent, 0, -1).Result()
	if err != nil {
		return Record{}, fmt.Errorf("ratelimit: redis window: %w", err)
	}
	timestamps := make([]int64, 0, len(entries))
	for _, entry := range entries {
		timestamps = append(timestamps, int64(entry.Score))
	}
	return Record{Date: date, DailyCount: incr.Val(), RecentTimestamps: timestamps}, nil
}

func dailyKey(identity, date string) string {
	return "ai:usage:" + identity + ":" + date
}

func windowKey(identity string) string {
	return "ai:recent:" + identity
}
