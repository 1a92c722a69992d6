// Package cache holds the Redis-backed cache for operator dashboard stats.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"caffinity/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	statsKey   = "caffinity:stats:dashboard"
	versionKey = "caffinity:stats:dashboard:version"
)

var (
	// ErrCacheMiss is returned when no stats are cached.
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleVersion is returned by Set when an invalidation happened after
	// the caller read the version. Nothing is written.
	ErrStaleVersion = errors.New("stats version moved")
)

// StatsCache stores the most recent dashboard aggregates. Writers read
// Version before computing and pass it to Set, which only stores the entry if
// no Invalidate has run in between.
type StatsCache interface {
	Get(ctx context.Context) (*model.DashboardStats, error)
	Version(ctx context.Context) (int64, error)
	Set(ctx context.Context, version int64, stats *model.DashboardStats) error
	Invalidate(ctx context.Context) error
}

// setIfVersion stores ARGV[2] under KEYS[1] for ARGV[3] ms when KEYS[2] still
// holds ARGV[1]. A missing version key counts as 0.
var setIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if not current then current = '0' end
if current ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// NewClient parses url, connects and verifies connectivity.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStatsCache is a StatsCache backed by a single Redis key.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatsCache returns a cache whose entries expire after ttl.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisStatsCache{client: client, ttl: ttl}
}

func (r *RedisStatsCache) Get(ctx context.Context) (*model.DashboardStats, error) {
	data, err := r.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var stats model.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats failed: %w", err)
	}
	return &stats, nil
}

// Version returns the invalidation counter. It is 0 until the first Invalidate.
func (r *RedisStatsCache) Version(ctx context.Context) (int64, error) {
	v, err := r.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return v, nil
}

func (r *RedisStatsCache) Set(ctx context.Context, version int64, stats *model.DashboardStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats failed: %w", err)
	}
	stored, err := setIfVersion.Run(ctx, r.client,
		[]string{statsKey, versionKey},
		strconv.FormatInt(version, 10), data, r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if stored == 0 {
		return ErrStaleVersion
	}
	return nil
}

// Invalidate bumps the version and drops the entry in one transaction, so a
// recompute that started earlier cannot write its result back.
func (r *RedisStatsCache) Invalidate(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Del(ctx, statsKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

// Noop never stores anything. Used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context) (*model.DashboardStats, error)      { return nil, ErrCacheMiss }
func (Noop) Version(context.Context) (int64, error)                  { return 0, nil }
func (Noop) Set(context.Context, int64, *model.DashboardStats) error { return nil }
func (Noop) Invalidate(context.Context) error                        { return nil }
