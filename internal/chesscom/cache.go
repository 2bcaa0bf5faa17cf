package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chessgraph/chessgraph/internal/model"
)

// ArchiveCache stores immutable monthly archive payloads so repeated
// discovery runs do not refetch months that can no longer change
type ArchiveCache interface {
	Get(ctx context.Context, url string) ([]model.GameRecord, bool, error)
	Set(ctx context.Context, url string, games []model.GameRecord) error
	Close() error
}

const archiveKeyPrefix = "chessgraph:archive:"

// RedisCache is a Redis-backed ArchiveCache
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheWithClient creates a cache with an existing client (for testing)
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

var _ ArchiveCache = (*RedisCache)(nil)

func (c *RedisCache) Get(ctx context.Context, url string) ([]model.GameRecord, bool, error) {
	data, err := c.client.Get(ctx, archiveKeyPrefix+url).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var games []model.GameRecord
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, false, err
	}
	return games, true, nil
}

func (c *RedisCache) Set(ctx context.Context, url string, games []model.GameRecord) error {
	data, err := json.Marshal(games)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, archiveKeyPrefix+url, data, c.ttl).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// isClosedMonth reports whether the archive URL names a month strictly
// before the current one. Provider archive URLs end in /{YYYY}/{MM};
// anything else is treated as not cacheable.
func isClosedMonth(url string, now time.Time) bool {
	parts := strings.Split(strings.TrimSuffix(url, "/"), "/")
	if len(parts) < 2 {
		return false
	}

	year, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return false
	}
	month, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || month < 1 || month > 12 {
		return false
	}

	now = now.UTC()
	if year != now.Year() {
		return year < now.Year()
	}
	return time.Month(month) < now.Month()
}
