package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the keys when REDIS_PREFIX is not set.
const DefaultRedisPrefix = "cryptofeed"

// RedisStore keeps identifiers in a list and the daily date in a string key.
type RedisStore struct {
	client    redis.UniversalClient
	published string
	daily     string
}

// NewRedisStore parses a redis:// URL.
func NewRedisStore(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts), prefix), nil
}

// NewRedisStoreWithClient uses an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string) *RedisStore {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, published: prefix + ":published", daily: prefix + ":daily"}
}

// Close closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	ids, err := s.client.LRange(ctx, s.published, 0, -1).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis lrange: %w", err)
	}
	daily, err := s.client.Get(ctx, s.daily).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("redis get: %w", err)
	}
	rec := Record{LastDailySummary: daily}
	if len(ids) > 0 {
		rec.Published = ids
	}
	return rec, nil
}

// Save rewrites both keys in one MULTI/EXEC.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.published)
		if len(rec.Published) > 0 {
			values := make([]interface{}, len(rec.Published))
			for i, id := range rec.Published {
				values[i] = id
			}
			pipe.RPush(ctx, s.published, values...)
		}
		if rec.LastDailySummary == "" {
			pipe.Del(ctx, s.daily)
		} else {
			pipe.Set(ctx, s.daily, rec.LastDailySummary, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}
