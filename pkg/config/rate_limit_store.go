package config

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// RateLimitStore counts hits of a key inside a fixed window.
type RateLimitStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

type rateLimitEntry struct {
	Count   int
	ResetAt time.Time
}

// MemoryStore keeps counters in process. Limits are per replica.
type MemoryStore struct {
	cache *cache.Cache
	mutex sync.Mutex
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(5*time.Minute, 10*time.Minute),
		now:   time.Now,
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item, found := s.cache.Get(key); found {
		entry := item.(rateLimitEntry)

		if now.Before(entry.ResetAt) {
			entry.Count++
			s.cache.Set(key, entry, entry.ResetAt.Sub(now))

			return entry.Count, entry.ResetAt, nil
		}
	}

	entry := rateLimitEntry{Count: 1, ResetAt: now.Add(window)}
	s.cache.Set(key, entry, window)

	return entry.Count, entry.ResetAt, nil
}

func (s *MemoryStore) ItemCount() int {
	return s.cache.ItemCount()
}

// RedisStore shares counters between replicas.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient builds a client from a redis:// or rediss:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	options, err := redis.ParseURL(url)

	if err != nil {
		return nil, err
	}

	return redis.NewClient(options), nil
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	remaining := ttl.Val()

	// First hit of the window, or a key that lost its expiry.
	if remaining < 0 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, err
		}

		remaining = window
	}

	return int(incr.Val()), time.Now().Add(remaining), nil
}
