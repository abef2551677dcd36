package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"currency-crisis-lab/internal/domain"
)

// DefaultKeyPrefix namespaces cache keys in a shared Redis.
const DefaultKeyPrefix = "crisislab:series:"

// Redis stores series as JSON blobs with a TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures a Redis cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 0 means no expiry
	Prefix   string        // defaults to DefaultKeyPrefix
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return NewRedisWithClient(client, opts.Prefix, opts.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

var _ Cache = (*Redis)(nil)

func (r *Redis) key(fingerprint string) string {
	return r.prefix + fingerprint
}

func (r *Redis) Get(ctx context.Context, fingerprint string) ([]domain.ClassifiedRow, bool, error) {
	data, err := r.client.Get(ctx, r.key(fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached series: %w", err)
	}

	var rows []domain.ClassifiedRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached series: %w", err)
	}
	return rows, true, nil
}

func (r *Redis) Put(ctx context.Context, fingerprint string, rows []domain.ClassifiedRow) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}
	if err := r.client.Set(ctx, r.key(fingerprint), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached series: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, fingerprint string) error {
	if err := r.client.Del(ctx, r.key(fingerprint)).Err(); err != nil {
		return fmt.Errorf("delete cached series: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
