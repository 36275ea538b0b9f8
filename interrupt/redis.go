package interrupt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// KeyPrefix namespaces task keys. Default: "planexec:interrupt"
	KeyPrefix string

	// TTL bounds how long a record outlives its last update. Default: 24h
	TTL time.Duration

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// RedisStore keeps records in Redis so several engine processes share them.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, opts.KeyPrefix, opts.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "planexec:interrupt"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(rootPlanID string) string {
	return s.prefix + ":" + rootPlanID
}

// Get returns the record for rootPlanID.
func (s *RedisStore) Get(ctx context.Context, rootPlanID string) (Record, error) {
	data, err := s.client.Get(ctx, s.key(rootPlanID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("failed to get task %s: %w", rootPlanID, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal task %s: %w", rootPlanID, err)
	}
	return rec, nil
}

// Put stores rec and refreshes its TTL.
func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	if rec.RootPlanID == "" {
		return ErrInvalidPlanID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := s.client.Set(ctx, s.key(rec.RootPlanID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task %s: %w", rec.RootPlanID, err)
	}
	return nil
}

// Delete removes the record for rootPlanID.
func (s *RedisStore) Delete(ctx context.Context, rootPlanID string) error {
	if err := s.client.Del(ctx, s.key(rootPlanID)).Err(); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", rootPlanID, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
