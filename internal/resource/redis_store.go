package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pdf-tile-renderer/internal/domain"
)

// RedisConf holds the connection settings for RedisStore.
type RedisConf struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps blobs in redis hashes so several server processes can
// serve the same tiles. Every blob expires after TTL even if never revoked.
type RedisStore struct {
	prefix string
	ttl    time.Duration
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, conf RedisConf, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", conf.Addr, err)
	}
	return NewRedisStoreWithClient(client, conf.TTL, prefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{prefix: prefix, ttl: ttl, client: client}
}

func (s *RedisStore) key(url string) string {
	return "tile:" + url
}

func (s *RedisStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	url := newURL(s.prefix)
	key := s.key(url)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "ct", contentType, "data", data)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis put: %w", err)
	}
	return url, nil
}

func (s *RedisStore) Get(ctx context.Context, url string) (*domain.Blob, error) {
	fields, err := s.client.HGetAll(ctx, s.key(url)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return &domain.Blob{ContentType: fields["ct"], Data: []byte(data)}, nil
}

func (s *RedisStore) Revoke(ctx context.Context, url string) error {
	n, err := s.client.Del(ctx, s.key(url)).Result()
	if err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	if n == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
