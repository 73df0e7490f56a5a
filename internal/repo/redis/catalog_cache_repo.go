package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const catalogKey = "catalog:published"

var ErrCacheMiss = errors.New("cache miss")

// CatalogCacheRepo holds the serialized published-course list. The catalog
// service invalidates it whenever publish or pause state changes.
type CatalogCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCatalogCacheRepo(client *goredis.Client, ttl time.Duration) *CatalogCacheRepo {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CatalogCacheRepo{client: client, ttl: ttl}
}

func (r *CatalogCacheRepo) Get(ctx context.Context) ([]byte, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	payload, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get catalog cache: %w", err)
	}

	return payload, nil
}

func (r *CatalogCacheRepo) Set(ctx context.Context, payload []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if len(payload) == 0 {
		return nil
	}

	if err := r.client.Set(ctx, catalogKey, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("set catalog cache: %w", err)
	}

	return nil
}

func (r *CatalogCacheRepo) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	if err := r.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}

	return nil
}
