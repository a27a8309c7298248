package repository

import (
	"context"

	"github.com/massiyousfi23-source/Emargement/pkg/redis"
)

type redisKV struct {
	client *redis.Client
}

// NewRedisKV 创建基于 Redis 的 KVStore
func NewRedisKV(client *redis.Client) KVStore {
	return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	return r.client.Get(ctx, key)
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value)
}
