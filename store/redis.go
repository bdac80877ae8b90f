package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis stores each document under "<key>:<guild>", e.g. "queue:1234".
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func redisKey(guildID, key string) string {
	return key + ":" + guildID
}

func (r *Redis) Get(ctx context.Context, guildID, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, redisKey(guildID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, guildID, key string, value []byte) error {
	return r.rdb.Set(ctx, redisKey(guildID, key), value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, guildID, key string) error {
	return r.rdb.Del(ctx, redisKey(guildID, key)).Err()
}
