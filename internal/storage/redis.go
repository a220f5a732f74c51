package storage

import (
	"context"
	"fmt"

	"github.com/wonny/holdings/pkg/config"
	"github.com/wonny/holdings/pkg/redis"
)

// Redis stores each key as a plain string value under <prefix>:collection:<key>
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// OpenRedis connects using cfg.Redis
func OpenRedis(ctx context.Context, cfg *config.Config) (*Redis, error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !client.Enabled() {
		return nil, fmt.Errorf("redis storage: %w", redis.ErrDisabled)
	}
	return NewRedis(client, cfg.Storage.Prefix), nil
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	return r.client.GetBlob(ctx, redis.Key(r.prefix, key))
}

func (r *Redis) Save(ctx context.Context, key string, blob []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return r.client.SetBlob(ctx, redis.Key(r.prefix, key), blob)
}

func (r *Redis) Driver() string { return config.DriverRedis }
func (r *Redis) Close() error   { return r.client.Close() }
