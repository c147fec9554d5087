package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
)

// DB is a Redis-backed storage area. It lets several client processes share
// one session storage, e.g. when the JSON API runs behind a load balancer.
type DB struct {
	client    *redis.Client
	keyPrefix string
}

// NewDB connects to Redis using the profile's Redis settings.
func NewDB(profile *profile.Profile) (*DB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         profile.RedisAddr,
		Password:     profile.RedisPassword,
		DB:           profile.RedisDB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	slog.Info("Redis session storage connected", "addr", profile.RedisAddr)

	return &DB{
		client:    client,
		keyPrefix: profile.RedisPrefix,
	}, nil
}

func (r *DB) GetItem(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get item %s", key)
	}
	return data, nil
}

// SetItem stores the value without expiry; freshness is decided by the caller.
func (r *DB) SetItem(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.fullKey(key), value, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to set item %s", key)
	}
	return nil
}

func (r *DB) RemoveItem(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.fullKey(key)).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete item %s", key)
	}
	return nil
}

func (r *DB) Close() error {
	return r.client.Close()
}

func (r *DB) fullKey(key string) string {
	return r.keyPrefix + key
}

var _ store.Driver = (*DB)(nil)
