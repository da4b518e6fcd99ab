package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis accepts either a plain host:port or a redis:// / rediss:// URL.
func NewRedis(ctx context.Context, cfg Redis) (*redis.Client, error) {
	val := strings.TrimSpace(cfg.Addr)
	if val == "" {
		return nil, errors.New("REDIS_ADDR environment variable is not set")
	}

	var rdb *redis.Client
	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		opt, err := redis.ParseURL(val)
		if err != nil {
			return nil, err
		}
		rdb = redis.NewClient(opt)
	} else {
		rdb = redis.NewClient(&redis.Options{Addr: val})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
