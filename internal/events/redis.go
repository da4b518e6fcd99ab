package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/yoockh/resumerank/internal/models"
)

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev models.ProgressEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, JobChannel(ev.JobID), b).Err()
}
