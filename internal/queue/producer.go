package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

type RedisProducer struct {
	Redis *redis.Client
}

func NewProducer(redis *redis.Client) Producer {
	return &RedisProducer{Redis: redis}
}

// Enqueue schedules a job. The score is the unix second the job becomes
// ready; retries re-enqueue with a backoff-shifted score.
func (p *RedisProducer) Enqueue(ctx context.Context, job Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.Redis.ZAdd(ctx, QueueKey, redis.Z{
		Score:  float64(job.CreatedAt),
		Member: jobBytes,
	}).Err()
}
