package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/PI304/PinTalk-API/internal/observability"
	"github.com/PI304/PinTalk-API/internal/queue"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
)

// WorkerPool drains the persistence queue. Failed jobs retry with
// exponential backoff until MaxRetry or expiry, then land in the DLQ.
type WorkerPool struct {
	Redis      *redis.Client
	WorkerNum  int
	JobChannel chan string
	wg         sync.WaitGroup
	repo       chatroom_repo.ChatroomRepoContract
}

func NewWorkerPool(redis *redis.Client, workerNum int, repo chatroom_repo.ChatroomRepoContract) *WorkerPool {
	return &WorkerPool{
		Redis:      redis,
		WorkerNum:  workerNum,
		JobChannel: make(chan string, 100),
		repo:       repo,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	log.Info().Msgf("Starting worker pool with %d workers", wp.WorkerNum)

	for i := 0; i < wp.WorkerNum; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	go func() {
		defer close(wp.JobChannel)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping worker pool")
				return
			default:
				now := float64(time.Now().Unix())
				result, err := wp.Redis.ZRangeByScore(ctx, queue.QueueKey, &redis.ZRangeBy{
					Min:    "-inf",
					Max:    fmt.Sprintf("%f", now),
					Offset: 0,
					Count:  1,
				}).Result()

				if err != nil {
					if err != redis.Nil {
						log.Error().Err(err).Msg("Worker: failed to pop job")
					}
					time.Sleep(1 * time.Second)
					continue
				}

				if len(result) == 0 {
					time.Sleep(1 * time.Second)
					continue
				}

				payload := result[0]
				wp.Redis.ZRem(ctx, queue.QueueKey, payload)

				select {
				case wp.JobChannel <- payload:
				case <-ctx.Done():
					// The job is already removed from the queue; put it back
					// so a shutdown with a full channel cannot lose it.
					wp.Redis.ZAdd(context.Background(), queue.QueueKey, redis.Z{
						Score:  now,
						Member: payload,
					})
					log.Info().Msg("Stopping worker pool")
					return
				}
			}
		}
	}()
}

func (wp *WorkerPool) Stop() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Info().Msgf("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("Worker %d stopping", id)
			return
		case payload, ok := <-wp.JobChannel:
			if !ok {
				return
			}

			var job queue.Job
			if err := json.Unmarshal([]byte(payload), &job); err != nil {
				log.Warn().Err(err).Msgf("Worker %d: Failed to unmarshal job payload", id)
				continue
			}
			if err := wp.handleJob(ctx, job); err != nil {
				job.Retry++
				job.ErrorMsg = err.Error()

				now := time.Now().Unix()
				if job.Retry >= job.MaxRetry || now > job.ExpireAt {
					log.Error().Str("job_id", job.ID).Str("type", job.Type).Str("error", job.ErrorMsg).Msg("Job moved to DLQ")
					dlqBytes, _ := json.Marshal(job)
					wp.Redis.RPush(ctx, queue.DLQKey, dlqBytes)
					observability.IncQueueJob(job.Type, "dlq")
				} else {
					// exponential backoff
					delay := time.Duration(5*(1<<job.Retry)) * time.Second
					retryAt := time.Now().Add(delay).Unix()

					jobBytes, _ := json.Marshal(job)
					wp.Redis.ZAdd(ctx, queue.QueueKey, redis.Z{
						Score:  float64(retryAt),
						Member: jobBytes,
					})
					observability.IncQueueJob(job.Type, "retry")
					log.Warn().Str("job_id", job.ID).Msgf("Retrying in %v seconds (%d/%d)", delay.Seconds(), job.Retry, job.MaxRetry)
				}
			} else {
				observability.IncQueueJob(job.Type, "ok")
			}
		}
	}
}
