package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Job names understood by the worker.
const (
	JobIngest    = "ingest"
	JobNormalize = "normalize"
)

// Job is the wire contract for queued pipeline work. Ingest jobs carry the
// source and search parameters; normalize jobs carry the raw listing id.
type Job struct {
	Name      string `json:"name"`
	Source    string `json:"source,omitempty"`
	RegionKey string `json:"region_key,omitempty"`
	QueryText string `json:"query_text,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	RawID     int64  `json:"raw_id,omitempty"`
}

// RedisQueue pushes and pops jobs through a single Redis list.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(addr, password string, db int, key string) *RedisQueue {
	return &RedisQueue{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		key: key,
	}
}

// Enqueue serializes the job and pushes it onto the head of the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("queue: push job: %w", err)
	}
	return nil
}

// Dequeue blocks until a job arrives or the timeout elapses; a timed-out
// poll returns (nil, nil) so the caller can loop.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue: pop job: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) < 2 {
		return nil, fmt.Errorf("queue: unexpected BRPOP reply of length %d", len(res))
	}
	job := &Job{}
	if err := json.Unmarshal([]byte(res[1]), job); err != nil {
		return nil, fmt.Errorf("queue: unmarshal job: %w", err)
	}
	return job, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Worker consumes jobs in a loop until the context is canceled. A failed job
// is logged and dropped rather than retried, so one poisoned payload cannot
// wedge the queue.
type Worker struct {
	Queue  *RedisQueue
	Handle func(ctx context.Context, job Job) error
	Logger *logrus.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := w.Queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Logger.WithError(err).Error("Failed to dequeue job")
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log := w.Logger.WithFields(logrus.Fields{"job": job.Name, "source": job.Source})
		log.Info("Processing job")
		if err := w.Handle(ctx, *job); err != nil {
			log.WithError(err).Error("Job failed")
			continue
		}
		log.Info("Job done")
	}
}
