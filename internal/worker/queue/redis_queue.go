package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultName is the redis list render jobs are queued on.
const DefaultName = "socialcard:render_jobs"

// RedisQueue is a FIFO of job ids on a redis list: LPUSH to enqueue,
// BRPOP to dequeue.
type RedisQueue struct {
	rdb       *redis.Client
	queueName string
	wait      time.Duration
}

func NewRedisQueue(rdb *redis.Client, queueName string) *RedisQueue {
	if queueName == "" {
		queueName = DefaultName
	}
	return &RedisQueue{rdb: rdb, queueName: queueName, wait: 5 * time.Second}
}

// Name returns the redis key of the list.
func (q *RedisQueue) Name() string { return q.queueName }

// Push enqueues a job id.
func (q *RedisQueue) Push(ctx context.Context, jobID string) error {
	return q.rdb.LPush(ctx, q.queueName, jobID).Err()
}

// Pop blocks for up to the queue's wait time and returns the next job id,
// or "" when none arrived.
func (q *RedisQueue) Pop(ctx context.Context) (string, error) {
	res, err := q.rdb.BRPop(ctx, q.wait, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

// Len returns the number of queued jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.queueName).Result()
}
