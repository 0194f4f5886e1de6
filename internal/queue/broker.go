package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// resultKeyPrefix matches the Celery Redis result backend layout so the
	// queue can be inspected with the same tooling.
	resultKeyPrefix = "celery-task-meta-"

	// eventChannel is the pub/sub channel worker and task events go to.
	eventChannel = "celery-task-events"
)

// Broker moves tasks between producers and workers and stores results.
type Broker interface {
	Enqueue(ctx context.Context, queue string, task *Task) error
	Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*Task, error)
	StoreResult(ctx context.Context, result *TaskResult, ttl time.Duration) error
	GetResult(ctx context.Context, taskID string) (*TaskResult, error)
	QueueLength(ctx context.Context, queue string) (int64, error)
	PurgeQueue(ctx context.Context, queue string) (int64, error)
	PublishEvent(ctx context.Context, event *Event) error
	Close() error
}

// RedisBroker implements Broker on Redis lists: LPUSH to enqueue, BRPOP to
// consume, so each queue drains oldest-first.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Enqueue(ctx context.Context, queue string, task *Task) error {
	if queue == "" {
		return errors.New("queue name is empty")
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.Name, err)
	}
	return b.rdb.LPush(ctx, queue, payload).Err()
}

// Dequeue blocks up to timeout waiting for a task on any of the given
// queues. Returns (nil, nil) when the timeout elapses with nothing to do.
func (b *RedisBroker) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*Task, error) {
	res, err := b.rdb.BRPop(ctx, timeout, queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPOP returns [queue, payload].
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("malformed task on queue %s: %w", res[0], err)
	}
	return &task, nil
}

func (b *RedisBroker) StoreResult(ctx context.Context, result *TaskResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result for task %s: %w", result.ID, err)
	}
	return b.rdb.Set(ctx, resultKeyPrefix+result.ID, payload, ttl).Err()
}

// GetResult returns the stored result, or a PENDING placeholder when the
// backend has nothing for the task yet.
func (b *RedisBroker) GetResult(ctx context.Context, taskID string) (*TaskResult, error) {
	payload, err := b.rdb.Get(ctx, resultKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &TaskResult{ID: taskID, Status: StatusPending}, nil
		}
		return nil, err
	}
	var result TaskResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *RedisBroker) QueueLength(ctx context.Context, queue string) (int64, error) {
	return b.rdb.LLen(ctx, queue).Result()
}

func (b *RedisBroker) PurgeQueue(ctx context.Context, queue string) (int64, error) {
	n, err := b.rdb.LLen(ctx, queue).Result()
	if err != nil {
		return 0, err
	}
	if err := b.rdb.Del(ctx, queue).Err(); err != nil {
		return 0, err
	}
	return n, nil
}

func (b *RedisBroker) PublishEvent(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, eventChannel, payload).Err()
}

func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}
