package queue

import (
	"context"
	"time"
)

// Enqueuer is the producer side of the queue. Services depend on this
// interface to chain follow-up tasks.
type Enqueuer interface {
	// Delay publishes a task for immediate execution and returns its ID.
	Delay(ctx context.Context, name string, args ...interface{}) (string, error)
}

// Client publishes tasks, routing each to its queue by name.
type Client struct {
	broker Broker
	router *Router
}

func NewClient(broker Broker, router *Router) *Client {
	return &Client{broker: broker, router: router}
}

func (c *Client) Delay(ctx context.Context, name string, args ...interface{}) (string, error) {
	task := NewTask(name, args...)
	if err := c.broker.Enqueue(ctx, c.router.Route(name), task); err != nil {
		return "", err
	}
	return task.ID, nil
}

// DelayAt publishes a task that must not run before eta.
func (c *Client) DelayAt(ctx context.Context, eta time.Time, name string, args ...interface{}) (string, error) {
	task := NewTask(name, args...)
	task.Eta = taskTime{eta}
	if err := c.broker.Enqueue(ctx, c.router.Route(name), task); err != nil {
		return "", err
	}
	return task.ID, nil
}

// Result fetches the stored result for a task ID.
func (c *Client) Result(ctx context.Context, taskID string) (*TaskResult, error) {
	return c.broker.GetResult(ctx, taskID)
}
