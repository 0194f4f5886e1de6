package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testRouter() *Router {
	return NewRouter("celery", map[string]string{"orders.tasks.": "orders"})
}

// startWorker runs a worker in the background and returns its stop func.
func startWorker(t *testing.T, broker Broker, registry *Registry, opts WorkerOptions) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	worker := NewWorker(broker, registry, testRouter(), opts, testLogger())
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()
	stop := func() {
		cancel()
		<-done
	}
	t.Cleanup(stop)
	return stop
}

func waitForStatus(t *testing.T, broker Broker, taskID string, want ResultStatus) *TaskResult {
	t.Helper()
	var result *TaskResult
	require.Eventually(t, func() bool {
		r, err := broker.GetResult(context.Background(), taskID)
		if err != nil || r.Status != want {
			return false
		}
		result = r
		return true
	}, 5*time.Second, 20*time.Millisecond, "task %s never reached %s", taskID, want)
	return result
}

func TestWorkerShutsDownCleanly(t *testing.T) {
	broker, _ := newTestBroker(t)
	worker := NewWorker(broker, NewRegistry(), testRouter(), WorkerOptions{Queues: []string{"orders"}}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "a drained shutdown exits cleanly")
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestWorkerExecutesTask(t *testing.T) {
	broker, _ := newTestBroker(t)
	registry := NewRegistry()

	var calls atomic.Int32
	registry.Register("orders.tasks.generate_daily_order_report", func(ctx context.Context, task *Task) (interface{}, error) {
		calls.Add(1)
		return 7, nil
	})
	startWorker(t, broker, registry, WorkerOptions{Queues: []string{"orders"}})

	task := NewTask("orders.tasks.generate_daily_order_report")
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	result := waitForStatus(t, broker, task.ID, StatusSuccess)
	assert.Equal(t, float64(7), result.Result)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWorkerReceivesTaskArguments(t *testing.T) {
	broker, _ := newTestBroker(t)
	registry := NewRegistry()

	registry.Register("orders.tasks.update_order_status_task", func(ctx context.Context, task *Task) (interface{}, error) {
		id, err := task.ArgString(0)
		if err != nil {
			return nil, err
		}
		status, err := task.ArgString(1)
		if err != nil {
			return nil, err
		}
		return id + ":" + status, nil
	})
	startWorker(t, broker, registry, WorkerOptions{Queues: []string{"orders"}})

	task := NewTask("orders.tasks.update_order_status_task", "order-1", "shipped")
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	result := waitForStatus(t, broker, task.ID, StatusSuccess)
	assert.Equal(t, "order-1:shipped", result.Result)
}

func TestWorkerFailsUnregisteredTask(t *testing.T) {
	broker, _ := newTestBroker(t)
	startWorker(t, broker, NewRegistry(), WorkerOptions{Queues: []string{"orders"}})

	task := NewTask("orders.tasks.nope")
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	result := waitForStatus(t, broker, task.ID, StatusFailure)
	assert.Contains(t, result.Traceback, "unregistered")
}

func TestWorkerRecordsHandlerFailure(t *testing.T) {
	broker, _ := newTestBroker(t)
	registry := NewRegistry()
	registry.Register("orders.tasks.boom", func(ctx context.Context, task *Task) (interface{}, error) {
		return nil, errors.New("database unreachable")
	})
	startWorker(t, broker, registry, WorkerOptions{Queues: []string{"orders"}})

	task := NewTask("orders.tasks.boom")
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	result := waitForStatus(t, broker, task.ID, StatusFailure)
	assert.Equal(t, "database unreachable", result.Traceback)
}

func TestWorkerRecoversFromPanic(t *testing.T) {
	broker, _ := newTestBroker(t)
	registry := NewRegistry()
	registry.Register("orders.tasks.panics", func(ctx context.Context, task *Task) (interface{}, error) {
		panic("nil map write")
	})
	startWorker(t, broker, registry, WorkerOptions{Queues: []string{"orders"}})

	task := NewTask("orders.tasks.panics")
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	result := waitForStatus(t, broker, task.ID, StatusFailure)
	assert.Contains(t, result.Traceback, "nil map write")
}

func TestWorkerRetriesRetryableFailure(t *testing.T) {
	broker, _ := newTestBroker(t)
	registry := NewRegistry()

	// Fail retryably once, then succeed on the re-delivery.
	var attempts atomic.Int32
	registry.Register("orders.tasks.flaky", func(ctx context.Context, task *Task) (interface{}, error) {
		if attempts.Add(1) == 1 {
			return nil, Retry(errors.New("smtp timeout"))
		}
		return "sent", nil
	})
	startWorker(t, broker, registry, WorkerOptions{
		Queues:     []string{"orders"},
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	})

	task := NewTask("orders.tasks.flaky")
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	result := waitForStatus(t, broker, task.ID, StatusSuccess)
	assert.Equal(t, "sent", result.Result)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestWorkerStopsRetryingAtMaxRetries(t *testing.T) {
	broker, _ := newTestBroker(t)
	registry := NewRegistry()

	var attempts atomic.Int32
	registry.Register("orders.tasks.always_down", func(ctx context.Context, task *Task) (interface{}, error) {
		attempts.Add(1)
		return nil, Retry(errors.New("still down"))
	})
	startWorker(t, broker, registry, WorkerOptions{
		Queues:     []string{"orders"},
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
	})

	task := NewTask("orders.tasks.always_down")
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	result := waitForStatus(t, broker, task.ID, StatusFailure)
	assert.Equal(t, "still down", result.Traceback)
	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), attempts.Load())
}

func TestWorkerRevokesExpiredTask(t *testing.T) {
	broker, _ := newTestBroker(t)
	registry := NewRegistry()

	var calls atomic.Int32
	registry.Register("orders.tasks.expired", func(ctx context.Context, task *Task) (interface{}, error) {
		calls.Add(1)
		return nil, nil
	})
	startWorker(t, broker, registry, WorkerOptions{Queues: []string{"orders"}})

	task := NewTask("orders.tasks.expired")
	task.Expires = taskTime{time.Now().UTC().Add(-time.Minute)}
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	waitForStatus(t, broker, task.ID, StatusRevoked)
	assert.Zero(t, calls.Load())
}

func TestWorkerHonorsEta(t *testing.T) {
	broker, _ := newTestBroker(t)
	registry := NewRegistry()

	var ranAt atomic.Value
	registry.Register("orders.tasks.later", func(ctx context.Context, task *Task) (interface{}, error) {
		ranAt.Store(time.Now())
		return nil, nil
	})
	startWorker(t, broker, registry, WorkerOptions{Queues: []string{"orders"}})

	eta := time.Now().UTC().Add(300 * time.Millisecond)
	task := NewTask("orders.tasks.later")
	task.Eta = taskTime{eta}
	require.NoError(t, broker.Enqueue(context.Background(), "orders", task))

	waitForStatus(t, broker, task.ID, StatusSuccess)
	executed, ok := ranAt.Load().(time.Time)
	require.True(t, ok)
	assert.False(t, executed.Before(eta.Add(-50*time.Millisecond)), "task ran before its eta")
}
