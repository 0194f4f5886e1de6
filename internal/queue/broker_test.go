package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*RedisBroker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisBroker(rdb), mr
}

func TestEnqueueDequeueRoundtrip(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	task := NewTask("orders.tasks.send_order_confirmation_email", "abc-123")
	require.NoError(t, broker.Enqueue(ctx, "orders", task))

	got, err := broker.Dequeue(ctx, []string{"orders"}, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Name, got.Name)
	require.Len(t, got.Args, 1)
	assert.Equal(t, "abc-123", got.Args[0])
}

func TestDequeueDrainsOldestFirst(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	first := NewTask("orders.tasks.generate_daily_order_report")
	second := NewTask("orders.tasks.generate_daily_order_report")
	require.NoError(t, broker.Enqueue(ctx, "orders", first))
	require.NoError(t, broker.Enqueue(ctx, "orders", second))

	got, err := broker.Dequeue(ctx, []string{"orders"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = broker.Dequeue(ctx, []string{"orders"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestDequeueTimeoutReturnsNil(t *testing.T) {
	broker, _ := newTestBroker(t)

	got, err := broker.Dequeue(context.Background(), []string{"empty"}, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEnqueueRejectsEmptyQueue(t *testing.T) {
	broker, _ := newTestBroker(t)
	err := broker.Enqueue(context.Background(), "", NewTask("x"))
	assert.Error(t, err)
}

func TestTaskWireFormat(t *testing.T) {
	broker, mr := newTestBroker(t)
	ctx := context.Background()

	task := NewTask("customers.tasks.send_welcome_email", "id-1")
	task.Eta = taskTime{time.Date(2025, 8, 17, 10, 30, 0, 0, time.UTC)}
	require.NoError(t, broker.Enqueue(ctx, "customers", task))

	raw, err := mr.Lpop("customers")
	require.NoError(t, err)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))
	assert.Equal(t, "customers.tasks.send_welcome_email", envelope["task"])
	assert.Equal(t, task.ID, envelope["id"])
	assert.Equal(t, "2025-08-17T10:30:00", envelope["eta"])
}

func TestResultBackend(t *testing.T) {
	broker, mr := newTestBroker(t)
	ctx := context.Background()

	result := &TaskResult{ID: "task-1", Status: StatusSuccess, Result: float64(42)}
	require.NoError(t, broker.StoreResult(ctx, result, time.Hour))

	// Results live under the celery meta key with the configured TTL.
	assert.True(t, mr.Exists("celery-task-meta-task-1"))
	assert.Equal(t, time.Hour, mr.TTL("celery-task-meta-task-1"))

	got, err := broker.GetResult(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, float64(42), got.Result)
}

func TestGetResultUnknownTaskIsPending(t *testing.T) {
	broker, _ := newTestBroker(t)

	got, err := broker.GetResult(context.Background(), "never-ran")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "never-ran", got.ID)
}

func TestQueueLengthAndPurge(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, broker.Enqueue(ctx, "payments", NewTask("payments.tasks.cleanup_old_callbacks")))
	}

	n, err := broker.QueueLength(ctx, "payments")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	purged, err := broker.PurgeQueue(ctx, "payments")
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)

	n, err = broker.QueueLength(ctx, "payments")
	require.NoError(t, err)
	assert.Zero(t, n)
}
