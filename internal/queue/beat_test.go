package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchedule(t *testing.T) {
	good := []ScheduleEntry{
		{Name: "every-five", Task: "a.tasks.x", Spec: "*/5 * * * *"},
		{Name: "mondays", Task: "a.tasks.y", Spec: "0 7 * * 1"},
	}
	assert.NoError(t, ValidateSchedule(good))

	assert.Error(t, ValidateSchedule([]ScheduleEntry{
		{Name: "broken", Task: "a.tasks.x", Spec: "not a cron spec"},
	}))
	assert.Error(t, ValidateSchedule([]ScheduleEntry{
		{Name: "no-task", Spec: "* * * * *"},
	}))
}

func TestBeatRejectsInvalidSpec(t *testing.T) {
	broker, _ := newTestBroker(t)
	client := NewClient(broker, testRouter())
	beat := NewBeat(client, []ScheduleEntry{
		{Name: "bad", Task: "a.tasks.x", Spec: "61 * * * *"},
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := beat.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron spec")
}

func TestBeatStopsOnContextCancel(t *testing.T) {
	broker, _ := newTestBroker(t)
	client := NewClient(broker, testRouter())
	beat := NewBeat(client, []ScheduleEntry{
		{Name: "hourly", Task: "orders.tasks.auto_cancel_unpaid_orders", Spec: "0 * * * *"},
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- beat.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "a drained shutdown exits cleanly")
	case <-time.After(2 * time.Second):
		t.Fatal("beat did not stop after cancel")
	}
}

func TestClientRoutesTasks(t *testing.T) {
	broker, _ := newTestBroker(t)
	client := NewClient(broker, testRouter())
	ctx := context.Background()

	_, err := client.Delay(ctx, "orders.tasks.generate_daily_order_report")
	require.NoError(t, err)
	_, err = client.Delay(ctx, "misc.tasks.other")
	require.NoError(t, err)

	n, err := broker.QueueLength(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = broker.QueueLength(ctx, "celery")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClientDelayAtSetsEta(t *testing.T) {
	broker, _ := newTestBroker(t)
	client := NewClient(broker, testRouter())
	ctx := context.Background()

	eta := time.Now().UTC().Add(time.Hour)
	_, err := client.DelayAt(ctx, eta, "orders.tasks.generate_daily_order_report")
	require.NoError(t, err)

	task, err := broker.Dequeue(ctx, []string{"orders"}, time.Second)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.WithinDuration(t, eta, task.Eta.Time, time.Second)
}
