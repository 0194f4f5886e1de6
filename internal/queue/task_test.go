package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskTimeFormat(t *testing.T) {
	ts := taskTime{time.Date(2025, 3, 9, 14, 5, 30, 123456000, time.UTC)}
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-09T14:05:30.123456"`, string(data))

	var back taskTime
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Equal(back.Time))
}

func TestTaskTimeNull(t *testing.T) {
	data, err := json.Marshal(taskTime{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var ts taskTime
	require.NoError(t, json.Unmarshal([]byte("null"), &ts))
	assert.True(t, ts.IsZero())
}

func TestArgString(t *testing.T) {
	task := NewTask("x", "hello", 5)

	s, err := task.ArgString(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = task.ArgString(1)
	assert.Error(t, err, "number is not a string")

	_, err = task.ArgString(9)
	assert.Error(t, err, "missing argument")
}

func TestArgIntAcceptsJSONNumbers(t *testing.T) {
	// Args decoded from the wire arrive as float64.
	task := NewTask("x", float64(12), 34, "no")

	n, err := task.ArgInt(0)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = task.ArgInt(1)
	require.NoError(t, err)
	assert.Equal(t, 34, n)

	_, err = task.ArgInt(2)
	assert.Error(t, err)
}

func TestIsExpired(t *testing.T) {
	now := time.Now().UTC()

	task := NewTask("x")
	assert.False(t, task.IsExpired(now), "no expiry set")

	task.Expires = taskTime{now.Add(time.Minute)}
	assert.False(t, task.IsExpired(now))

	task.Expires = taskTime{now.Add(-time.Minute)}
	assert.True(t, task.IsExpired(now))
}

func TestRetryWrapping(t *testing.T) {
	assert.Nil(t, Retry(nil))

	base := errors.New("connection refused")
	err := Retry(base)
	assert.True(t, IsRetryable(err))
	assert.True(t, errors.Is(err, base))

	wrapped := fmt.Errorf("sending mail: %w", err)
	assert.True(t, IsRetryable(wrapped), "retryability survives wrapping")

	assert.False(t, IsRetryable(base))
}
