package queue

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Wire time format used inside task envelopes (UTC, microseconds).
const taskTimeFormat = `"2006-01-02T15:04:05.999999"`

var jsonNull = []byte("null")

// taskTime marshals to the queue's microsecond timestamp format and treats
// null as the zero time.
type taskTime struct {
	time.Time
}

func (ct *taskTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	t, err := time.Parse(taskTimeFormat, string(data))
	if err != nil {
		return err
	}
	*ct = taskTime{t}
	return nil
}

func (ct taskTime) MarshalJSON() ([]byte, error) {
	if ct.IsZero() {
		return jsonNull, nil
	}
	return []byte(ct.UTC().Format(taskTimeFormat)), nil
}

// Task is a single unit of work on a queue.
type Task struct {
	Name    string                 `json:"task"`
	ID      string                 `json:"id"`
	Args    []interface{}          `json:"args,omitempty"`
	Kwargs  map[string]interface{} `json:"kwargs,omitempty"`
	Retries int                    `json:"retries,omitempty"`
	Eta     taskTime               `json:"eta,omitempty"`
	Expires taskTime               `json:"expires,omitempty"`
}

// NewTask builds a task with a fresh ID.
func NewTask(name string, args ...interface{}) *Task {
	return &Task{
		Name: name,
		ID:   uuid.NewString(),
		Args: args,
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("%s[%s]", t.Name, t.ID)
}

// IsExpired reports whether the task's expiry has passed.
func (t *Task) IsExpired(now time.Time) bool {
	return !t.Expires.IsZero() && t.Expires.Before(now)
}

// ArgString returns positional argument i as a string.
func (t *Task) ArgString(i int) (string, error) {
	if i >= len(t.Args) {
		return "", fmt.Errorf("task %s: missing argument %d", t.Name, i)
	}
	s, ok := t.Args[i].(string)
	if !ok {
		return "", fmt.Errorf("task %s: argument %d is %T, want string", t.Name, i, t.Args[i])
	}
	return s, nil
}

// ArgInt returns positional argument i as an int. JSON numbers decode as
// float64, so both forms are accepted.
func (t *Task) ArgInt(i int) (int, error) {
	if i >= len(t.Args) {
		return 0, fmt.Errorf("task %s: missing argument %d", t.Name, i)
	}
	switch v := t.Args[i].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	}
	return 0, fmt.Errorf("task %s: argument %d is %T, want number", t.Name, i, t.Args[i])
}

// ResultStatus is the lifecycle state of a task execution.
type ResultStatus string

const (
	StatusPending ResultStatus = "PENDING"
	StatusStarted ResultStatus = "STARTED"
	StatusSuccess ResultStatus = "SUCCESS"
	StatusRetry   ResultStatus = "RETRY"
	StatusFailure ResultStatus = "FAILURE"
	StatusRevoked ResultStatus = "REVOKED"
)

// TaskResult is what the result backend stores for a task.
type TaskResult struct {
	ID        string       `json:"task_id"`
	Status    ResultStatus `json:"status"`
	Result    interface{}  `json:"result"`
	Traceback string       `json:"traceback,omitempty"`
}

// retryableError marks a handler failure as safe to re-enqueue.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retry wraps err so the worker re-enqueues the task with an exponential
// countdown instead of failing it outright.
func Retry(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was wrapped with Retry.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
