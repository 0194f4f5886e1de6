package queue

import (
	"os"
	"time"
)

var (
	hostname, _ = os.Hostname()
	pid         = os.Getpid()
)

// EventType identifies worker and task lifecycle events.
type EventType string

const (
	WorkerOnline    EventType = "worker-online"
	WorkerHeartbeat EventType = "worker-heartbeat"
	WorkerOffline   EventType = "worker-offline"
	TaskReceived    EventType = "task-received"
	TaskStarted     EventType = "task-started"
	TaskSucceeded   EventType = "task-succeeded"
	TaskFailed      EventType = "task-failed"
	TaskRetried     EventType = "task-retried"
	TaskRevoked     EventType = "task-revoked"
)

// Event is published on the event channel for monitoring consumers.
type Event struct {
	Type      EventType `json:"type"`
	Hostname  string    `json:"hostname"`
	PID       int       `json:"pid"`
	Timestamp int64     `json:"timestamp"`

	// Task fields, empty for worker events.
	TaskID    string  `json:"uuid,omitempty"`
	TaskName  string  `json:"name,omitempty"`
	Runtime   float64 `json:"runtime,omitempty"`
	Exception string  `json:"exception,omitempty"`
	Retries   int     `json:"retries,omitempty"`
}

// NewWorkerEvent builds a worker lifecycle event.
func NewWorkerEvent(t EventType) *Event {
	return &Event{
		Type:      t,
		Hostname:  hostname,
		PID:       pid,
		Timestamp: time.Now().Unix(),
	}
}

// NewTaskEvent builds a task lifecycle event.
func NewTaskEvent(t EventType, task *Task) *Event {
	return &Event{
		Type:      t,
		Hostname:  hostname,
		PID:       pid,
		Timestamp: time.Now().Unix(),
		TaskID:    task.ID,
		TaskName:  task.Name,
		Retries:   task.Retries,
	}
}
