package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ScheduleEntry is one periodic task: a cron spec plus the task to enqueue.
type ScheduleEntry struct {
	Name string        // human-readable schedule name
	Task string        // registered task name
	Spec string        // standard 5-field cron expression
	Args []interface{} // positional arguments, if any
}

// Beat dispatches the schedule: at each entry's cron tick it publishes the
// task through the client. Only one beat instance should run per deployment.
type Beat struct {
	client  *Client
	entries []ScheduleEntry
	log     *logrus.Logger
	cron    *cron.Cron
}

func NewBeat(client *Client, entries []ScheduleEntry, log *logrus.Logger) *Beat {
	return &Beat{
		client:  client,
		entries: entries,
		log:     log,
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
}

// Run installs every entry and dispatches until ctx is cancelled.
func (b *Beat) Run(ctx context.Context) error {
	for _, entry := range b.entries {
		entry := entry
		if _, err := b.cron.AddFunc(entry.Spec, func() { b.dispatch(entry) }); err != nil {
			return fmt.Errorf("schedule %q: invalid cron spec %q: %w", entry.Name, entry.Spec, err)
		}
		b.log.WithFields(logrus.Fields{
			"schedule": entry.Name,
			"task":     entry.Task,
			"spec":     entry.Spec,
		}).Debug("schedule registered")
	}

	b.log.Infof("beat started with %d schedules", len(b.entries))
	b.cron.Start()

	<-ctx.Done()
	stopped := b.cron.Stop()
	<-stopped.Done()
	b.log.Info("beat stopped")
	// A cancelled context is the normal shutdown path, not an error.
	if err := ctx.Err(); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (b *Beat) dispatch(entry ScheduleEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	taskID, err := b.client.Delay(ctx, entry.Task, entry.Args...)
	if err != nil {
		b.log.WithError(err).Errorf("failed to dispatch schedule %q", entry.Name)
		return
	}
	b.log.WithFields(logrus.Fields{
		"schedule": entry.Name,
		"task":     entry.Task,
		"id":       taskID,
	}).Info("scheduled task dispatched")
}

// ValidateSchedule parses every entry's cron spec, returning the first
// error. Used by tests and at startup before Run.
func ValidateSchedule(entries []ScheduleEntry) error {
	for _, entry := range entries {
		if _, err := cron.ParseStandard(entry.Spec); err != nil {
			return fmt.Errorf("schedule %q: %w", entry.Name, err)
		}
		if entry.Task == "" {
			return fmt.Errorf("schedule %q: no task name", entry.Name)
		}
	}
	return nil
}
