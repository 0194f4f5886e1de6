package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WorkerOptions tunes a worker instance. Zero values fall back to the
// defaults below.
type WorkerOptions struct {
	// Queues to consume from, in priority order.
	Queues []string
	// Concurrency is the number of executor slots. The solo pool is
	// Concurrency == 1.
	Concurrency int
	// TimeLimit is the hard per-task execution limit.
	TimeLimit time.Duration
	// ResultExpires is the TTL of stored results.
	ResultExpires time.Duration
	// MaxRetries bounds automatic re-deliveries of retryable failures.
	MaxRetries int
	// RetryDelay is the base countdown; attempt n waits RetryDelay * 2^n.
	RetryDelay time.Duration
}

const (
	defaultTimeLimit     = 30 * time.Minute
	defaultResultExpires = time.Hour
	defaultMaxRetries    = 3
	defaultRetryDelay    = time.Minute
	dequeueTimeout       = 5 * time.Second
	heartbeatInterval    = 2 * time.Second
)

// Worker consumes tasks from the broker and executes registered handlers.
type Worker struct {
	broker   Broker
	registry *Registry
	router   *Router
	opts     WorkerOptions
	log      *logrus.Logger

	wg sync.WaitGroup
}

func NewWorker(broker Broker, registry *Registry, router *Router, opts WorkerOptions, log *logrus.Logger) *Worker {
	if len(opts.Queues) == 0 {
		opts.Queues = []string{router.DefaultQueue()}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = defaultTimeLimit
	}
	if opts.ResultExpires <= 0 {
		opts.ResultExpires = defaultResultExpires
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &Worker{broker: broker, registry: registry, router: router, opts: opts, log: log}
}

// Run consumes tasks until ctx is cancelled, then drains in-flight work.
func (w *Worker) Run(ctx context.Context) error {
	w.log.WithFields(logrus.Fields{
		"queues":      w.opts.Queues,
		"concurrency": w.opts.Concurrency,
	}).Info("worker ready")

	w.publishEvent(NewWorkerEvent(WorkerOnline))
	stopHeartbeat := w.startHeartbeat(ctx)

	slots := make(chan struct{}, w.opts.Concurrency)

	for {
		select {
		case <-ctx.Done():
			stopHeartbeat()
			w.wg.Wait()
			w.publishEvent(NewWorkerEvent(WorkerOffline))
			w.log.Info("worker stopped")
			// A cancelled context is the normal shutdown path, not an error.
			if err := ctx.Err(); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		default:
		}

		task, err := w.broker.Dequeue(ctx, w.opts.Queues, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.WithError(err).Error("failed to fetch tasks")
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.publishEvent(NewTaskEvent(TaskReceived, task))

		slots <- struct{}{}
		w.wg.Add(1)
		go func(task *Task) {
			defer w.wg.Done()
			defer func() { <-slots }()
			w.waitForEta(ctx, task)
			w.runTask(ctx, task)
		}(task)
	}
}

// waitForEta blocks until the task's ETA, if it lies in the future.
func (w *Worker) waitForEta(ctx context.Context, task *Task) {
	if task.Eta.IsZero() {
		return
	}
	delay := time.Until(task.Eta.Time)
	if delay <= 0 {
		return
	}
	w.log.WithField("task", task.String()).Debugf("task delayed %s until eta", delay.Round(time.Second))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (w *Worker) runTask(ctx context.Context, task *Task) {
	result := &TaskResult{ID: task.ID, Status: StatusStarted}

	if task.IsExpired(time.Now().UTC()) {
		w.log.WithField("task", task.String()).Warn("task expired, revoking")
		result.Status = StatusRevoked
		w.storeResult(ctx, result)
		w.publishEvent(NewTaskEvent(TaskRevoked, task))
		return
	}

	handler, ok := w.registry.Lookup(task.Name)
	if !ok {
		result.Status = StatusFailure
		result.Traceback = fmt.Sprintf("unregistered task %q", task.Name)
		w.log.Errorf("no handler registered for task %q", task.Name)
		w.storeResult(ctx, result)
		w.publishEvent(NewTaskEvent(TaskFailed, task))
		return
	}

	// Track STARTED so monitors can distinguish queued from running.
	w.storeResult(ctx, result)
	w.publishEvent(NewTaskEvent(TaskStarted, task))

	start := time.Now()
	value, err := w.execute(ctx, task, handler)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		result.Status = StatusSuccess
		result.Result = value
		ev := NewTaskEvent(TaskSucceeded, task)
		ev.Runtime = elapsed.Seconds()
		w.publishEvent(ev)
		w.log.WithFields(logrus.Fields{
			"task":    task.String(),
			"runtime": elapsed.Round(time.Millisecond).String(),
		}).Info("task succeeded")

	case IsRetryable(err) && task.Retries < w.opts.MaxRetries:
		countdown := w.opts.RetryDelay * (1 << task.Retries)
		retry := *task
		retry.Retries++
		retry.Eta = taskTime{time.Now().UTC().Add(countdown)}
		if enqErr := w.broker.Enqueue(ctx, w.router.Route(task.Name), &retry); enqErr != nil {
			w.log.WithError(enqErr).Errorf("failed to re-enqueue task %s", task)
			result.Status = StatusFailure
			result.Traceback = err.Error()
			w.publishEvent(NewTaskEvent(TaskFailed, task))
			break
		}
		result.Status = StatusRetry
		result.Traceback = err.Error()
		ev := NewTaskEvent(TaskRetried, task)
		ev.Exception = err.Error()
		w.publishEvent(ev)
		w.log.WithError(err).Warnf("task %s scheduled for retry %d/%d in %s",
			task, retry.Retries, w.opts.MaxRetries, countdown)

	default:
		result.Status = StatusFailure
		result.Traceback = err.Error()
		ev := NewTaskEvent(TaskFailed, task)
		ev.Exception = err.Error()
		w.publishEvent(ev)
		w.log.WithError(err).Errorf("task %s failed", task)
	}

	w.storeResult(ctx, result)
}

// execute runs the handler under the hard time limit, converting panics
// into errors.
func (w *Worker) execute(ctx context.Context, task *Task, handler HandlerFunc) (value interface{}, err error) {
	runCtx, cancel := context.WithTimeout(ctx, w.opts.TimeLimit)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v\n%s", r, debug.Stack())
		}
	}()

	return handler(runCtx, task)
}

func (w *Worker) startHeartbeat(ctx context.Context) func() {
	ticker := time.NewTicker(heartbeatInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				w.publishEvent(NewWorkerEvent(WorkerHeartbeat))
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

func (w *Worker) storeResult(ctx context.Context, result *TaskResult) {
	if err := w.broker.StoreResult(context.WithoutCancel(ctx), result, w.opts.ResultExpires); err != nil {
		w.log.WithError(err).Errorf("failed to store result for task %s", result.ID)
	}
}

func (w *Worker) publishEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.broker.PublishEvent(ctx, event); err != nil {
		w.log.WithError(err).Debug("failed to publish event")
	}
}
