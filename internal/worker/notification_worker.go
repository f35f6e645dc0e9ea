package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/monitor-report/internal/events"
	"github.com/spec-kit/monitor-report/internal/service"
)

// ErrQueueFull is returned to the dispatcher when a notification is dropped.
var ErrQueueFull = errors.New("notification queue full")

const defaultQueueSize = 128

type job struct {
	event   events.Event
	handler events.EventHandler
}

// NotificationWorker runs notification handlers off the request path.
type NotificationWorker struct {
	jobs   chan job
	logger *zap.Logger
	done   chan struct{}
}

// StartNotificationWorker registers notification handlers so that publishing only
// enqueues; a background goroutine runs them until ctx is cancelled.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, logger *zap.Logger, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &NotificationWorker{
		jobs:   make(chan job, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	if notificationService != nil {
		notificationService.RegisterHandlers(w.enqueue)
	}
	go w.run(ctx)
	return w
}

// Done is closed once the worker has stopped.
func (w *NotificationWorker) Done() <-chan struct{} {
	return w.done
}

func (w *NotificationWorker) enqueue(handler events.EventHandler) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		select {
		case w.jobs <- job{event: event, handler: handler}:
			return nil
		default:
			return ErrQueueFull
		}
	}
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopped", zap.Int("pending", len(w.jobs)))
			return
		case j := <-w.jobs:
			if err := j.handler(ctx, j.event); err != nil {
				w.logger.Warn("notification failed",
					zap.String("event_type", string(j.event.Type)),
					zap.String("event_id", j.event.ID),
					zap.Error(err))
			}
		}
	}
}
