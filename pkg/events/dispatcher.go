package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler-api/pkg/jobs"
)

const jobTypePublish = "events.publish"

// Dispatcher publishes events asynchronously on a worker queue so callers never
// wait on the broker.
type Dispatcher struct {
	publisher Publisher
	queue     *jobs.Queue
	logger    *zap.Logger
}

// NewDispatcher wires a publisher to a worker queue.
func NewDispatcher(publisher Publisher, cfg jobs.QueueConfig) *Dispatcher {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	d := &Dispatcher{publisher: publisher, logger: cfg.Logger}
	d.queue = jobs.NewQueue("events", d.handle, cfg)
	return d
}

// Start launches the workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains workers and closes the publisher.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
	if err := d.publisher.Close(); err != nil {
		d.logger.Warn("close event publisher", zap.Error(err))
	}
}

// Pending reports events waiting for a worker.
func (d *Dispatcher) Pending() int {
	return d.queue.Pending()
}

// Emit schedules an event for publication.
func (d *Dispatcher) Emit(eventType string, payload interface{}) error {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := d.queue.Enqueue(jobs.Job{ID: event.ID, Type: jobTypePublish, Payload: event}); err != nil {
		return fmt.Errorf("enqueue event %s: %w", eventType, err)
	}
	return nil
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(Event)
	if !ok {
		d.logger.Error("unexpected event job payload", zap.String("job_id", job.ID))
		return nil
	}
	return d.publisher.Publish(ctx, event)
}
