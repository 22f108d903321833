package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lifecal/lifecal-api/internal/models"
	"github.com/lifecal/lifecal-api/pkg/jobs"
)

type eventLister interface {
	ListByOwner(ctx context.Context, userID int64) ([]models.Event, error)
}

type broadcastMetrics interface {
	RecordBroadcast()
}

// Broadcaster turns store mutations into asynchronous full-list pushes.
// Each mutation enqueues a job that reloads the owner's current list and
// hands it to the hub, so the mutating request never waits on fan-out.
type Broadcaster struct {
	hub     *Hub
	lister  eventLister
	queue   *jobs.Queue
	logger  *zap.Logger
	metrics broadcastMetrics
}

// NewBroadcaster wires the hub to the job queue.
func NewBroadcaster(hub *Hub, lister eventLister, cfg jobs.QueueConfig, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Broadcaster{hub: hub, lister: lister, logger: logger}
	cfg.Logger = logger
	b.queue = jobs.NewQueue("event-broadcast", b.handle, cfg)
	return b
}

// SetMetrics attaches an optional broadcast counter.
func (b *Broadcaster) SetMetrics(metrics broadcastMetrics) {
	b.metrics = metrics
}

// Start launches the fan-out workers.
func (b *Broadcaster) Start(ctx context.Context) {
	b.queue.Start(ctx)
}

// Stop drains the fan-out workers.
func (b *Broadcaster) Stop() {
	b.queue.Stop()
}

// Broadcast schedules a full-list push for the owner. Best-effort: a
// full queue drops the push instead of failing the caller's mutation.
func (b *Broadcaster) Broadcast(userID int64) {
	if b.hub.SubscriberCount(userID) == 0 {
		return
	}
	b.queue.TryEnqueue(jobs.Job{
		ID:      fmt.Sprintf("broadcast-%d", userID),
		Type:    "event_list_push",
		Payload: userID,
	})
}

func (b *Broadcaster) handle(ctx context.Context, job jobs.Job) error {
	userID, ok := job.Payload.(int64)
	if !ok {
		return fmt.Errorf("unexpected broadcast payload %T", job.Payload)
	}

	events, err := b.lister.ListByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("load events for broadcast: %w", err)
	}

	b.hub.Publish(userID, events)
	if b.metrics != nil {
		b.metrics.RecordBroadcast()
	}
	return nil
}
