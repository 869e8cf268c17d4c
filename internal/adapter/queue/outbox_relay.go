package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

// Publisher is what the relay needs from the broker side.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// OutboxRelay drains pending outbox rows to the broker on an interval.
// Events stay pending on publish failure and are retried next tick, so
// delivery is at-least-once; consumers must be idempotent.
type OutboxRelay struct {
	outbox   usecase.OutboxRepo
	pub      Publisher
	interval time.Duration
	batch    int
	log      *slog.Logger
}

func NewOutboxRelay(outbox usecase.OutboxRepo, pub Publisher, interval time.Duration, log *slog.Logger) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelay{outbox: outbox, pub: pub, interval: interval, batch: 100, log: log}
}

// Start runs the drain loop until ctx is cancelled.
func (r *OutboxRelay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *OutboxRelay) drain(ctx context.Context) {
	records, err := r.outbox.FetchPending(ctx, r.batch)
	if err != nil {
		r.log.Error("outbox fetch failed", "error", err)
		return
	}
	for _, rec := range records {
		if err := r.pub.Publish(ctx, rec.Channel, rec.Payload); err != nil {
			r.log.Error("outbox publish failed", "outbox_id", rec.ID, "channel", rec.Channel, "error", err)
			return
		}
		if err := r.outbox.MarkSent(ctx, rec.ID); err != nil {
			r.log.Error("outbox mark sent failed", "outbox_id", rec.ID, "error", err)
			return
		}
	}
}
