package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "tollgate/pkg/platform/audit"
)

// Outbox is the source of unpublished events.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher delivers a batch to the message bus. It must return only after
// every entry is durably accepted.
type Publisher interface {
	Publish(ctx context.Context, entries []audit.OutboxEntry) error
}

var relayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tollgate_outbox_relayed_total",
	Help: "Outbox entries relayed to the message bus",
}, []string{"result"})

// Worker polls the outbox and relays entries to the publisher. Delivery is
// at-least-once: a crash between Publish and MarkPublished re-sends the batch.
type Worker struct {
	outbox    Outbox
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func NewWorker(outbox Outbox, publisher Publisher, opts ...Option) *Worker {
	w := &Worker{
		outbox:    outbox,
		publisher: publisher,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled. Relay failures are logged and retried on
// the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Flush(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// Flush relays batches until the outbox is drained and returns the number of
// entries published.
func (w *Worker) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		entries, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
		if err != nil {
			return total, err
		}
		if len(entries) == 0 {
			return total, nil
		}
		if err := w.publisher.Publish(ctx, entries); err != nil {
			relayedTotal.WithLabelValues("failed").Add(float64(len(entries)))
			return total, err
		}
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := w.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
			return total, err
		}
		relayedTotal.WithLabelValues("published").Add(float64(len(entries)))
		total += len(entries)
		if len(entries) < w.batchSize {
			return total, nil
		}
	}
}
