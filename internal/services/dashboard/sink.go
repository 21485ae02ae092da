package dashboard

import (
	"context"
	"time"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

const (
	DefaultSinkQueue   = 4
	DefaultSinkTimeout = 2 * time.Second
)

// AsyncSink feeds a slow sink from its own goroutine so a refresh cycle only
// ever enqueues. A batch that finds the queue full is dropped.
type AsyncSink struct {
	next    SnapshotSink
	queue   chan []entities.SensorSnapshot
	timeout time.Duration
	log     logger.Logger
	metrics *Metrics
}

var _ SnapshotSink = (*AsyncSink)(nil)

func NewAsyncSink(next SnapshotSink, depth int, timeout time.Duration, log logger.Logger, m *Metrics) *AsyncSink {
	if depth <= 0 {
		depth = DefaultSinkQueue
	}
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	return &AsyncSink{
		next:    next,
		queue:   make(chan []entities.SensorSnapshot, depth),
		timeout: timeout,
		log:     log.With("component", "sink"),
		metrics: m,
	}
}

// RecordSnapshots enqueues the batch and returns at once.
func (a *AsyncSink) RecordSnapshots(_ context.Context, snapshots []entities.SensorSnapshot) {
	select {
	case a.queue <- snapshots:
	default:
		a.metrics.sinkDropped()
		a.log.Warnw("sink busy, batch dropped", "snapshots", len(snapshots))
	}
}

// Run hands queued batches to the wrapped sink, each with its own timeout,
// until ctx is done.
func (a *AsyncSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-a.queue:
			wctx, cancel := context.WithTimeout(ctx, a.timeout)
			a.next.RecordSnapshots(wctx, batch)
			cancel()
		}
	}
}
