package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

// SnapshotSink receives every fresh batch of latest snapshots. It is called
// from inside the refresh cycle and must return quickly; put anything that
// does I/O behind an AsyncSink.
type SnapshotSink interface {
	RecordSnapshots(ctx context.Context, snapshots []entities.SensorSnapshot)
}

// Dashboard is the refresh cycle: cards, charts and status are fetched
// concurrently and none of them waits for or cancels the others.
type Dashboard struct {
	api    API
	charts *Synchronizer
	view   *View
	sinks  []SnapshotSink

	log     logger.Logger
	metrics *Metrics
}

var _ Cycle = (*Dashboard)(nil)

func NewDashboard(api API, view *View, cfg SynchronizerConfig, log logger.Logger, m *Metrics, sinks ...SnapshotSink) *Dashboard {
	return &Dashboard{
		api:     api,
		charts:  NewSynchronizer(api, view.Charts, cfg, log, m),
		view:    view,
		sinks:   sinks,
		log:     log,
		metrics: m,
	}
}

func (d *Dashboard) View() *View { return d.view }

// Refresh runs one cycle. Failures are logged and leave the affected part of
// the view as it was.
func (d *Dashboard) Refresh(ctx context.Context, generation uint64) {
	var g errgroup.Group
	g.Go(func() error {
		d.refreshCards(ctx, generation)
		return nil
	})
	g.Go(func() error {
		if err := d.charts.Sync(ctx, generation); err != nil {
			d.log.Errorw("charts refresh failed", "generation", generation, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		d.refreshStatus(ctx, generation)
		return nil
	})
	_ = g.Wait()
}

func (d *Dashboard) refreshCards(ctx context.Context, generation uint64) {
	snapshots, err := d.api.FetchLatestSnapshots(ctx)
	if err != nil {
		d.log.Errorw("cards refresh failed", "generation", generation, "error", err)
		return
	}
	if !d.view.SetCards(generation, RenderCards(snapshots)) {
		d.metrics.stale("cards")
		return
	}
	for _, s := range d.sinks {
		s.RecordSnapshots(ctx, snapshots)
	}
}

func (d *Dashboard) refreshStatus(ctx context.Context, generation uint64) {
	stats, err := d.api.FetchStatistics(ctx)
	if err != nil {
		d.log.Errorw("statistics refresh failed", "generation", generation, "error", err)
	}
	if _, ok := d.view.Status.Apply(generation, stats, err); !ok {
		d.metrics.stale("status")
	}
}
