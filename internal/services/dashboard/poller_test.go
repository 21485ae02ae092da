package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

// blockingCycle records generations and holds every refresh until released.
type blockingCycle struct {
	mu      sync.Mutex
	gens    []uint64
	started chan uint64
	release chan struct{}
}

func newBlockingCycle() *blockingCycle {
	return &blockingCycle{started: make(chan uint64, 16), release: make(chan struct{})}
}

func (c *blockingCycle) Refresh(ctx context.Context, gen uint64) {
	c.mu.Lock()
	c.gens = append(c.gens, gen)
	c.mu.Unlock()
	c.started <- gen
	select {
	case <-c.release:
	case <-ctx.Done():
	}
}

func (c *blockingCycle) generations() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64{}, c.gens...)
}

func waitStarted(t *testing.T, c *blockingCycle) uint64 {
	t.Helper()
	select {
	case g := <-c.started:
		return g
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not start")
		return 0
	}
}

func TestPoller_InitialRefreshAndSkipWhileRefreshing(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	cycle := newBlockingCycle()
	p := NewPoller(cycle, 10*time.Millisecond, logger.NewNop(), m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Equal(t, uint64(1), waitStarted(t, cycle))
	assert.Equal(t, Refreshing, p.State())

	// several ticks go by while the first cycle is held
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.ticksSkipped.WithLabelValues(triggerTick)) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{1}, cycle.generations())

	cycle.release <- struct{}{}
	assert.Equal(t, uint64(2), waitStarted(t, cycle), "next tick starts the next generation")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, Idle, p.State())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cycles.WithLabelValues(triggerInitial)))
}

func TestPoller_TriggerRespectsGate(t *testing.T) {
	cycle := newBlockingCycle()
	p := NewPoller(cycle, time.Hour, logger.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	waitStarted(t, cycle)
	p.Trigger()
	p.Trigger()
	p.Trigger()

	// the pending trigger is consumed and dropped while the cycle runs
	require.Eventually(t, func() bool { return len(p.trigger) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(1), p.Generation())

	cycle.release <- struct{}{}
	require.Eventually(t, func() bool { return p.State() == Idle }, time.Second, 5*time.Millisecond)

	p.Trigger()
	assert.Equal(t, uint64(2), waitStarted(t, cycle))
	cycle.release <- struct{}{}
}

func TestPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(newBlockingCycle(), 0, logger.NewNop(), nil)
	assert.Equal(t, DefaultRefreshInterval, p.interval)
	assert.Equal(t, 3*time.Second, DefaultRefreshInterval)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "REFRESHING", Refreshing.String())
}
