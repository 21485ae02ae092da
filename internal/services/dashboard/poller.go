package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

const DefaultRefreshInterval = 3000 * time.Millisecond

type State int32

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "REFRESHING"
	}
	return "IDLE"
}

// Cycle is one full refresh. Implementations handle their own errors.
type Cycle interface {
	Refresh(ctx context.Context, generation uint64)
}

const (
	triggerInitial = "initial"
	triggerTick    = "tick"
	triggerManual  = "manual"
)

// Poller drives refresh cycles at a fixed interval. A tick or a Trigger that
// arrives while a cycle is running is dropped, so cycles never overlap.
type Poller struct {
	cycle    Cycle
	interval time.Duration
	log      logger.Logger
	metrics  *Metrics

	state      atomic.Int32
	generation atomic.Uint64
	trigger    chan struct{}
	wg         sync.WaitGroup
}

func NewPoller(cycle Cycle, interval time.Duration, log logger.Logger, m *Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Poller{
		cycle:    cycle,
		interval: interval,
		log:      log.With("component", "poller"),
		metrics:  m,
		trigger:  make(chan struct{}, 1),
	}
}

// Run performs the initial refresh and then one per tick until ctx is done.
// It waits for the running cycle before returning ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tryStart(ctx, triggerInitial)
	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			p.tryStart(ctx, triggerTick)
		case <-p.trigger:
			p.tryStart(ctx, triggerManual)
		}
	}
}

// Trigger asks for an immediate cycle. It never blocks; requests made while
// one is already pending collapse into it.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Poller) State() State { return State(p.state.Load()) }

// Generation is the number of the last cycle started.
func (p *Poller) Generation() uint64 { return p.generation.Load() }

func (p *Poller) tryStart(ctx context.Context, trigger string) bool {
	if !p.state.CompareAndSwap(int32(Idle), int32(Refreshing)) {
		p.metrics.tickSkipped(trigger)
		p.log.Debugw("refresh still running, skipping", "trigger", trigger)
		return false
	}
	gen := p.generation.Add(1)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.state.Store(int32(Idle))

		start := time.Now()
		p.cycle.Refresh(ctx, gen)
		p.metrics.cycleDone(trigger, time.Since(start))
		p.log.Debugw("refresh done", "generation", gen, "trigger", trigger, "took", time.Since(start))
	}()
	return true
}
