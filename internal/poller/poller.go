package poller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked on every refresh interval.
type TickFunc func(ctx context.Context) error

// Options tune poller behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Poller drives the fixed-interval refresh loop. A tick that outlives the
// interval causes subsequent ticks to be skipped rather than overlapped: at
// most one refresh is in flight at any time.
type Poller struct {
	opts     Options
	logger   zerolog.Logger
	inFlight atomic.Bool
}

// New constructs a Poller instance.
func New(opts Options, logger zerolog.Logger) *Poller {
	if opts.Interval <= 0 {
		panic("poller interval must be positive")
	}
	return &Poller{opts: opts, logger: logger.With().Str("component", "poller").Logger()}
}

// Run blocks, invoking the tick function on every interval until ctx is
// cancelled. The first tick fires immediately after the startup delay. The
// ticker is released on all exit paths.
func (p *Poller) Run(ctx context.Context, tick TickFunc) error {
	if p.opts.StartupDelay > 0 {
		timer := time.NewTimer(p.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.fire(ctx, tick)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.fire(ctx, tick)
		}
	}
}

func (p *Poller) fire(ctx context.Context, tick TickFunc) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Warn().Msg("previous refresh still running, skipping tick")
		return
	}

	go func() {
		defer p.inFlight.Store(false)

		started := time.Now()
		if err := tick(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error().Err(err).Msg("refresh failed")
			return
		}
		p.logger.Debug().Dur("elapsed", time.Since(started)).Msg("refresh completed")
	}()
}
