package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewPanicsOnInvalidInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-positive interval")
		}
	}()
	New(Options{Interval: 0}, zerolog.Nop())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	p := New(Options{Interval: 5 * time.Millisecond}, zerolog.Nop())

	var ticks atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(context.Context) error {
			ticks.Add(1)
			return nil
		})
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if ticks.Load() == 0 {
		t.Fatal("tick function was never invoked")
	}
}

func TestInFlightGuardSkipsOverlappingTicks(t *testing.T) {
	p := New(Options{Interval: 5 * time.Millisecond}, zerolog.Nop())

	var started atomic.Int32
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = p.Run(ctx, func(context.Context) error {
			started.Add(1)
			<-release
			return nil
		})
	}()

	// Let several intervals elapse while the first tick is still blocked.
	time.Sleep(60 * time.Millisecond)
	if got := started.Load(); got != 1 {
		t.Fatalf("expected exactly 1 in-flight tick, got %d", got)
	}

	close(release)
	cancel()
}

func TestStartupDelayHonoursCancel(t *testing.T) {
	p := New(Options{Interval: time.Minute, StartupDelay: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Run(ctx, func(context.Context) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled during startup delay, got %v", err)
	}
}
