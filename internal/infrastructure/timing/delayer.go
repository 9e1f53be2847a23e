// Package timing provides the wall-clock Delayer used by the dispatcher's
// batched delivery loop, plus test doubles that drive the loop without
// sleeping.
package timing

import (
	"context"
	"time"

	"github.com/perfumery/sales/internal/domain/dispatch"
)

// RealDelayer waits on the wall clock. Wait returns early with the context
// error if the context is cancelled, so an aborted sale never sits out the
// remaining delivery delay.
type RealDelayer struct{}

// NewRealDelayer creates a wall-clock delayer
func NewRealDelayer() *RealDelayer {
	return &RealDelayer{}
}

// Wait blocks for d or until ctx is done, whichever comes first
func (RealDelayer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InstantDelayer never sleeps. It still observes cancellation so tests can
// exercise abort paths.
type InstantDelayer struct{}

// NewInstantDelayer creates a delayer that returns immediately
func NewInstantDelayer() *InstantDelayer {
	return &InstantDelayer{}
}

// Wait returns immediately, or the context error if ctx is already done
func (InstantDelayer) Wait(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

// RecordingDelayer wraps another delayer and records every requested
// duration, letting tests assert the delivery schedule without timing it.
type RecordingDelayer struct {
	inner dispatch.Delayer
	Waits []time.Duration
}

// NewRecordingDelayer wraps inner, defaulting to an InstantDelayer
func NewRecordingDelayer(inner dispatch.Delayer) *RecordingDelayer {
	if inner == nil {
		inner = InstantDelayer{}
	}
	return &RecordingDelayer{inner: inner}
}

// Wait records d and delegates to the wrapped delayer
func (r *RecordingDelayer) Wait(ctx context.Context, d time.Duration) error {
	r.Waits = append(r.Waits, d)
	return r.inner.Wait(ctx, d)
}

var (
	_ dispatch.Delayer = RealDelayer{}
	_ dispatch.Delayer = InstantDelayer{}
	_ dispatch.Delayer = (*RecordingDelayer)(nil)
)
