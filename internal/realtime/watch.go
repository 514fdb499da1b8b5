package realtime

import (
	"context"
	"time"

	"hostel-backend/internal/logger"
)

// Watch runs refetch once per delivered event until ctx ends or sub is
// closed. A failed refetch is logged and the loop keeps going.
func Watch(ctx context.Context, sub *Subscription, refetch func(ctx context.Context, e Event) error) error {
	return WatchWithKeepalive(ctx, sub, 0, refetch, nil)
}

// WatchWithKeepalive is Watch that also calls keepalive after every period
// of every. All callbacks run on the calling goroutine, so they may share a
// writer. A keepalive error ends the loop and is returned.
func WatchWithKeepalive(ctx context.Context, sub *Subscription, every time.Duration,
	refetch func(ctx context.Context, e Event) error, keepalive func() error) error {
	log := logger.WithComponent("realtime")
	return WatchBatches(ctx, sub, every, func(ctx context.Context, events []Event) error {
		for _, e := range events {
			if err := refetch(ctx, e); err != nil {
				log.Warn("refetch after change failed", "table", e.Table, "type", e.Type, "error", err)
			}
		}
		return nil
	}, keepalive)
}

// WatchBatches calls refetch once per wake-up with every pending event, one
// per changed table. Callers that re-read a single aggregate use it to avoid
// one re-read per table.
func WatchBatches(ctx context.Context, sub *Subscription, every time.Duration,
	refetch func(ctx context.Context, events []Event) error, keepalive func() error) error {
	log := logger.WithComponent("realtime")

	var tick <-chan time.Time
	if every > 0 && keepalive != nil {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			if err := keepalive(); err != nil {
				return err
			}
		case _, ok := <-sub.Ready():
			if !ok {
				return nil
			}
			events := sub.Drain()
			if len(events) == 0 {
				continue
			}
			if err := refetch(ctx, events); err != nil {
				log.Warn("refetch after change failed", "events", len(events), "error", err)
			}
		}
	}
}
