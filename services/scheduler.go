// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// StartEconomyScheduler runs the power-up sweep and the owner re-index on one
// scheduler. Jobs stop when ctx is done or the scheduler is shut down.
func (r *PowerUpRuntime) StartEconomyScheduler(ctx context.Context, clock clockwork.Clock, sweepEvery, reindexEvery time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	// Every sweepEvery: expire power-up instances
	_, err = sched.NewJob(
		gocron.DurationJob(sweepEvery),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			if _, err := r.Sweep(ctx, clock.Now()); err != nil {
				log.Printf("[Scheduler] Power-up sweep error: %v", err)
			}
		}),
		gocron.WithName("powerup-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}

	// Every reindexEvery: rebuild the owner index from the store
	_, err = sched.NewJob(
		gocron.DurationJob(reindexEvery),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			if err := r.Restore(ctx); err != nil {
				log.Printf("[Scheduler] Owner re-index error: %v", err)
			}
		}),
		gocron.WithName("powerup-reindex"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule re-index: %w", err)
	}

	sched.Start()
	log.Printf("✅ [Scheduler] Power-up sweep every %s, re-index every %s", sweepEvery, reindexEvery)
	return sched, nil
}
