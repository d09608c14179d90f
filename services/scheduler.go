// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// StartScheduler runs the periodic battle and streak jobs until ctx ends.
func StartScheduler(ctx context.Context, battles *BattleService, aura *AuraService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	singleton := gocron.WithSingletonMode(gocron.LimitModeReschedule)

	// Every minute: resolve battles whose voting window closed
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			n, err := battles.ResolveDue(ctx)
			if err != nil {
				log.Printf("[Scheduler] resolve error: %v", err)
				return
			}
			if n > 0 {
				log.Printf("🏁 Resolved %d battle(s)", n)
			}
		}),
		singleton,
	); err != nil {
		return nil, err
	}

	// Every minute: expire challenges nobody answered
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			n, err := battles.ExpireStale(ctx)
			if err != nil {
				log.Printf("[Scheduler] expiry error: %v", err)
				return
			}
			if n > 0 {
				log.Printf("⌛ Expired %d challenge(s)", n)
			}
		}),
		singleton,
	); err != nil {
		return nil, err
	}

	// Daily 00:05 UTC: zero broken streaks
	if _, err := sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			n, err := aura.ResetStaleStreaks(ctx, time.Now())
			if err != nil {
				log.Printf("[Scheduler] streak reset error: %v", err)
				return
			}
			log.Printf("🔄 Reset %d broken streak(s)", n)
		}),
		singleton,
	); err != nil {
		return nil, err
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Scheduler] shutdown error: %v", err)
		}
	}()
	return sched, nil
}
