package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rockspotter/logger"
	"rockspotter/models"

	"github.com/go-co-op/gocron/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// rocks younger than this may still be inside their CreateRock request
	creditSweepAge   = 2 * time.Minute
	creditSweepBatch = 100
)

// HuntExpirer closes hunts past their end date
type HuntExpirer interface {
	DeactivateExpiredHunts(ctx context.Context, now time.Time) (int64, error)
}

// RockCreditSweeper finds rocks whose posting credit never finished
type RockCreditSweeper interface {
	ListUncountedRocks(ctx context.Context, before time.Time, limit int64) ([]models.Rock, error)
	MarkRockCounted(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// SchedulerStore is what the background jobs need from the database
type SchedulerStore interface {
	HuntExpirer
	RockCreditSweeper
}

// StartScheduler runs hunt expiry and the rock credit sweep every interval
// until the returned scheduler is shut down.
func StartScheduler(store SchedulerStore, awards *AwardService, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			expireHunts(store, time.Now())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule hunt expiry: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			sweepRockCredits(store, awards, time.Now())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule rock credit sweep: %w", err)
	}

	sched.Start()
	return sched, nil
}

func expireHunts(expirer HuntExpirer, now time.Time) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closed, err := expirer.DeactivateExpiredHunts(ctx, now)
	if err != nil {
		logger.Error("[Scheduler] Failed to deactivate expired hunts: %v", err)
		return 0
	}
	if closed > 0 {
		logger.Info("[Scheduler] Deactivated %d expired hunts", closed)
	}
	return closed
}

// sweepRockCredits reruns RecordRockPosted for rocks left uncounted by a
// failed request and returns how many finished.
func sweepRockCredits(sweeper RockCreditSweeper, awards *AwardService, now time.Time) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rocks, err := sweeper.ListUncountedRocks(ctx, now.Add(-creditSweepAge), creditSweepBatch)
	if err != nil {
		logger.Error("[Scheduler] Failed to list uncounted rocks: %v", err)
		return 0
	}

	finished := 0
	for _, rock := range rocks {
		_, err := awards.RecordRockPosted(ctx, rock.User, rock.ID)
		switch {
		case err == nil:
			finished++
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
			// owner is gone; nothing left to credit
			logger.Warning("[Scheduler] Dropping credit for rock %s: %v", rock.ID.Hex(), err)
			if _, err := sweeper.MarkRockCounted(ctx, rock.ID); err != nil {
				logger.Error("[Scheduler] Failed to mark rock %s counted: %v", rock.ID.Hex(), err)
			}
		default:
			logger.Error("[Scheduler] Rock %s credit still failing: %v", rock.ID.Hex(), err)
		}
	}
	if finished > 0 {
		logger.Info("[Scheduler] Finished credit for %d rocks", finished)
	}
	return finished
}
