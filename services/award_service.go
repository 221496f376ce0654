package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rockspotter/logger"
	"rockspotter/models"
	"rockspotter/progress"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RockPostedResult is returned after a rock post is credited to its owner
type RockPostedResult struct {
	User      *models.User   `json:"user"`
	NewAwards []models.Award `json:"newAwards"`
}

// RockFoundResult is the participant's state after a found-rock report
type RockFoundResult struct {
	Progress      models.HuntProgress `json:"progress"`
	HuntCompleted bool                `json:"huntCompleted"`
	// JustCompleted is set only on the call that recorded the completion
	JustCompleted bool           `json:"justCompleted"`
	NewAwards     []models.Award `json:"newAwards"`
}

type HuntJoinResult struct {
	Joined    bool           `json:"joined"`
	NewAwards []models.Award `json:"newAwards"`
}

type SocialResult struct {
	User      *models.User   `json:"user"`
	NewAwards []models.Award `json:"newAwards"`
}

// AwardService applies user actions to the store and awards achievements.
// It holds no mutable state; all coordination happens through idempotent
// store updates, so concurrent duplicate requests converge.
type AwardService struct {
	store EntityStore
	now   func() time.Time
}

var awardService *AwardService

func NewAwardService(store EntityStore) *AwardService {
	return &AwardService{store: store, now: time.Now}
}

// InitAwardService sets the service used by the HTTP handlers
func InitAwardService(store EntityStore) {
	awardService = NewAwardService(store)
}

func GetAwardService() *AwardService {
	return awardService
}

// RecordRockPosted credits a newly posted rock to its owner and evaluates achievements.
// The rock count is incremented at most once per rock. A call that failed part
// way can be repeated: the credit is applied once and evaluation runs again.
func (s *AwardService) RecordRockPosted(ctx context.Context, userID, rockID primitive.ObjectID) (*RockPostedResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rock, err := s.store.GetRock(ctx, rockID)
	if err != nil {
		return nil, translateLookup(err, "rock", rockID)
	}
	if rock.User != userID {
		return nil, invalid("rock %s does not belong to user %s", rockID.Hex(), userID.Hex())
	}

	key := rockCreditKey(rockID)
	if !user.HasCredit(key) {
		if user, err = s.touchStreak(ctx, user); err != nil {
			return nil, err
		}
	}
	user, credited, err := s.store.CreditUser(ctx, userID, key, models.CounterDelta{RockCount: 1, RockType: rock.RockType})
	if err != nil {
		return nil, translateLookup(err, "user", userID)
	}

	awards, err := s.evaluateAndAward(ctx, user, progress.Event{
		Kind:     progress.EventRockPosted,
		RockID:   rockID.Hex(),
		RockType: rock.RockType,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.store.MarkRockCounted(ctx, rockID); err != nil {
		return nil, fmt.Errorf("failed to mark rock %s counted: %w", rockID.Hex(), err)
	}
	if credited {
		logger.Info("Rock %s credited to user %s (rockCount=%d, awards=%d)", rockID.Hex(), userID.Hex(), user.RockCount, len(awards))
	}
	return &RockPostedResult{User: user, NewAwards: awards}, nil
}

// RecordRockFound marks rockID found by the participant. Repeating the call
// changes nothing and returns empty NewAwards, unless strict is set, in which
// case the repeat fails with a ConflictError. Either way a repeat finishes
// whatever an earlier failed call left undone.
func (s *AwardService) RecordRockFound(ctx context.Context, userID, huntID, rockID primitive.ObjectID, strict bool) (*RockFoundResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	hunt, err := s.loadHunt(ctx, huntID)
	if err != nil {
		return nil, err
	}
	if !hunt.HasRock(rockID) {
		return nil, invalid("rock %s is not part of hunt %s", rockID.Hex(), huntID.Hex())
	}
	if !hunt.IsParticipant(userID) {
		return nil, invalid("user %s has not joined hunt %s", userID.Hex(), huntID.Hex())
	}

	alreadyFound := false
	if p := hunt.ProgressFor(userID); p != nil {
		alreadyFound = containsObjectID(p.FoundRocks, rockID)
	}
	if !alreadyFound {
		if user, err = s.touchStreak(ctx, user); err != nil {
			return nil, err
		}
	}

	added, err := s.store.AddFoundRock(ctx, huntID, userID, rockID)
	if err != nil {
		return nil, fmt.Errorf("failed to record found rock: %w", err)
	}

	if hunt, err = s.loadHunt(ctx, huntID); err != nil {
		return nil, err
	}
	state := models.HuntProgress{User: userID, FoundRocks: []primitive.ObjectID{}}
	if p := hunt.ProgressFor(userID); p != nil {
		state = *p
	}
	complete := progress.IsHuntComplete(hunt.RockIDs(), hexIDs(state.FoundRocks))
	result := &RockFoundResult{Progress: state, HuntCompleted: complete, NewAwards: []models.Award{}}

	events := []progress.Event{{
		Kind:       progress.EventRockFound,
		RockID:     rockID.Hex(),
		HuntID:     huntID.Hex(),
		Difficulty: hunt.Difficulty,
	}}

	if complete {
		// the user-side credit is the at-most-once guard; completedAt is bookkeeping
		var credited bool
		user, credited, err = s.store.CreditUser(ctx, userID, huntCreditKey(huntID), models.CounterDelta{HuntCount: 1, Difficulty: hunt.Difficulty})
		if err != nil {
			return nil, translateLookup(err, "user", userID)
		}
		if state.CompletedAt == nil {
			at := s.now()
			first, err := s.store.MarkHuntCompleted(ctx, huntID, userID, at)
			if err != nil {
				return nil, fmt.Errorf("failed to mark hunt %s completed: %w", huntID.Hex(), err)
			}
			if first {
				result.Progress.CompletedAt = &at
				result.JustCompleted = true
			}
		}
		if credited {
			logger.Success("User %s completed hunt %s", userID.Hex(), huntID.Hex())
		}
		events = append(events, progress.Event{
			Kind:       progress.EventHuntCompleted,
			HuntID:     huntID.Hex(),
			Difficulty: hunt.Difficulty,
		})
	}

	if result.NewAwards, err = s.evaluateAndAward(ctx, user, events...); err != nil {
		return nil, err
	}
	if !added && strict {
		return nil, conflict("rock %s already found in hunt %s", rockID.Hex(), huntID.Hex())
	}
	return result, nil
}

// RecordHuntJoin adds the user to the hunt. Joining twice reports joined
// without duplicating membership. Rejoining after a leave resumes the
// earlier progress.
func (s *AwardService) RecordHuntJoin(ctx context.Context, userID, huntID primitive.ObjectID) (*HuntJoinResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	hunt, err := s.loadHunt(ctx, huntID)
	if err != nil {
		return nil, err
	}

	if !hunt.IsParticipant(userID) {
		if !hunt.Open(s.now()) {
			return nil, invalid("hunt %s is not open for joining", huntID.Hex())
		}
		if user, err = s.touchStreak(ctx, user); err != nil {
			return nil, err
		}
		added, err := s.store.AddHuntParticipant(ctx, huntID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to join hunt %s: %w", huntID.Hex(), err)
		}
		if added {
			logger.Info("User %s joined hunt %s", userID.Hex(), huntID.Hex())
		}
	}

	awards, err := s.evaluateAndAward(ctx, user, progress.Event{
		Kind:       progress.EventHuntJoined,
		HuntID:     huntID.Hex(),
		Difficulty: hunt.Difficulty,
	})
	if err != nil {
		return nil, err
	}
	return &HuntJoinResult{Joined: true, NewAwards: awards}, nil
}

// LeaveHunt removes the user from the hunt. Progress and awards are kept, so
// rejoining never credits the same rocks or completion again.
func (s *AwardService) LeaveHunt(ctx context.Context, userID, huntID primitive.ObjectID) (bool, error) {
	if _, err := s.loadHunt(ctx, huntID); err != nil {
		return false, err
	}
	left, err := s.store.RemoveHuntParticipant(ctx, huntID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to leave hunt %s: %w", huntID.Hex(), err)
	}
	return left, nil
}

// RecordSocialAction credits one like or comment to the user. A non-empty key
// makes the credit at-most-once for that key; comments pass an empty key.
func (s *AwardService) RecordSocialAction(ctx context.Context, userID primitive.ObjectID, key string) (*SocialResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if key == "" || !user.HasCredit(key) {
		if user, err = s.touchStreak(ctx, user); err != nil {
			return nil, err
		}
	}

	delta := models.CounterDelta{SocialCount: 1}
	if key == "" {
		user, err = s.store.UpdateUserCounters(ctx, userID, delta)
	} else {
		user, _, err = s.store.CreditUser(ctx, userID, key, delta)
	}
	if err != nil {
		return nil, translateLookup(err, "user", userID)
	}

	awards, err := s.evaluateAndAward(ctx, user, progress.Event{Kind: progress.EventSocialAction})
	if err != nil {
		return nil, err
	}
	return &SocialResult{User: user, NewAwards: awards}, nil
}

// AwardManually grants an achievement outside of evaluation (admin use)
func (s *AwardService) AwardManually(ctx context.Context, userID, achievementID primitive.ObjectID) (*models.Award, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	achievement, err := s.store.GetAchievement(ctx, achievementID)
	if err != nil {
		return nil, translateLookup(err, "achievement", achievementID)
	}

	award := models.Award{
		UserID:          userID,
		AchievementID:   achievement.ID,
		AchievementName: achievement.Name,
		AwardedAt:       s.now(),
	}
	inserted, err := s.store.AddAward(ctx, award)
	if err != nil {
		return nil, fmt.Errorf("failed to award achievement: %w", err)
	}
	if !inserted {
		return nil, conflict("user %s already has achievement %s", userID.Hex(), achievement.Name)
	}
	return &award, nil
}

// UserAwards lists the awards a user holds
func (s *AwardService) UserAwards(ctx context.Context, userID primitive.ObjectID) ([]models.Award, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	awards, err := s.store.ListAwards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list awards: %w", err)
	}
	return awards, nil
}

func (s *AwardService) evaluateAndAward(ctx context.Context, user *models.User, events ...progress.Event) ([]models.Award, error) {
	catalog, err := s.store.ListUnawardedAchievements(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	byID := make(map[string]models.Achievement, len(catalog))
	rules := make([]progress.Rule, 0, len(catalog))
	for _, a := range catalog {
		byID[a.ID.Hex()] = a
		rules = append(rules, a.Rule())
	}

	stats := statsFor(user)
	awards := []models.Award{}
	for _, event := range events {
		for _, id := range progress.Evaluate(stats, event, rules) {
			achievement := byID[id]
			award := models.Award{
				UserID:          user.ID,
				AchievementID:   achievement.ID,
				AchievementName: achievement.Name,
				AwardedAt:       s.now(),
			}
			inserted, err := s.store.AddAward(ctx, award)
			if err != nil {
				return nil, fmt.Errorf("failed to add award %s: %w", achievement.Name, err)
			}
			stats.Held[id] = true
			if inserted {
				awards = append(awards, award)
				logger.Success("Awarded %q to user %s", achievement.Name, user.ID.Hex())
			}
		}
	}
	return awards, nil
}

func (s *AwardService) touchStreak(ctx context.Context, user *models.User) (*models.User, error) {
	day, streak := nextStreak(user.LastActiveDay, user.CurrentStreak, s.now())
	if day == user.LastActiveDay && streak == user.CurrentStreak {
		return user, nil
	}
	updated, err := s.store.UpdateUserStreak(ctx, user.ID, user.LastActiveDay, day, streak)
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}
	if !updated {
		// another request moved the streak first; use what it wrote
		return s.loadUser(ctx, user.ID)
	}
	next := *user
	next.LastActiveDay = day
	next.CurrentStreak = streak
	return &next, nil
}

func (s *AwardService) loadUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, translateLookup(err, "user", id)
	}
	return user, nil
}

func (s *AwardService) loadHunt(ctx context.Context, id primitive.ObjectID) (*models.Hunt, error) {
	hunt, err := s.store.GetHunt(ctx, id)
	if err != nil {
		return nil, translateLookup(err, "hunt", id)
	}
	return hunt, nil
}

func statsFor(user *models.User) progress.Stats {
	return progress.Stats{
		RockCount:        user.RockCount,
		HuntCount:        user.HuntCount,
		SocialCount:      user.SocialCount,
		CurrentStreak:    user.CurrentStreak,
		RockTypes:        user.RockTypes,
		HuntDifficulties: user.HuntDifficulties,
		Held:             make(map[string]bool),
	}
}

func translateLookup(err error, resource string, id primitive.ObjectID) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound(resource, id.Hex())
	}
	return fmt.Errorf("failed to load %s %s: %w", resource, id.Hex(), err)
}

func containsObjectID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
