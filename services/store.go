package services

import (
	"context"
	"time"

	"rockspotter/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credit keys identify actions that raise a counter at most once
func rockCreditKey(rockID primitive.ObjectID) string { return "rock:" + rockID.Hex() }
func huntCreditKey(huntID primitive.ObjectID) string { return "hunt:" + huntID.Hex() }
func likeCreditKey(rockID primitive.ObjectID) string { return "like:" + rockID.Hex() }

// EntityStore is the persistence boundary of the award and rock services.
// Lookups return mongo.ErrNoDocuments (possibly wrapped) for missing documents.
// Every mutation is idempotent and reports whether it changed anything.
type EntityStore interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateUserCounters(ctx context.Context, id primitive.ObjectID, delta models.CounterDelta) (*models.User, error)
	// CreditUser applies delta and records key atomically, once per key. It
	// returns the current user and whether this call applied the credit.
	CreditUser(ctx context.Context, id primitive.ObjectID, key string, delta models.CounterDelta) (*models.User, bool, error)
	// UpdateUserStreak writes day/streak only if lastActiveDay still equals prevDay.
	UpdateUserStreak(ctx context.Context, id primitive.ObjectID, prevDay, day string, streak int) (bool, error)

	GetRock(ctx context.Context, id primitive.ObjectID) (*models.Rock, error)
	// MarkRockCounted flags a rock whose credit pipeline finished
	MarkRockCounted(ctx context.Context, id primitive.ObjectID) (bool, error)
	AddLike(ctx context.Context, rockID, userID primitive.ObjectID) (bool, error)
	RemoveLike(ctx context.Context, rockID, userID primitive.ObjectID) (bool, error)
	AddComment(ctx context.Context, rockID primitive.ObjectID, comment models.RockComment) error

	GetHunt(ctx context.Context, id primitive.ObjectID) (*models.Hunt, error)
	AddHuntParticipant(ctx context.Context, huntID, userID primitive.ObjectID) (bool, error)
	RemoveHuntParticipant(ctx context.Context, huntID, userID primitive.ObjectID) (bool, error)
	AddFoundRock(ctx context.Context, huntID, userID, rockID primitive.ObjectID) (bool, error)
	MarkHuntCompleted(ctx context.Context, huntID, userID primitive.ObjectID, at time.Time) (bool, error)

	GetAchievement(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error)
	ListUnawardedAchievements(ctx context.Context, userID primitive.ObjectID) ([]models.Achievement, error)
	AddAward(ctx context.Context, award models.Award) (bool, error)
	ListAwards(ctx context.Context, userID primitive.ObjectID) ([]models.Award, error)
}
