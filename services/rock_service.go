package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"rockspotter/logger"
	"rockspotter/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCommentLength = 500

// LikeResult reports the like state of a rock after a like or unlike
type LikeResult struct {
	Liked     bool           `json:"liked"`
	Count     int            `json:"count"`
	NewAwards []models.Award `json:"newAwards"`
}

// RockService handles likes and comments. Social credit goes through the
// award service so achievements are evaluated in one place.
type RockService struct {
	store  EntityStore
	awards *AwardService
	now    func() time.Time
}

var rockService *RockService

func NewRockService(store EntityStore, awards *AwardService) *RockService {
	return &RockService{store: store, awards: awards, now: time.Now}
}

func InitRockService(store EntityStore) {
	rockService = NewRockService(store, GetAwardService())
}

func GetRockService() *RockService {
	return rockService
}

// LikeRock adds the user to the rock's likes. Liking twice, or again after an
// unlike, leaves the social count unchanged: the credit is keyed per rock.
func (s *RockService) LikeRock(ctx context.Context, userID, rockID primitive.ObjectID) (*LikeResult, error) {
	if _, err := s.loadRock(ctx, rockID); err != nil {
		return nil, err
	}
	added, err := s.store.AddLike(ctx, rockID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to like rock %s: %w", rockID.Hex(), err)
	}

	if added {
		logger.Debug("User %s liked rock %s", userID.Hex(), rockID.Hex())
	}

	// runs on repeats too so a like whose credit failed is healed
	social, err := s.awards.RecordSocialAction(ctx, userID, likeCreditKey(rockID))
	if err != nil {
		return nil, err
	}
	result := &LikeResult{Liked: true, NewAwards: social.NewAwards}

	rock, err := s.loadRock(ctx, rockID)
	if err != nil {
		return nil, err
	}
	result.Count = len(rock.Likes)
	return result, nil
}

// UnlikeRock removes the user's like if present
func (s *RockService) UnlikeRock(ctx context.Context, userID, rockID primitive.ObjectID) (*LikeResult, error) {
	if _, err := s.loadRock(ctx, rockID); err != nil {
		return nil, err
	}
	if _, err := s.store.RemoveLike(ctx, rockID, userID); err != nil {
		return nil, fmt.Errorf("failed to unlike rock %s: %w", rockID.Hex(), err)
	}
	rock, err := s.loadRock(ctx, rockID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: false, Count: len(rock.Likes), NewAwards: []models.Award{}}, nil
}

// AddComment appends a comment to the rock and credits the author
func (s *RockService) AddComment(ctx context.Context, userID, rockID primitive.ObjectID, text string) (*models.RockComment, []models.Award, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, invalid("comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return nil, nil, invalid("comment must be at most %d characters", maxCommentLength)
	}
	if _, err := s.loadRock(ctx, rockID); err != nil {
		return nil, nil, err
	}

	comment := models.RockComment{
		ID:        primitive.NewObjectID(),
		User:      userID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.store.AddComment(ctx, rockID, comment); err != nil {
		return nil, nil, translateLookup(err, "rock", rockID)
	}

	social, err := s.awards.RecordSocialAction(ctx, userID, "")
	if err != nil {
		return nil, nil, err
	}
	return &comment, social.NewAwards, nil
}

func (s *RockService) loadRock(ctx context.Context, id primitive.ObjectID) (*models.Rock, error) {
	rock, err := s.store.GetRock(ctx, id)
	if err != nil {
		return nil, translateLookup(err, "rock", id)
	}
	return rock, nil
}
