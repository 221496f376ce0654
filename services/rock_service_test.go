package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rockspotter/progress"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestRockService(store *memStore) *RockService {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	s := NewRockService(store, newTestAwardService(store, now))
	s.now = func() time.Time { return now }
	return s
}

func TestLikeRockNoDuplicate(t *testing.T) {
	store := newMemStore()
	owner := store.addUser("owner")
	fan := store.addUser("fan")
	rock := store.addRock(owner, "mineral")
	store.addAchievement(countAchievement("Friendly", progress.TypeSocial, 1))
	s := newTestRockService(store)
	ctx := context.Background()

	first, err := s.LikeRock(ctx, fan, rock)
	if err != nil {
		t.Fatalf("LikeRock failed: %v", err)
	}
	second, err := s.LikeRock(ctx, fan, rock)
	if err != nil {
		t.Fatalf("LikeRock retry failed: %v", err)
	}

	if first.Count != 1 || second.Count != 1 {
		t.Errorf("Expected like count 1 after both calls, got %d and %d", first.Count, second.Count)
	}
	if len(first.NewAwards) != 1 || len(second.NewAwards) != 0 {
		t.Errorf("Expected Friendly once, got %d then %d", len(first.NewAwards), len(second.NewAwards))
	}
	u, _ := store.GetUser(ctx, fan)
	if u.SocialCount != 1 {
		t.Errorf("Expected socialCount 1, got %d", u.SocialCount)
	}

	res, err := s.UnlikeRock(ctx, fan, rock)
	if err != nil {
		t.Fatalf("UnlikeRock failed: %v", err)
	}
	if res.Liked || res.Count != 0 {
		t.Errorf("Expected rock unliked with count 0, got liked=%v count=%d", res.Liked, res.Count)
	}
}

func TestRelikeEarnsNoExtraCredit(t *testing.T) {
	store := newMemStore()
	owner := store.addUser("owner")
	fan := store.addUser("fan")
	rock := store.addRock(owner, "mineral")
	s := newTestRockService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.LikeRock(ctx, fan, rock); err != nil {
			t.Fatalf("LikeRock #%d failed: %v", i, err)
		}
		if _, err := s.UnlikeRock(ctx, fan, rock); err != nil {
			t.Fatalf("UnlikeRock #%d failed: %v", i, err)
		}
	}
	res, err := s.LikeRock(ctx, fan, rock)
	if err != nil {
		t.Fatalf("LikeRock failed: %v", err)
	}
	if !res.Liked || res.Count != 1 {
		t.Errorf("Expected rock liked once, got liked=%v count=%d", res.Liked, res.Count)
	}
	u, _ := store.GetUser(ctx, fan)
	if u.SocialCount != 1 {
		t.Errorf("Expected socialCount 1 after like cycles, got %d", u.SocialCount)
	}
}

func TestLikeUnknownRock(t *testing.T) {
	store := newMemStore()
	user := store.addUser("fan")
	s := newTestRockService(store)
	if _, err := s.LikeRock(context.Background(), user, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAddComment(t *testing.T) {
	store := newMemStore()
	owner := store.addUser("owner")
	rock := store.addRock(owner, "fossil")
	s := newTestRockService(store)
	ctx := context.Background()

	comment, _, err := s.AddComment(ctx, owner, rock, "  Nice trilobite!  ")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if comment.Text != "Nice trilobite!" {
		t.Errorf("Expected trimmed text, got %q", comment.Text)
	}

	r, _ := store.GetRock(ctx, rock)
	if len(r.Comments) != 1 || r.Comments[0].User != owner {
		t.Errorf("Expected one stored comment by owner, got %+v", r.Comments)
	}
	u, _ := store.GetUser(ctx, owner)
	if u.SocialCount != 1 {
		t.Errorf("Expected socialCount 1, got %d", u.SocialCount)
	}
}

func TestAddCommentValidation(t *testing.T) {
	store := newMemStore()
	owner := store.addUser("owner")
	rock := store.addRock(owner, "fossil")
	s := newTestRockService(store)
	ctx := context.Background()

	cases := map[string]string{
		"empty":    "   ",
		"too long": strings.Repeat("a", maxCommentLength+1),
	}
	for name, text := range cases {
		if _, _, err := s.AddComment(ctx, owner, rock, text); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}

	if _, _, err := s.AddComment(ctx, owner, rock, strings.Repeat("é", maxCommentLength)); err != nil {
		t.Errorf("Expected %d multibyte characters to be accepted, got %v", maxCommentLength, err)
	}
	if _, _, err := s.AddComment(ctx, owner, primitive.NewObjectID(), "hello"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown rock, got %v", err)
	}

	u, _ := store.GetUser(ctx, owner)
	if u.SocialCount != 1 {
		t.Errorf("Expected only the accepted comment to count, got socialCount %d", u.SocialCount)
	}
}
