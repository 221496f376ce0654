package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var HuntDifficulties = []string{"easy", "medium", "hard"}

// ValidDifficulty reports whether d is one of HuntDifficulties
func ValidDifficulty(d string) bool {
	for _, hd := range HuntDifficulties {
		if hd == d {
			return true
		}
	}
	return false
}

var (
	ErrHuntDates          = errors.New("startDate must not be after endDate")
	ErrHuntDuplicateOrder = errors.New("hunt rock order values must be unique")
	ErrHuntDuplicateRock  = errors.New("a rock may appear only once in a hunt")
	ErrHuntNegativeOrder  = errors.New("hunt rock order must not be negative")
)

// HuntRock is one entry of a hunt's ordered rock list
type HuntRock struct {
	Rock  primitive.ObjectID `bson:"rock" json:"rock"`
	Hint  string             `bson:"hint" json:"hint"`
	Order int                `bson:"order" json:"order"`
}

// HuntProgress tracks one participant's found rocks
type HuntProgress struct {
	User        primitive.ObjectID   `bson:"user" json:"user"`
	FoundRocks  []primitive.ObjectID `bson:"foundRocks" json:"foundRocks"`
	CompletedAt *time.Time           `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// Hunt is a time-bounded scavenger hunt over a set of rocks
type Hunt struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Title        string               `bson:"title" json:"title"`
	Slug         string               `bson:"slug" json:"slug"`
	Description  string               `bson:"description" json:"description"`
	Creator      primitive.ObjectID   `bson:"creator" json:"creator"`
	Difficulty   string               `bson:"difficulty" json:"difficulty"`
	IsActive     bool                 `bson:"isActive" json:"isActive"`
	StartDate    time.Time            `bson:"startDate" json:"startDate"`
	EndDate      time.Time            `bson:"endDate" json:"endDate"`
	Rocks        []HuntRock           `bson:"rocks" json:"rocks"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	Progress     []HuntProgress       `bson:"progress" json:"progress"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// RockIDs returns the hex IDs of the hunt's rocks in list order
func (h *Hunt) RockIDs() []string {
	ids := make([]string, 0, len(h.Rocks))
	for _, r := range h.Rocks {
		ids = append(ids, r.Rock.Hex())
	}
	return ids
}

func (h *Hunt) HasRock(rockID primitive.ObjectID) bool {
	for _, r := range h.Rocks {
		if r.Rock == rockID {
			return true
		}
	}
	return false
}

func (h *Hunt) IsParticipant(userID primitive.ObjectID) bool {
	for _, p := range h.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ProgressFor returns the participant's progress entry, or nil
func (h *Hunt) ProgressFor(userID primitive.ObjectID) *HuntProgress {
	for i := range h.Progress {
		if h.Progress[i].User == userID {
			return &h.Progress[i]
		}
	}
	return nil
}

// Open reports whether the hunt accepts participants at now
func (h *Hunt) Open(now time.Time) bool {
	if !h.IsActive {
		return false
	}
	return h.EndDate.IsZero() || !now.After(h.EndDate)
}

// ValidateHuntDates enforces start <= end. Zero dates are unbounded.
func ValidateHuntDates(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return ErrHuntDates
	}
	return nil
}

// NormalizeHuntRocks assigns missing orders (0) after the highest given order
// in list position, rejects duplicate orders or rocks, and sorts by order.
func NormalizeHuntRocks(rocks []HuntRock) ([]HuntRock, error) {
	out := make([]HuntRock, len(rocks))
	copy(out, rocks)

	maxOrder := 0
	orders := make(map[int]bool, len(out))
	seenRocks := make(map[primitive.ObjectID]bool, len(out))
	for _, r := range out {
		if seenRocks[r.Rock] {
			return nil, fmt.Errorf("%w: %s", ErrHuntDuplicateRock, r.Rock.Hex())
		}
		seenRocks[r.Rock] = true
		if r.Order < 0 {
			return nil, fmt.Errorf("%w: %d", ErrHuntNegativeOrder, r.Order)
		}
		if r.Order == 0 {
			continue
		}
		if orders[r.Order] {
			return nil, fmt.Errorf("%w: %d", ErrHuntDuplicateOrder, r.Order)
		}
		orders[r.Order] = true
		if r.Order > maxOrder {
			maxOrder = r.Order
		}
	}

	for i := range out {
		if out[i].Order == 0 {
			maxOrder++
			out[i].Order = maxOrder
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}
