package progress

import (
	"errors"
	"fmt"
)

// AchievementType groups achievements by the activity they reward
type AchievementType string

const (
	TypeRocks   AchievementType = "rocks"
	TypeHunts   AchievementType = "hunts"
	TypeSocial  AchievementType = "social"
	TypeGeology AchievementType = "geology"
	TypeSpecial AchievementType = "special"
)

// CriteriaKind tags which payload a Criteria carries
type CriteriaKind string

const (
	KindCount    CriteriaKind = "count"
	KindSpecific CriteriaKind = "specific"
	KindStreak   CriteriaKind = "streak"
	KindVariety  CriteriaKind = "variety"
)

// Counter names a user statistic a count criteria can compare against
type Counter string

const (
	CounterRocks     Counter = "rockCount"
	CounterHunts     Counter = "huntCount"
	CounterSocial    Counter = "socialCount"
	CounterRockTypes Counter = "rockTypes"
)

// Category names what a variety criteria counts distinct values of
type Category string

const (
	CategoryRockType   Category = "rockType"
	CategoryDifficulty Category = "difficulty"
)

// Criteria is a tagged variant: Kind decides which payload pointer is read.
type Criteria struct {
	Kind     CriteriaKind     `bson:"type" json:"type"`
	Target   int              `bson:"target" json:"target"`
	Count    *CountDetails    `bson:"count,omitempty" json:"count,omitempty"`
	Specific *SpecificDetails `bson:"specific,omitempty" json:"specific,omitempty"`
	Streak   *StreakDetails   `bson:"streak,omitempty" json:"streak,omitempty"`
	Variety  *VarietyDetails  `bson:"variety,omitempty" json:"variety,omitempty"`
}

// CountDetails optionally overrides the counter implied by the achievement type
type CountDetails struct {
	Counter Counter `bson:"counter,omitempty" json:"counter,omitempty"`
}

// SpecificDetails matches one exact event. Empty fields match anything.
type SpecificDetails struct {
	Event      EventKind `bson:"event" json:"event"`
	RockType   string    `bson:"rockType,omitempty" json:"rockType,omitempty"`
	RockID     string    `bson:"rockId,omitempty" json:"rockId,omitempty"`
	HuntID     string    `bson:"huntId,omitempty" json:"huntId,omitempty"`
	Difficulty string    `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
}

// StreakDetails describes the streak unit. Only "day" is tracked.
type StreakDetails struct {
	Unit string `bson:"unit,omitempty" json:"unit,omitempty"`
}

// VarietyDetails picks the category whose distinct values are counted
type VarietyDetails struct {
	Category Category `bson:"category,omitempty" json:"category,omitempty"`
}

var ErrInvalidCriteria = errors.New("invalid criteria")

// Validate checks a criteria before it is stored. Evaluation never calls it:
// stored criteria with an unknown kind are skipped instead.
func (c Criteria) Validate() error {
	if c.Target < 1 {
		return fmt.Errorf("%w: target must be at least 1", ErrInvalidCriteria)
	}
	switch c.Kind {
	case KindCount:
		if c.Count != nil && c.Count.Counter != "" {
			switch c.Count.Counter {
			case CounterRocks, CounterHunts, CounterSocial, CounterRockTypes:
			default:
				return fmt.Errorf("%w: unknown counter %q", ErrInvalidCriteria, c.Count.Counter)
			}
		}
	case KindSpecific:
		if c.Specific == nil || c.Specific.Event == "" {
			return fmt.Errorf("%w: specific criteria needs an event", ErrInvalidCriteria)
		}
		if !c.Specific.Event.Valid() {
			return fmt.Errorf("%w: unknown event %q", ErrInvalidCriteria, c.Specific.Event)
		}
	case KindStreak:
		if c.Streak != nil && c.Streak.Unit != "" && c.Streak.Unit != "day" {
			return fmt.Errorf("%w: unsupported streak unit %q", ErrInvalidCriteria, c.Streak.Unit)
		}
	case KindVariety:
		if c.Variety != nil && c.Variety.Category != "" {
			switch c.Variety.Category {
			case CategoryRockType, CategoryDifficulty:
			default:
				return fmt.Errorf("%w: unknown category %q", ErrInvalidCriteria, c.Variety.Category)
			}
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCriteria, c.Kind)
	}
	return nil
}
