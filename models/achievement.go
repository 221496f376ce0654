package models

import (
	"time"

	"rockspotter/progress"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var Rarities = []string{"common", "rare", "epic", "legendary"}

func ValidRarity(r string) bool {
	for _, v := range Rarities {
		if v == r {
			return true
		}
	}
	return false
}

// ValidAchievementType reports whether t is a known achievement type
func ValidAchievementType(t progress.AchievementType) bool {
	switch t {
	case progress.TypeRocks, progress.TypeHunts, progress.TypeSocial, progress.TypeGeology, progress.TypeSpecial:
		return true
	}
	return false
}

// Achievement is an immutable catalog entry
type Achievement struct {
	ID          primitive.ObjectID       `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string                   `bson:"name" json:"name"`
	Description string                   `bson:"description" json:"description"`
	Icon        string                   `bson:"icon" json:"icon"`
	Type        progress.AchievementType `bson:"type" json:"type"`
	Criteria    progress.Criteria        `bson:"criteria" json:"criteria"`
	Rarity      string                   `bson:"rarity" json:"rarity"`
	CreatedAt   time.Time                `bson:"createdAt" json:"createdAt"`
}

// Rule converts the achievement into the evaluator's view
func (a Achievement) Rule() progress.Rule {
	return progress.Rule{ID: a.ID.Hex(), Type: a.Type, Criteria: a.Criteria}
}

// Award records that a user earned an achievement. (userId, achievementId) is unique.
type Award struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	AchievementID   primitive.ObjectID `bson:"achievementId" json:"achievementId"`
	AchievementName string             `bson:"achievementName" json:"achievementName"`
	AwardedAt       time.Time          `bson:"awardedAt" json:"awardedAt"`
}
