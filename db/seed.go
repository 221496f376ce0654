package db

import (
	"context"
	"fmt"
	"time"

	"rockspotter/logger"
	"rockspotter/models"
	"rockspotter/progress"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func countCriteria(target int) progress.Criteria {
	return progress.Criteria{Kind: progress.KindCount, Target: target}
}

// DefaultAchievements is the catalog installed on first start
var DefaultAchievements = []models.Achievement{
	{Name: "First Rock", Description: "Post your first rock", Icon: "🪨", Type: progress.TypeRocks, Criteria: countCriteria(1), Rarity: "common"},
	{Name: "Rock Collector", Description: "Post 10 rocks", Icon: "🧺", Type: progress.TypeRocks, Criteria: countCriteria(10), Rarity: "rare"},
	{Name: "Rock Hoarder", Description: "Post 50 rocks", Icon: "⛰️", Type: progress.TypeRocks, Criteria: countCriteria(50), Rarity: "epic"},
	{Name: "Hunt Rookie", Description: "Complete your first hunt", Icon: "🧭", Type: progress.TypeHunts, Criteria: countCriteria(1), Rarity: "common"},
	{Name: "Hunt Master", Description: "Complete 10 hunts", Icon: "🗺️", Type: progress.TypeHunts, Criteria: countCriteria(10), Rarity: "epic"},
	{
		Name: "Trailblazer", Description: "Join your first hunt", Icon: "🥾", Type: progress.TypeHunts, Rarity: "common",
		Criteria: progress.Criteria{Kind: progress.KindSpecific, Target: 1, Specific: &progress.SpecificDetails{Event: progress.EventHuntJoined}},
	},
	{
		Name: "Summit", Description: "Complete a hard hunt", Icon: "🏔️", Type: progress.TypeHunts, Rarity: "rare",
		Criteria: progress.Criteria{Kind: progress.KindSpecific, Target: 1, Specific: &progress.SpecificDetails{Event: progress.EventHuntCompleted, Difficulty: "hard"}},
	},
	{
		Name: "All Terrain", Description: "Complete hunts of every difficulty", Icon: "🚙", Type: progress.TypeHunts, Rarity: "epic",
		Criteria: progress.Criteria{Kind: progress.KindVariety, Target: len(models.HuntDifficulties), Variety: &progress.VarietyDetails{Category: progress.CategoryDifficulty}},
	},
	{Name: "Friendly", Description: "Like or comment 10 times", Icon: "💬", Type: progress.TypeSocial, Criteria: countCriteria(10), Rarity: "common"},
	{Name: "Community Pillar", Description: "Like or comment 100 times", Icon: "🤝", Type: progress.TypeSocial, Criteria: countCriteria(100), Rarity: "rare"},
	{
		Name: "Geologist", Description: "Post 3 different rock types", Icon: "🔬", Type: progress.TypeGeology, Rarity: "rare",
		Criteria: progress.Criteria{Kind: progress.KindVariety, Target: 3},
	},
	{
		Name: "Fossil Finder", Description: "Post a fossil", Icon: "🦴", Type: progress.TypeGeology, Rarity: "rare",
		Criteria: progress.Criteria{Kind: progress.KindSpecific, Target: 1, Specific: &progress.SpecificDetails{Event: progress.EventRockPosted, RockType: "fossil"}},
	},
	{
		Name: "Week on the Rocks", Description: "Be active 7 days in a row", Icon: "🔥", Type: progress.TypeSpecial, Rarity: "legendary",
		Criteria: progress.Criteria{Kind: progress.KindStreak, Target: 7, Streak: &progress.StreakDetails{Unit: "day"}},
	},
}

// SeedAchievements upserts the catalog by name. Existing entries are left
// untouched since achievements are immutable once awarded.
func SeedAchievements(database *mongo.Database, catalog []models.Achievement) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := database.Collection(AchievementsCollection)
	inserted := 0
	for _, a := range catalog {
		if err := a.Criteria.Validate(); err != nil {
			return fmt.Errorf("achievement %q: %w", a.Name, err)
		}
		update := bson.M{"$setOnInsert": bson.M{
			"name":        a.Name,
			"description": a.Description,
			"icon":        a.Icon,
			"type":        a.Type,
			"criteria":    a.Criteria,
			"rarity":      a.Rarity,
			"createdAt":   time.Now(),
		}}
		res, err := collection.UpdateOne(ctx, bson.M{"name": a.Name}, update, options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("failed to seed achievement %q: %w", a.Name, err)
		}
		inserted += int(res.UpsertedCount)
	}
	if inserted > 0 {
		logger.Info("Seeded %d achievements", inserted)
	}
	return nil
}
