package db

import (
	"context"
	"fmt"
	"time"

	"rockspotter/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements services.EntityStore. Every mutation is a single
// conditional update so retries and concurrent duplicates are no-ops.
type MongoStore struct {
	users        *mongo.Collection
	rocks        *mongo.Collection
	hunts        *mongo.Collection
	achievements *mongo.Collection
	awards       *mongo.Collection
}

func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		users:        database.Collection(UsersCollection),
		rocks:        database.Collection(RocksCollection),
		hunts:        database.Collection(HuntsCollection),
		achievements: database.Collection(AchievementsCollection),
		awards:       database.Collection(AwardsCollection),
	}
}

func (s *MongoStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func counterUpdate(delta models.CounterDelta) bson.M {
	update := bson.M{
		"$inc": bson.M{
			"rockCount":   delta.RockCount,
			"huntCount":   delta.HuntCount,
			"socialCount": delta.SocialCount,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	addToSet := bson.M{}
	if delta.RockType != "" {
		addToSet["rockTypes"] = delta.RockType
	}
	if delta.Difficulty != "" {
		addToSet["huntDifficulties"] = delta.Difficulty
	}
	if len(addToSet) > 0 {
		update["$addToSet"] = addToSet
	}
	return update
}

func (s *MongoStore) UpdateUserCounters(ctx context.Context, id primitive.ObjectID, delta models.CounterDelta) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, counterUpdate(delta), opts).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreditUser applies delta and records key in one update, unless key is
// already recorded. The counters and the marker can never disagree.
func (s *MongoStore) CreditUser(ctx context.Context, id primitive.ObjectID, key string, delta models.CounterDelta) (*models.User, bool, error) {
	update := counterUpdate(delta)
	addToSet, _ := update["$addToSet"].(bson.M)
	if addToSet == nil {
		addToSet = bson.M{}
	}
	addToSet["credits"] = key
	update["$addToSet"] = addToSet

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id, "credits": bson.M{"$ne": key}}, update, opts).Decode(&user)
	if err == nil {
		return &user, true, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}
	// either the user is gone or the key was already credited
	current, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (s *MongoStore) UpdateUserStreak(ctx context.Context, id primitive.ObjectID, prevDay, day string, streak int) (bool, error) {
	filter := bson.M{"_id": id, "lastActiveDay": prevDay}
	if prevDay == "" {
		// null also matches a missing field
		filter["lastActiveDay"] = bson.M{"$in": bson.A{"", nil}}
	}
	res, err := s.users.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"lastActiveDay": day,
		"currentStreak": streak,
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) GetRock(ctx context.Context, id primitive.ObjectID) (*models.Rock, error) {
	var rock models.Rock
	if err := s.rocks.FindOne(ctx, bson.M{"_id": id}).Decode(&rock); err != nil {
		return nil, err
	}
	return &rock, nil
}

// MarkRockCounted flags a rock whose credit pipeline finished
func (s *MongoStore) MarkRockCounted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.rocks.UpdateOne(ctx,
		bson.M{"_id": id, "counted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"counted": true}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) AddLike(ctx context.Context, rockID, userID primitive.ObjectID) (bool, error) {
	res, err := s.rocks.UpdateOne(ctx,
		bson.M{"_id": rockID},
		bson.M{"$addToSet": bson.M{"likes": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) RemoveLike(ctx context.Context, rockID, userID primitive.ObjectID) (bool, error) {
	res, err := s.rocks.UpdateOne(ctx,
		bson.M{"_id": rockID},
		bson.M{"$pull": bson.M{"likes": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) AddComment(ctx context.Context, rockID primitive.ObjectID, comment models.RockComment) error {
	res, err := s.rocks.UpdateOne(ctx,
		bson.M{"_id": rockID},
		bson.M{"$push": bson.M{"comments": comment}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *MongoStore) GetHunt(ctx context.Context, id primitive.ObjectID) (*models.Hunt, error) {
	var hunt models.Hunt
	if err := s.hunts.FindOne(ctx, bson.M{"_id": id}).Decode(&hunt); err != nil {
		return nil, err
	}
	return &hunt, nil
}

// AddHuntParticipant adds the user and, on first join only, an empty progress
// entry. Progress left behind by an earlier leave is resumed.
func (s *MongoStore) AddHuntParticipant(ctx context.Context, huntID, userID primitive.ObjectID) (bool, error) {
	_, err := s.hunts.UpdateOne(ctx,
		bson.M{"_id": huntID, "progress.user": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{
			"progress": models.HuntProgress{User: userID, FoundRocks: []primitive.ObjectID{}},
		}})
	if err != nil {
		return false, err
	}
	res, err := s.hunts.UpdateOne(ctx,
		bson.M{"_id": huntID, "participants": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"participants": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// RemoveHuntParticipant removes the user from participants. Their progress
// stays so found rocks and completion are never credited twice.
func (s *MongoStore) RemoveHuntParticipant(ctx context.Context, huntID, userID primitive.ObjectID) (bool, error) {
	res, err := s.hunts.UpdateOne(ctx,
		bson.M{"_id": huntID, "participants": userID},
		bson.M{"$pull": bson.M{"participants": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) AddFoundRock(ctx context.Context, huntID, userID, rockID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id": huntID,
		"progress": bson.M{"$elemMatch": bson.M{
			"user":       userID,
			"foundRocks": bson.M{"$ne": rockID},
		}},
	}
	res, err := s.hunts.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"progress.$.foundRocks": rockID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) MarkHuntCompleted(ctx context.Context, huntID, userID primitive.ObjectID, at time.Time) (bool, error) {
	filter := bson.M{
		"_id": huntID,
		"progress": bson.M{"$elemMatch": bson.M{
			"user":        userID,
			"completedAt": nil,
		}},
	}
	res, err := s.hunts.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"progress.$.completedAt": at}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) GetAchievement(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := s.achievements.FindOne(ctx, bson.M{"_id": id}).Decode(&achievement); err != nil {
		return nil, err
	}
	return &achievement, nil
}

func (s *MongoStore) ListUnawardedAchievements(ctx context.Context, userID primitive.ObjectID) ([]models.Achievement, error) {
	held, err := s.awards.Distinct(ctx, "achievementId", bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list held achievements: %w", err)
	}
	filter := bson.M{}
	if len(held) > 0 {
		filter["_id"] = bson.M{"$nin": held}
	}

	cursor, err := s.achievements.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	achievements := []models.Achievement{}
	if err := cursor.All(ctx, &achievements); err != nil {
		return nil, err
	}
	return achievements, nil
}

// AddAward inserts the award unless the user already holds it. The unique
// (userId, achievementId) index settles concurrent inserts.
func (s *MongoStore) AddAward(ctx context.Context, award models.Award) (bool, error) {
	filter := bson.M{"userId": award.UserID, "achievementId": award.AchievementID}
	update := bson.M{"$setOnInsert": bson.M{
		"achievementName": award.AchievementName,
		"awardedAt":       award.AwardedAt,
	}}
	res, err := s.awards.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

func (s *MongoStore) ListAwards(ctx context.Context, userID primitive.ObjectID) ([]models.Award, error) {
	opts := options.Find().SetSort(bson.D{{Key: "awardedAt", Value: 1}})
	cursor, err := s.awards.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	awards := []models.Award{}
	if err := cursor.All(ctx, &awards); err != nil {
		return nil, err
	}
	return awards, nil
}

// DeactivateExpiredHunts closes active hunts whose end date has passed
func (s *MongoStore) DeactivateExpiredHunts(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.hunts.UpdateMany(ctx,
		bson.M{"isActive": true, "endDate": bson.M{"$lt": now, "$gt": time.Time{}}},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ListUncountedRocks returns rocks created before the cutoff whose credit
// never finished, oldest first
func (s *MongoStore) ListUncountedRocks(ctx context.Context, before time.Time, limit int64) ([]models.Rock, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit)
	cursor, err := s.rocks.Find(ctx, bson.M{"counted": bson.M{"$ne": true}, "createdAt": bson.M{"$lt": before}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rocks := []models.Rock{}
	if err := cursor.All(ctx, &rocks); err != nil {
		return nil, err
	}
	return rocks, nil
}
