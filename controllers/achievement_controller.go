package controllers

import (
	"net/http"
	"strings"
	"time"

	"rockspotter/db"
	"rockspotter/models"
	"rockspotter/progress"
	"rockspotter/services"
	"rockspotter/structs"
	"rockspotter/websocket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListAchievements returns the catalog, optionally filtered by ?type
func ListAchievements(c *gin.Context) {
	filter := bson.M{}
	if t := c.Query("type"); t != "" {
		filter["type"] = t
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	cursor, err := db.GetCollection(db.AchievementsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "type", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		respondError(c, err)
		return
	}
	defer cursor.Close(ctx)

	achievements := []models.Achievement{}
	if err := cursor.All(ctx, &achievements); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}

func GetAchievement(c *gin.Context) {
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	var achievement models.Achievement
	if err := db.GetCollection(db.AchievementsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&achievement); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Achievement not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievement": achievement})
}

// CreateAchievement adds a catalog entry. Entries are never edited afterwards.
func CreateAchievement(c *gin.Context) {
	var req structs.CreateAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	if !models.ValidAchievementType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown achievement type " + string(req.Type)})
		return
	}
	if req.Rarity == "" {
		req.Rarity = "common"
	}
	if !models.ValidRarity(req.Rarity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rarity must be one of " + strings.Join(models.Rarities, ", ")})
		return
	}
	if err := req.Criteria.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Icon == "" {
		req.Icon = "🏆"
	}

	achievement := models.Achievement{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Icon:        req.Icon,
		Type:        req.Type,
		Criteria:    req.Criteria,
		Rarity:      req.Rarity,
		CreatedAt:   time.Now(),
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	if _, err := db.GetCollection(db.AchievementsCollection).InsertOne(ctx, achievement); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Achievement name already exists"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"achievement": achievement})
}

// AwardAchievement grants an achievement by hand. Already holding it is a 409.
func AwardAchievement(c *gin.Context) {
	var req structs.AwardAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid userId"})
		return
	}
	achievementID, err := primitive.ObjectIDFromHex(req.AchievementID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid achievementId"})
		return
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	award, err := services.GetAwardService().AwardManually(ctx, userID, achievementID)
	if err != nil {
		respondError(c, err)
		return
	}
	websocket.NotifyAwards(websocket.DefaultHub, []models.Award{*award})
	c.JSON(http.StatusCreated, gin.H{"award": award})
}

func UserAchievements(c *gin.Context) {
	userID, ok := paramObjectID(c, "userId")
	if !ok {
		return
	}
	respondAwards(c, userID)
}

func MyAchievements(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	respondAwards(c, userID)
}

func respondAwards(c *gin.Context, userID primitive.ObjectID) {
	ctx, cancel := dbContext(c)
	defer cancel()

	awards, err := services.GetAwardService().UserAwards(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": awards, "count": len(awards)})
}

var achievementTypes = []progress.AchievementType{
	progress.TypeRocks, progress.TypeHunts, progress.TypeSocial, progress.TypeGeology, progress.TypeSpecial,
}

// AchievementTypes lists the values accepted by ?type and the rarity field
func AchievementTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": achievementTypes, "rarities": models.Rarities})
}
