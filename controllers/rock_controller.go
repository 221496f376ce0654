package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rockspotter/db"
	"rockspotter/logger"
	"rockspotter/middlewares"
	"rockspotter/models"
	"rockspotter/services"
	"rockspotter/structs"
	"rockspotter/websocket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultNearbyDistance = 10000 // meters

// resolveLocation accepts GeoJSON coordinates or a longitude/latitude pair
func resolveLocation(in structs.LocationInput) (models.GeoPoint, bool) {
	var lng, lat float64
	switch {
	case len(in.Coordinates) == 2:
		lng, lat = in.Coordinates[0], in.Coordinates[1]
	case in.Longitude != nil && in.Latitude != nil:
		lng, lat = *in.Longitude, *in.Latitude
	default:
		return models.GeoPoint{}, false
	}
	if !models.ValidCoordinates(lng, lat) {
		return models.GeoPoint{}, false
	}
	return models.NewGeoPoint(lng, lat), true
}

// CreateRock stores a new rock post and credits it to the author
func CreateRock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req structs.CreateRockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	if !models.ValidRockType(req.RockType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rockType must be one of " + strings.Join(models.RockTypes, ", ")})
		return
	}
	location, ok := resolveLocation(req.Location)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid location (longitude, latitude) is required"})
		return
	}

	now := time.Now()
	rock := models.Rock{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Photo:       req.Photo,
		RockType:    req.RockType,
		Location:    location,
		Address:     req.Address,
		Tags:        models.NormalizeTags(req.Tags),
		Likes:       []primitive.ObjectID{},
		Comments:    []models.RockComment{},
		User:        userID,
		IsPublic:    req.IsPublic == nil || *req.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	res, err := db.GetCollection(db.RocksCollection).InsertOne(ctx, rock)
	if err != nil {
		respondError(c, err)
		return
	}
	rock.ID = res.InsertedID.(primitive.ObjectID)

	// the rock is stored; the scheduler sweep finishes a failed credit
	result, err := services.GetAwardService().RecordRockPosted(ctx, userID, rock.ID)
	if err != nil {
		logger.Warning("Credit for rock %s deferred: %v", rock.ID.Hex(), err)
		c.JSON(http.StatusCreated, gin.H{"message": "Rock posted successfully", "rock": rock, "newAwards": []models.Award{}, "creditPending": true})
		return
	}
	websocket.NotifyAwards(websocket.DefaultHub, result.NewAwards)
	c.JSON(http.StatusCreated, gin.H{"message": "Rock posted successfully", "rock": rock, "newAwards": result.NewAwards})
}

// ListRocks returns public rocks, newest first
func ListRocks(c *gin.Context) {
	filter := bson.M{"isPublic": true}
	if rockType := c.Query("rockType"); rockType != "" {
		filter["rockType"] = rockType
	}
	if tag := c.Query("tag"); tag != "" {
		filter["tags"] = strings.ToLower(tag)
	}
	if user := c.Query("user"); user != "" {
		id, err := primitive.ObjectIDFromHex(user)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user"})
			return
		}
		filter["user"] = id
	}
	page, limit := pagination(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	collection := db.GetCollection(db.RocksCollection)
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	rocks, err := findRocks(c, filter, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rocks": rocks, "page": page, "limit": limit, "total": total})
}

// NearbyRocks returns public rocks within maxDistance meters of lng/lat, nearest first
func NearbyRocks(c *gin.Context) {
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	if errLng != nil || errLat != nil || !models.ValidCoordinates(lng, lat) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid lng and lat query parameters are required"})
		return
	}
	maxDistance := float64(defaultNearbyDistance)
	if v := c.Query("maxDistance"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxDistance must be a positive number of meters"})
			return
		}
		maxDistance = d
	}

	filter := bson.M{
		"isPublic": true,
		"location": bson.M{"$near": bson.M{
			"$geometry":    models.NewGeoPoint(lng, lat),
			"$maxDistance": maxDistance,
		}},
	}
	_, limit := pagination(c)
	rocks, err := findRocks(c, filter, options.Find().SetLimit(limit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rocks": rocks})
}

func findRocks(c *gin.Context, filter bson.M, opts *options.FindOptions) ([]models.Rock, error) {
	ctx, cancel := dbContext(c)
	defer cancel()

	cursor, err := db.GetCollection(db.RocksCollection).Find(ctx, filter, opts)
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

func GetRock(c *gin.Context) {
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	var rock models.Rock
	if err := db.GetCollection(db.RocksCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&rock); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rock not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rock": rock})
}

// UpdateRock lets the owner edit a post. Counters already credited are not revisited.
func UpdateRock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	var req structs.UpdateRockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Title != nil {
		set["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		set["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Photo != nil {
		set["photo"] = *req.Photo
	}
	if req.RockType != nil {
		if !models.ValidRockType(*req.RockType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rockType must be one of " + strings.Join(models.RockTypes, ", ")})
			return
		}
		set["rockType"] = *req.RockType
	}
	if req.Address != nil {
		set["address"] = *req.Address
	}
	if req.Tags != nil {
		set["tags"] = models.NormalizeTags(req.Tags)
	}
	if req.IsPublic != nil {
		set["isPublic"] = *req.IsPublic
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	var rock models.Rock
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := db.GetCollection(db.RocksCollection).FindOneAndUpdate(ctx, bson.M{"_id": id, "user": userID}, bson.M{"$set": set}, opts).Decode(&rock)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rock not found or not owned by you"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rock updated", "rock": rock})
}

// DeleteRock removes a post. Moderators and admins may delete any rock.
func DeleteRock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	filter := bson.M{"_id": id}
	if !middlewares.Allowed(middlewares.CurrentRole(c), "rock", "delete") {
		filter["user"] = userID
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	res, err := db.GetCollection(db.RocksCollection).DeleteOne(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rock not found or not owned by you"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rock deleted"})
}

func LikeRock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rockID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	result, err := services.GetRockService().LikeRock(ctx, userID, rockID)
	if err != nil {
		respondError(c, err)
		return
	}
	websocket.NotifyAwards(websocket.DefaultHub, result.NewAwards)
	c.JSON(http.StatusOK, result)
}

func UnlikeRock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rockID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	result, err := services.GetRockService().UnlikeRock(ctx, userID, rockID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func CommentOnRock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rockID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	var req structs.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	comment, awards, err := services.GetRockService().AddComment(ctx, userID, rockID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	websocket.NotifyAwards(websocket.DefaultHub, awards)
	c.JSON(http.StatusCreated, gin.H{"message": "Comment added", "comment": comment, "newAwards": awards})
}

// RockUploadURL returns a presigned URL the client uploads the photo to
func RockUploadURL(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	storage := services.GetPhotoStorage()
	if storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo uploads are not configured"})
		return
	}
	var req structs.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contentType is required"})
		return
	}

	target, err := storage.PresignUpload(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

func IdentifyRock(c *gin.Context) {
	var req structs.IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := services.GetRockIdentifier().Identify(ctx, req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
