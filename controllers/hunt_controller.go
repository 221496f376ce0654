package controllers

import (
	"net/http"
	"strings"
	"time"

	"rockspotter/db"
	"rockspotter/middlewares"
	"rockspotter/models"
	"rockspotter/services"
	"rockspotter/structs"
	"rockspotter/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// huntSlug builds a readable unique slug: the title plus the tail of the hunt ID
func huntSlug(title string, id primitive.ObjectID) string {
	hex := id.Hex()
	base := slug.Make(title)
	if base == "" {
		return hex
	}
	return base + "-" + hex[len(hex)-6:]
}

// buildHuntRocks validates rock references and normalizes their order
func buildHuntRocks(c *gin.Context, inputs []structs.HuntRockInput) ([]models.HuntRock, error) {
	rocks := make([]models.HuntRock, 0, len(inputs))
	ids := make([]primitive.ObjectID, 0, len(inputs))
	for _, in := range inputs {
		id, err := primitive.ObjectIDFromHex(in.Rock)
		if err != nil {
			return nil, &services.ValidationError{Message: "invalid rock id " + in.Rock}
		}
		rocks = append(rocks, models.HuntRock{Rock: id, Hint: strings.TrimSpace(in.Hint), Order: in.Order})
		ids = append(ids, id)
	}
	normalized, err := models.NormalizeHuntRocks(rocks)
	if err != nil {
		return nil, &services.ValidationError{Message: err.Error()}
	}
	if len(ids) == 0 {
		return normalized, nil
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	count, err := db.GetCollection(db.RocksCollection).CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if int(count) != len(ids) {
		return nil, &services.ValidationError{Message: "hunt references rocks that do not exist"}
	}
	return normalized, nil
}

func CreateHunt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req structs.CreateHuntRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	if !models.ValidDifficulty(req.Difficulty) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "difficulty must be one of " + strings.Join(models.HuntDifficulties, ", ")})
		return
	}
	if err := models.ValidateHuntDates(req.StartDate, req.EndDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rocks, err := buildHuntRocks(c, req.Rocks)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	hunt := models.Hunt{
		ID:           primitive.NewObjectID(),
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Creator:      userID,
		Difficulty:   req.Difficulty,
		IsActive:     req.IsActive == nil || *req.IsActive,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Rocks:        rocks,
		Participants: []primitive.ObjectID{},
		Progress:     []models.HuntProgress{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	hunt.Slug = huntSlug(hunt.Title, hunt.ID)

	ctx, cancel := dbContext(c)
	defer cancel()
	if _, err := db.GetCollection(db.HuntsCollection).InsertOne(ctx, hunt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Hunt created successfully", "hunt": hunt})
}

// ListHunts returns hunts by start date; ?active=true keeps only open ones
func ListHunts(c *gin.Context) {
	filter := bson.M{}
	if c.Query("active") == "true" {
		filter["isActive"] = true
		filter["$or"] = []bson.M{
			{"endDate": bson.M{"$gte": time.Now()}},
			{"endDate": time.Time{}},
		}
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		filter["difficulty"] = difficulty
	}
	page, limit := pagination(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "startDate", Value: 1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := db.GetCollection(db.HuntsCollection).Find(ctx, filter, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	defer cursor.Close(ctx)

	hunts := []models.Hunt{}
	if err := cursor.All(ctx, &hunts); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hunts": hunts, "page": page, "limit": limit})
}

// GetHunt looks a hunt up by ID or slug
func GetHunt(c *gin.Context) {
	ref := c.Param("id")
	filter := bson.M{"slug": ref}
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		filter = bson.M{"_id": id}
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	var hunt models.Hunt
	if err := db.GetCollection(db.HuntsCollection).FindOne(ctx, filter).Decode(&hunt); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Hunt not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hunt": hunt})
}

// UpdateHunt lets the creator edit a hunt. The rock list is frozen once someone has joined.
func UpdateHunt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	var req structs.UpdateHuntRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	collection := db.GetCollection(db.HuntsCollection)

	var hunt models.Hunt
	if err := collection.FindOne(ctx, bson.M{"_id": id, "creator": userID}).Decode(&hunt); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Hunt not found or not created by you"})
			return
		}
		respondError(c, err)
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Title != nil {
		set["title"] = strings.TrimSpace(*req.Title)
		set["slug"] = huntSlug(*req.Title, hunt.ID)
	}
	if req.Description != nil {
		set["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Difficulty != nil {
		if !models.ValidDifficulty(*req.Difficulty) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "difficulty must be one of " + strings.Join(models.HuntDifficulties, ", ")})
			return
		}
		set["difficulty"] = *req.Difficulty
	}
	start, end := hunt.StartDate, hunt.EndDate
	if req.StartDate != nil {
		start = *req.StartDate
		set["startDate"] = start
	}
	if req.EndDate != nil {
		end = *req.EndDate
		set["endDate"] = end
	}
	if err := models.ValidateHuntDates(start, end); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}

	filter := bson.M{"_id": id, "creator": userID}
	if req.Rocks != nil {
		rocks, err := buildHuntRocks(c, req.Rocks)
		if err != nil {
			respondError(c, err)
			return
		}
		set["rocks"] = rocks
		// guards against a join racing the edit
		filter["participants"] = bson.M{"$size": 0}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&hunt)
	if err == mongo.ErrNoDocuments {
		respondHuntUpdateMiss(c, req.Rocks != nil)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Hunt updated", "hunt": hunt})
}

// respondHuntUpdateMiss answers an update that matched no hunt. Only a rock
// change carries the participants guard; otherwise the hunt was deleted.
func respondHuntUpdateMiss(c *gin.Context, rocksChanged bool) {
	if rocksChanged {
		c.JSON(http.StatusConflict, gin.H{"error": "Hunt rocks cannot change after participants have joined"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Hunt not found or not created by you"})
}

func DeleteHunt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	filter := bson.M{"_id": id}
	if !middlewares.Allowed(middlewares.CurrentRole(c), "hunt", "delete") {
		filter["creator"] = userID
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	res, err := db.GetCollection(db.HuntsCollection).DeleteOne(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Hunt not found or not created by you"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Hunt deleted"})
}

func JoinHunt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	huntID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	result, err := services.GetAwardService().RecordHuntJoin(ctx, userID, huntID)
	if err != nil {
		respondError(c, err)
		return
	}
	websocket.NotifyAwards(websocket.DefaultHub, result.NewAwards)
	c.JSON(http.StatusOK, result)
}

func LeaveHunt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	huntID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	left, err := services.GetAwardService().LeaveHunt(ctx, userID, huntID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": left})
}

// MarkRockFound records a found rock. ?strict=true turns repeats into 409.
func MarkRockFound(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	huntID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	rockID, ok := paramObjectID(c, "rockId")
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	result, err := services.GetAwardService().RecordRockFound(ctx, userID, huntID, rockID, c.Query("strict") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	if result.JustCompleted {
		websocket.NotifyHuntCompleted(websocket.DefaultHub, userID.Hex(), huntID.Hex())
	}
	websocket.NotifyAwards(websocket.DefaultHub, result.NewAwards)
	c.JSON(http.StatusOK, result)
}

type huntProgressView struct {
	HuntID     primitive.ObjectID  `json:"huntId"`
	Title      string              `json:"title"`
	Slug       string              `json:"slug"`
	Difficulty string              `json:"difficulty"`
	TotalRocks int                 `json:"totalRocks"`
	FoundRocks int                 `json:"foundRocks"`
	Completed  bool                `json:"completed"`
	Progress   models.HuntProgress `json:"progress"`
}

// MyHuntProgress lists the hunts the current user has joined with their progress
func MyHuntProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	cursor, err := db.GetCollection(db.HuntsCollection).Find(ctx, bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}}))
	if err != nil {
		respondError(c, err)
		return
	}
	defer cursor.Close(ctx)

	var hunts []models.Hunt
	if err := cursor.All(ctx, &hunts); err != nil {
		respondError(c, err)
		return
	}

	views := make([]huntProgressView, 0, len(hunts))
	for i := range hunts {
		hunt := &hunts[i]
		view := huntProgressView{
			HuntID:     hunt.ID,
			Title:      hunt.Title,
			Slug:       hunt.Slug,
			Difficulty: hunt.Difficulty,
			TotalRocks: len(hunt.Rocks),
			Progress:   models.HuntProgress{User: userID, FoundRocks: []primitive.ObjectID{}},
		}
		if p := hunt.ProgressFor(userID); p != nil {
			view.Progress = *p
			view.FoundRocks = len(p.FoundRocks)
			view.Completed = p.CompletedAt != nil
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"hunts": views})
}
