package controllers

import (
	"net/http"
	"strings"
	"time"

	"rockspotter/db"
	"rockspotter/logger"
	"rockspotter/middlewares"
	"rockspotter/models"
	"rockspotter/structs"
	"rockspotter/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func Register(c *gin.Context) {
	var req structs.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	ctx, cancel := dbContext(c)
	defer cancel()
	collection := db.GetCollection(db.UsersCollection)

	count, err := collection.CountDocuments(ctx, bson.M{"$or": []bson.M{{"email": email}, {"username": username}}})
	if err != nil {
		respondError(c, err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	user := models.User{
		Username:         username,
		Email:            email,
		PhoneNumber:      strings.TrimSpace(req.PhoneNumber),
		Password:         hashed,
		Role:             models.RoleUser,
		RockTypes:        []string{},
		HuntDifficulties: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	res, err := collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		respondError(c, err)
		return
	}
	user.ID = res.InsertedID.(primitive.ObjectID)

	token, err := utils.GenerateJWTToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Success("User registered: %s", user.Username)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "token": token, "user": user})
}

func Login(c *gin.Context) {
	var req structs.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Email == "" && req.Username == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": "Email or username and password are required"})
		return
	}

	filter := bson.M{"username": strings.TrimSpace(req.Username)}
	if req.Email != "" {
		filter = bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	var user models.User
	err := db.GetCollection(db.UsersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil && err != mongo.ErrNoDocuments {
		respondError(c, err)
		return
	}
	if err == mongo.ErrNoDocuments || !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateJWTToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": user})
}

// GetUser returns a user's public profile
func GetUser(c *gin.Context) {
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	var user models.User
	if err := db.GetCollection(db.UsersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

func GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	var user models.User
	if err := db.GetCollection(db.UsersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req structs.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	update := bson.M{"$set": set}
	if req.Bio != nil {
		set["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.ProfilePicture != nil {
		set["profilePicture"] = *req.ProfilePicture
	}
	if req.PhoneNumber != nil {
		// the phone index is sparse, so a cleared number must be removed rather than stored empty
		if phone := strings.TrimSpace(*req.PhoneNumber); phone != "" {
			set["phoneNumber"] = phone
		} else {
			update["$unset"] = bson.M{"phoneNumber": ""}
		}
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := db.GetCollection(db.UsersCollection).FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&user)
	if err != nil {
		switch {
		case err == mongo.ErrNoDocuments:
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case mongo.IsDuplicateKeyError(err):
			c.JSON(http.StatusConflict, gin.H{"error": "Phone number already in use"})
		default:
			respondError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// ListUsers is the admin view of all users
func ListUsers(c *gin.Context) {
	page, limit := pagination(c)
	ctx, cancel := dbContext(c)
	defer cancel()

	collection := db.GetCollection(db.UsersCollection)
	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		respondError(c, err)
		return
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "page": page, "limit": limit, "total": total})
}

func UpdateUserRole(c *gin.Context) {
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	var req structs.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be one of user, moderator, admin"})
		return
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	res, err := db.GetCollection(db.UsersCollection).UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": req.Role, "updatedAt": time.Now()}})
	if err != nil {
		respondError(c, err)
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	logger.Info("Role of user %s set to %s by %s", id.Hex(), req.Role, c.GetString(middlewares.ContextEmail))
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "role": req.Role})
}
