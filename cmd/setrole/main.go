package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"rockspotter/config"
	"rockspotter/db"
	"rockspotter/models"
	"rockspotter/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	username := flag.String("username", "", "Username of the account")
	email := flag.String("email", "", "Email of the account")
	password := flag.String("password", "", "Password, only used when the account does not exist yet")
	role := flag.String("role", models.RoleAdmin, "Role to grant: user, moderator or admin")
	configPath := flag.String("config", "config/config.yml", "Path to config file")
	flag.Parse()

	if *username == "" && *email == "" {
		fmt.Println("Error: username or email is required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !models.ValidRole(*role) {
		fmt.Println("Error: role must be 'user', 'moderator' or 'admin'")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := db.ConnectMongoDB(cfg.Database.URI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"username": strings.TrimSpace(*username)}
	if *email != "" {
		filter = bson.M{"email": strings.ToLower(strings.TrimSpace(*email))}
	}

	users := db.GetCollection(db.UsersCollection)
	var user models.User
	err = users.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": bson.M{"role": *role, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)

	switch {
	case err == nil:
		fmt.Printf("✅ Role updated\n")
	case err == mongo.ErrNoDocuments:
		if *password == "" || *username == "" || *email == "" {
			log.Fatalf("No matching user. Pass -username, -email and -password to create one.")
		}
		user, err = createUser(ctx, users, *username, *email, *password, *role)
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		fmt.Printf("✅ User created\n")
	default:
		log.Fatalf("Database error: %v", err)
	}

	fmt.Printf("   ID: %s\n", user.ID.Hex())
	fmt.Printf("   Username: %s\n", user.Username)
	fmt.Printf("   Email: %s\n", user.Email)
	fmt.Printf("   Role: %s\n", user.Role)
	fmt.Println("   The new role applies from the user's next login.")
}

func createUser(ctx context.Context, users *mongo.Collection, username, email, password, role string) (models.User, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	now := time.Now()
	user := models.User{
		Username:         strings.TrimSpace(username),
		Email:            strings.ToLower(strings.TrimSpace(email)),
		Password:         hashed,
		Role:             role,
		RockTypes:        []string{},
		HuntDifficulties: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	res, err := users.InsertOne(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}
