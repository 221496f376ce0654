package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"rockspotter/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection        = "users"
	RocksCollection        = "rocks"
	HuntsCollection        = "hunts"
	AchievementsCollection = "achievements"
	AwardsCollection       = "user_achievements"
)

var MongoClient *mongo.Client
var MongoDatabase *mongo.Database
var RedisClient *redis.Client

// GetCollection returns a collection by name
func GetCollection(collectionName string) *mongo.Collection {
	return MongoDatabase.Collection(collectionName)
}

// extractDBName parses the database name from the URI, defaulting to "rockspotter"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "rockspotter"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return "rockspotter"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI
func ConnectMongoDB(uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoClient = client
	dbName := extractDBName(uri)
	logger.Info("Using database: %s", dbName)

	MongoDatabase = client.Database(dbName)
	return nil
}

// Connected reports whether the primary answers a ping
func Connected(ctx context.Context) bool {
	if MongoClient == nil {
		return false
	}
	return MongoClient.Ping(ctx, readpref.Primary()) == nil
}

// ConnectRedis creates the Redis client. An empty addr leaves RedisClient nil,
// which disables rate limiting and the identification cache.
func ConnectRedis(addr, password string, database int) error {
	if addr == "" {
		logger.Warning("Redis address not configured, rate limiting and AI cache disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	RedisClient = client
	return nil
}

// Disconnect closes open clients on shutdown
func Disconnect(ctx context.Context) {
	if RedisClient != nil {
		_ = RedisClient.Close()
	}
	if MongoClient != nil {
		if err := MongoClient.Disconnect(ctx); err != nil {
			logger.Error("Failed to disconnect MongoDB: %v", err)
		}
	}
}
