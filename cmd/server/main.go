package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"rockspotter/config"
	"rockspotter/controllers"
	"rockspotter/db"
	"rockspotter/logger"
	"rockspotter/middlewares"
	"rockspotter/routes"
	"rockspotter/services"
	"rockspotter/utils"
	"rockspotter/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	utils.SetJWTSecret(cfg.JWT.Secret)
	utils.SetJWTExpiry(cfg.JWT.Expiry)

	if err := db.ConnectMongoDB(cfg.Database.URI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	logger.Success("Connected to MongoDB")

	if err := db.EnsureIndexes(db.MongoDatabase); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	if err := db.SeedAchievements(db.MongoDatabase, db.DefaultAchievements); err != nil {
		log.Fatalf("Failed to seed achievements: %v", err)
	}
	if err := db.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		logger.Warning("Redis unavailable, rate limiting and identification cache disabled: %v", err)
	}
	if err := middlewares.InitCasbin(cfg.Database.URI); err != nil {
		log.Fatalf("Failed to initialize RBAC: %v", err)
	}

	store := db.NewMongoStore(db.MongoDatabase)
	services.InitAwardService(store)
	services.InitRockService(store)
	if err := services.InitRockIdentifier(cfg.Gemini.ApiKey, cfg.Gemini.Model, db.RedisClient); err != nil {
		logger.Warning("Rock identification falls back to demo data: %v", err)
	}
	if err := services.InitPhotoStorage(cfg); err != nil {
		logger.Warning("Photo uploads disabled: %v", err)
	}

	scheduler, err := services.StartScheduler(store, services.GetAwardService(), time.Minute)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	router := setupRouter(cfg)
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Rock Spotter API server running on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		logger.Error("Scheduler shutdown failed: %v", err)
	}
	db.Disconnect(shutdownCtx)
}

func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger())

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: true,
	}))

	router.GET("/", controllers.Welcome)

	counter := middlewares.NewRedisCounter(db.RedisClient)
	api := router.Group("/api")
	api.Use(middlewares.RateLimitMiddleware(counter, middlewares.APIRateLimit))
	{
		api.GET("/health", controllers.Health)
		api.GET("/ws", middlewares.AuthMiddleware(), websocket.NotificationHandler(websocket.DefaultHub))

		routes.SetupUserRoutes(api, counter)
		routes.SetupRockRoutes(api)
		routes.SetupHuntRoutes(api)
		routes.SetupAchievementRoutes(api)
	}

	return router
}
