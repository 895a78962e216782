package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"learning-progress-system/handlers"
	"learning-progress-system/middleware"
	"learning-progress-system/models"
	"learning-progress-system/services"
	"learning-progress-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.UserActivity{},
		&models.UserMetrics{},
		&models.UserLanguageProgress{},
		&models.Badge{},
		&models.UserBadge{},
		&models.UserGamification{},
		&models.Challenge{},
		&models.UserChallenge{},
		&models.UserSkillProgress{},
		&models.Profile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Redis is optional: without it the weekly leaderboard degrades to the
	// SQL global standings.
	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("⚠️  Redis unreachable at %s, continuing without it: %v", addr, err)
			rdb = nil
		}
	} else {
		log.Println("⚠️  REDIS_ADDR not set — weekly leaderboard will serve global standings")
	}

	weekMode := os.Getenv("CHALLENGE_WEEK_MODE")

	pointsService := services.NewPointsService(db, rdb, weekMode)
	challengeService := services.NewChallengeService(db, pointsService, weekMode)
	badgeService := services.NewBadgeService(db, pointsService, challengeService)
	metricsService := services.NewMetricsService(db)
	skillService := services.NewSkillService(db)
	activityService := services.NewActivityService(db, metricsService, skillService, challengeService, pointsService)

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("LEARN_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("LEARN_SERVICE_TOKEN environment variable not set")
	}

	profileClient := services.NewProfileServiceClient(syncServiceURL, serviceToken)
	syncWorker := workers.NewProfileSyncWorker(db, profileClient)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker.Start(ctx)
	go workers.PollLeaderboard(ctx, db, rdb, 5*time.Minute)

	challengeService.StartChallengeScheduler()

	handlers.SetupProgressRoutes(app, activityService, metricsService, skillService)
	handlers.SetupGamificationRoutes(app, badgeService, challengeService, pointsService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Challenge scheduler running (hourly catalog roll-over)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come through the Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
