package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/povlabs/povguard"
	"github.com/povlabs/povguard/internal/config"
	"github.com/povlabs/povguard/internal/db"
	"github.com/povlabs/povguard/internal/routes"
	"github.com/povlabs/povguard/zapLogger"
)

func main() {
	logFile := zapLogger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Log.Fatalf("Failed to load config: %v", err)
	}

	pgDB, err := db.NewPostgresDB(cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	zapLogger.Log.Info("Successfully connected to PostgreSQL database")
	defer pgDB.Close()

	redisDB, err := db.NewRedisClient(cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize Redis: %v", err)
	}
	zapLogger.Log.Info("Successfully connected to Redis")
	defer redisDB.Close()

	svc, err := povguard.NewService(povguard.Config{
		DB:                 pgDB.GormDB,
		RedisClient:        redisDB,
		CacheTTL:           cfg.CacheTTL,
		CachePrefix:        "povguard:",
		AutoMigrate:        cfg.AutoMigrate,
		SeedDefaultMatrix:  cfg.SeedMatrix,
		EnableAuditLogging: cfg.AuditLogging,
		Logger:             zapLogger.Log,
	})
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize povguard service: %v", err)
	}

	app := fiber.New()
	app.Use(zapLogger.FiberLoggingMiddleware(logFile))
	routes.Setup(app, svc)

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	zapLogger.Log.Infof("Server started on port %d", cfg.AppPort)
	log.Fatal(app.Listen(addr))
}
