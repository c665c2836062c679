package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/database"
	"github.com/vitalwatch/vitalwatch/internal/httpapi"
	"github.com/vitalwatch/vitalwatch/internal/location"
	"github.com/vitalwatch/vitalwatch/internal/logger"
	"github.com/vitalwatch/vitalwatch/internal/mqttingest"
	"github.com/vitalwatch/vitalwatch/internal/notifier"
	"github.com/vitalwatch/vitalwatch/internal/realtime"
	"github.com/vitalwatch/vitalwatch/internal/repository"
	"github.com/vitalwatch/vitalwatch/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting VitalWatch...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logger.GetLogger()
	appLogger.Info("Configuration loaded")

	db, err := database.NewPostgresDB(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	appLogger.Info("Database connection established and migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Host + ":" + cfg.Redis.Port,
	})

	// Cool-down and the dashboard stream live on Redis; if it is down the
	// cool-down degrades to in-memory and the stream endpoint reports
	// unavailable rather than the whole service refusing to start.
	var hub *realtime.Hub
	var cooldown services.Cooldown
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		appLogger.Warn("Redis unreachable, using in-memory cool-down", "error", err)
		cooldown = services.NewMemoryCooldown(cfg.Alerts.Cooldown)
	} else {
		hub = realtime.NewHub(redisClient, appLogger)
		cooldown = services.NewRedisCooldown(redisClient, cfg.Alerts.Cooldown)
	}
	cancelPing()

	readingRepo := repository.NewReadingRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	userRepo := repository.NewUserRepository(db)

	dispatcher := notifier.NewDispatcherFromConfig(cfg.Email, appLogger)
	resolver := location.NewReadingResolver(readingRepo, cfg.Alerts.LocationFreshness, 5*time.Second)

	var publisher realtime.Publisher
	if hub != nil {
		publisher = hub
	}

	alertService := services.NewAlertService(alertRepo, guardianRepo, userRepo,
		cooldown, dispatcher, resolver, publisher, appLogger)
	monitorService := services.NewMonitorService(readingRepo, alertService,
		publisher, cfg.Alerts.WindowSize, appLogger)
	assignmentService := services.NewAssignmentService(assignmentRepo, guardianRepo, userRepo, appLogger)
	guardianService := services.NewGuardianService(guardianRepo, appLogger)

	var aiService *services.AIService
	if cfg.AI.GeminiAPIKey != "" || cfg.AI.OpenAIAPIKey != "" {
		aiService, err = services.NewAIService(context.Background(), cfg.AI, appLogger)
		if err != nil {
			appLogger.Warn("AI service disabled", "error", err)
		}
	} else {
		appLogger.Info("No AI provider key configured, chat endpoints disabled")
	}

	consumer := mqttingest.NewConsumer(cfg.MQTT, monitorService, appLogger)
	if err := consumer.Start(); err != nil {
		appLogger.Warn("MQTT consumer not started, HTTP ingest still available", "error", err)
	}

	server := httpapi.NewServer(monitorService, alertService, assignmentService,
		guardianService, aiService, userRepo, hub, cfg.Alerts.DashboardWindow, appLogger)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}
	go func() {
		appLogger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", "error", err)
	}
	consumer.Stop()
	if aiService != nil {
		aiService.Close()
	}
	if err := redisClient.Close(); err != nil {
		appLogger.Warn("Redis close failed", "error", err)
	}
	appLogger.Info("Stopped")
}
