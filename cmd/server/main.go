package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/quizlive/session-service/internal/cache"
	"github.com/quizlive/session-service/internal/config"
	"github.com/quizlive/session-service/internal/events"
	"github.com/quizlive/session-service/internal/handlers"
	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"github.com/quizlive/session-service/internal/repositories/casdoor"
	"github.com/quizlive/session-service/internal/repositories/postgres"
	"github.com/quizlive/session-service/internal/services"
	"github.com/quizlive/session-service/internal/utils"
	"github.com/quizlive/session-service/internal/validator"
	"github.com/quizlive/session-service/internal/ws"
	"github.com/quizlive/session-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var appLogger utils.Logger
	if cfg.Environment == "production" {
		appLogger = utils.NewDefaultLogger()
	} else {
		appLogger = utils.NewDevelopmentLogger()
	}
	logger := utils.ToSlogLogger(appLogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.Quiz{},
		&models.Question{},
		&models.Slide{},
		&models.User{},
		&models.Session{},
		&models.SessionParticipant{},
		&models.SessionAnswer{},
	); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	cacheService := cache.NewRedisCache(redisClient)

	// Participant identities come from casdoor when configured, otherwise
	// from the local users table.
	var repo repositories.Repository
	if cfg.Casdoor.Endpoint != "" {
		directory := casdoor.NewUserCasdoor(casdoor.Config{
			Endpoint:     cfg.Casdoor.Endpoint,
			ClientID:     cfg.Casdoor.ClientID,
			ClientSecret: cfg.Casdoor.ClientSecret,
			Certificate:  cfg.Casdoor.Certificate,
			Organization: cfg.Casdoor.Organization,
			Application:  cfg.Casdoor.Application,
		})
		repo = postgres.NewRepositoryWithDirectory(db, directory)
	} else {
		repo = postgres.NewRepository(db)
	}

	publisher, err := cfg.Events.CreateEventPublisher(redisClient, logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(logger)

	// Websocket clients are fed through redis pub/sub so every replica
	// delivers every event.
	if redisPublisher, ok := publisher.(*events.RedisEventPublisher); ok {
		if err := redisPublisher.StartForwarder(ctx, hub.Broadcast); err != nil {
			logger.Error("Failed to start event forwarder", "error", err)
			os.Exit(1)
		}
	}

	v := validator.New()

	sessionService := services.NewSessionService(repo, publisher, cacheService, v, logger, cfg.JoinBaseURL, pkg.GenerateJoinArtifact)
	sequencerService := services.NewSequencerService(repo, publisher, logger)
	answerService := services.NewAnswerService(repo, publisher, v, logger)
	exportService := services.NewExportService(answerService, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(appLogger))

	handlerManager := handlers.NewHandlerManager(
		sessionService,
		sequencerService,
		answerService,
		exportService,
		hub,
		appLogger,
	)
	handlerManager.SetupRoutes(router)

	logger.Info("Starting session service",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"publisher", cfg.Events.Publisher)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
