package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/config"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/db"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/feed"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/handlers"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/repositories"
	api "github.com/Carlos-Trindade-code/sbar-health-sub000/routes"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/services"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.AvatarStorageConfigured() {
		uploader, err = storage.NewR2Uploader(storage.R2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize avatar storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("avatar storage initialized")
	} else {
		logger.Warn("avatar storage not configured, avatar uploads disabled")
	}

	activityHub := feed.NewHub()
	go activityHub.Run()
	logger.Info("activity feed hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresMemberRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	activityRepo := repositories.NewPostgresActivityRepository(dbConn)
	logger.Info("repositories initialized")

	activityLogger := services.NewActivityLogger(activityRepo, memberRepo, activityHub, logger)
	rosterService := services.NewRosterService(memberRepo)
	teamService := services.NewTeamService(teamRepo, memberRepo, rosterService, activityLogger)
	authService := services.NewAuthService(userRepo, teamService)
	userService := services.NewUserService(userRepo, uploader)
	inviteService := services.NewInviteService(dbConn, inviteRepo, teamRepo, memberRepo, rosterService, activityLogger)
	logger.Info("services initialized")

	jwtSecret := []byte(cfg.JWTSecretKey)
	authHandler := handlers.NewAuthHandler(authService, jwtSecret)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService, rosterService, activityLogger)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	webSocketHandler := handlers.NewWebSocketHandler(activityHub, rosterService)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		jwtSecret,
		authHandler,
		userHandler,
		teamHandler,
		inviteHandler,
		webSocketHandler,
		cfg.CORSAllowedOrigins,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
