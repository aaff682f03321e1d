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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/teamgrid/community-system/config"
	"github.com/teamgrid/community-system/db"
	"github.com/teamgrid/community-system/handlers"
	"github.com/teamgrid/community-system/middleware"
	"github.com/teamgrid/community-system/realtime"
	"github.com/teamgrid/community-system/repositories"
	api "github.com/teamgrid/community-system/routes"
	"github.com/teamgrid/community-system/services"
	"github.com/teamgrid/community-system/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	sessionRepo := repositories.NewPostgresSessionRepository(dbConn)
	communityRepo := repositories.NewPostgresCommunityRepository(dbConn)
	communityMemberRepo := repositories.NewPostgresCommunityMembershipRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	teamMemberRepo := repositories.NewPostgresTeamMembershipRepository(dbConn)
	invitationRepo := repositories.NewPostgresInvitationRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	proposalRepo := repositories.NewPostgresProposalRepository(dbConn)
	participationRepo := repositories.NewPostgresParticipationRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(dbConn, userRepo, profileRepo, sessionRepo)
	profileService := services.NewProfileService(dbConn, profileRepo, userRepo, cloudflareUploader)
	notificationService := services.NewNotificationService(notificationRepo)
	communityService := services.NewCommunityService(
		dbConn,
		communityRepo,
		communityMemberRepo,
		notificationRepo,
		cloudflareUploader,
		wsHub,
		logger,
	)
	teamService := services.NewTeamService(
		dbConn,
		teamRepo,
		teamMemberRepo,
		userRepo,
		notificationRepo,
		wsHub,
	)
	invitationService := services.NewInvitationService(
		dbConn,
		invitationRepo,
		teamRepo,
		teamMemberRepo,
		communityRepo,
		communityMemberRepo,
		userRepo,
		notificationRepo,
		wsHub,
	)
	tournamentService := services.NewTournamentService(tournamentRepo, participationRepo)
	proposalService := services.NewProposalService(
		dbConn,
		proposalRepo,
		participationRepo,
		tournamentRepo,
		teamMemberRepo,
		notificationRepo,
		wsHub,
		logger,
	)
	userService := services.NewUserService(
		dbConn,
		userRepo,
		profileRepo,
		sessionRepo,
		notificationRepo,
		invitationRepo,
		teamMemberRepo,
		communityMemberRepo,
		proposalRepo,
		cloudflareUploader,
		logger,
	)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey, authService)
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	profileHandler := handlers.NewProfileHandler(profileService)
	communityHandler := handlers.NewCommunityHandler(communityService)
	teamHandler := handlers.NewTeamHandler(teamService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	proposalHandler := handlers.NewProposalHandler(proposalService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		authHandler,
		userHandler,
		profileHandler,
		communityHandler,
		teamHandler,
		invitationHandler,
		tournamentHandler,
		proposalHandler,
		notificationHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
