package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-calendar/config"
	"github.com/Dosada05/tournament-calendar/handlers"
	"github.com/Dosada05/tournament-calendar/live"
	"github.com/Dosada05/tournament-calendar/logger"
	"github.com/Dosada05/tournament-calendar/repositories"
	api "github.com/Dosada05/tournament-calendar/routes"
	"github.com/Dosada05/tournament-calendar/services"
	"github.com/Dosada05/tournament-calendar/session"
	"github.com/Dosada05/tournament-calendar/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("failed to load configuration", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, ServiceName: "tournament-calendar"})
	defer func() { _ = log.Sync() }()
	log.Info("configuration loaded",
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.String("upload_backend", cfg.Upload.Backend),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Сессия и тема
	sess, err := session.New(cfg.Session)
	if err != nil {
		log.Fatal("failed to initialize session", zap.Error(err))
	}
	theme := session.NewTheme(cfg.DarkMode)
	log.Info("session initialized", zap.Bool("authenticated", sess.Authenticated()))

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// Загрузчик изображений (Cloudinary или Cloudflare R2)
	uploader, err := storage.NewFromConfig(cfg.Upload, httpClient)
	if err != nil {
		log.Fatal("failed to initialize asset uploader", zap.Error(err))
	}

	// Репозитории
	apiClient, err := repositories.NewClient(cfg.APIBaseURL, httpClient, sess, log)
	if err != nil {
		log.Fatal("failed to initialize api client", zap.Error(err))
	}
	tournamentRepo := repositories.NewHTTPTournamentRepository(apiClient, cfg.CollectionPath)
	likeRepo := repositories.NewHTTPLikeRepository(apiClient)
	commentRepo := repositories.NewHTTPCommentRepository(apiClient)

	// Сервисы
	cache := services.NewEventCache(tournamentRepo, log)
	composer := services.NewComposer(cache, tournamentRepo, uploader, sess, log)
	likes := services.NewLikeEngine(likeRepo, sess, log)
	// like state is per viewer
	stopLikeReset := sess.OnIdentityChange(likes.Reset)
	defer stopLikeReset()
	comments := services.NewCommentThreads(commentRepo, sess, log)
	detail := services.NewDetailService(cache, likes, comments, composer, log)

	// WebSocket Hub
	hub := live.NewHub(log)
	go hub.Run(ctx)
	unsubscribe := cache.OnChange(func(snap services.Snapshot) {
		hub.Publish(live.MessageViewUpdated, snap)
	})
	defer unsubscribe()

	go func() {
		if err := cache.Load(ctx); err != nil {
			log.Error("initial tournament load failed", zap.Error(err))
			return
		}
		log.Info("tournaments loaded", zap.Int("count", len(cache.Records())))
	}()

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{AllowedOrigins: cfg.AllowedOrigins, Session: sess, Logger: log},
		handlers.NewCalendarHandler(cache, detail, composer),
		handlers.NewComposerHandler(composer, cache),
		handlers.NewEngagementHandler(likes, comments),
		handlers.NewSessionHandler(sess, theme, hub),
		handlers.NewWebSocketHandler(hub, cache, cfg.AllowedOrigins),
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     zap.NewStdLog(log.Named("http_server")),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
			os.Exit(1)
		}
		log.Info("server stopped gracefully")
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		stop()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		log.Info("shutting down server", zap.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			if closeErr := server.Close(); closeErr != nil {
				log.Error("failed to force close server", zap.Error(closeErr))
			}
			os.Exit(1)
		}
		log.Info("server shutdown complete")
	}
	log.Info("application exited")
}
