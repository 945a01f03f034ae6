package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authgate/internal/auth"
	"authgate/internal/config"
	"authgate/internal/handler"
	"authgate/internal/messaging"
	"authgate/internal/middleware"
	"authgate/internal/observability"
	"authgate/internal/repository/postgres"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting auth server")

	db, err := config.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgresql")

	var publisher *messaging.Publisher
	if cfg.RabbitMQURL != "" {
		rmqCtx, rmqCancel := context.WithTimeout(context.Background(), 60*time.Second)
		publisher, err = messaging.NewPublisherWithRetry(rmqCtx, cfg.RabbitMQURL)
		rmqCancel()
		if err != nil {
			slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("connected to rabbitmq")
	}

	store := postgres.NewCredentialStore(db, cfg.UserTable)

	dispatcher, err := auth.NewDispatcher(auth.Config{
		Store:               store,
		IDField:             cfg.IDField,
		UsernameField:       cfg.UsernameField,
		HashedPasswordField: cfg.HashedPasswordField,
		SaltField:           cfg.SaltField,
		SessionSecret:       cfg.SessionSecret,
		CookieDomain:        cfg.CookieDomain,
		SessionLifetime:     cfg.SessionLifetime,
	})
	if err != nil {
		slog.Error("failed to build auth dispatcher", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authHandler := handler.NewAuthHandler(dispatcher, publisher)
	webhookHandler := handler.NewWebhookHandler(cfg.WebhookSecret, cfg.WebhookHeader, publisher)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())
	r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig()))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db, publisher))
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.NewRateLimiter(5, 10)
	defer authLimiter.Stop()

	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware())
		r.Use(middleware.CSRF(dispatcher))
		r.Post("/", authHandler.Serve)
		r.Post("/{method}", authHandler.Serve)
		r.Get("/{method}", authHandler.Serve)
	})

	r.Post("/webhooks/{name}", webhookHandler.Verify)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", slog.String("error", err.Error()))
	}
}
