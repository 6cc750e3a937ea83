package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AnshRaj112/inframonitor-backend/internal/config"
	"github.com/AnshRaj112/inframonitor-backend/internal/database"
	"github.com/AnshRaj112/inframonitor-backend/internal/handlers"
	"github.com/AnshRaj112/inframonitor-backend/internal/logger"
	"github.com/AnshRaj112/inframonitor-backend/internal/middleware"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
	"github.com/AnshRaj112/inframonitor-backend/internal/routes"
	"github.com/AnshRaj112/inframonitor-backend/internal/services"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(logger.Config{Development: !cfg.IsProduction()})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Info("No .env file found")
	}

	log.Infow("Connecting to MongoDB...", "uri", database.MaskURI(cfg.MongoURI))
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatalw("Failed to connect to MongoDB", "error", err)
	}
	defer database.Disconnect()

	log.Info("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatalw("Failed to connect to Redis", "error", err)
	}
	defer database.DisconnectRedis()

	checks := map[string]handlers.HealthCheck{
		"mongodb": database.PingMongo,
		"redis":   database.PingRedis,
	}

	var activity repository.ActivityRepository
	if cfg.PostgresURI != "" {
		log.Info("Connecting to PostgreSQL...")
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			log.Warnw("⚠️  PostgreSQL unavailable, activity ledger disabled", "error", err)
		} else {
			defer database.DisconnectPostgres()
			activity = repository.NewPostgresActivityRepository(database.PostgresDB)
			checks["postgres"] = database.PingPostgres
		}
	} else {
		log.Info("POSTGRES_URI not set, activity ledger disabled")
	}

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureIndexes(indexCtx, database.DB); err != nil {
		log.Warnw("⚠️  failed to ensure MongoDB indexes", "error", err)
	} else {
		log.Info("✅ MongoDB indexes ensured")
	}
	cancelIndexes()

	users := repository.NewMongoUserRepository(database.DB)
	occurrences := repository.NewMongoOccurrenceRepository(database.DB)
	confirmations := repository.NewMongoConfirmationRepository(database.DB)
	tx := repository.NewMongoTxRunner(database.Client, cfg.MongoTransactions)
	if !cfg.MongoTransactions {
		log.Warn("⚠️  MONGO_TRANSACTIONS=false: stat updates are not atomic with their writes")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := services.NewNotificationHub(database.RedisClient, log)
	hub.Start(ctx)

	var mailer services.Mailer
	if cfg.EmailEnabled() {
		mailer = services.NewSMTPMailer(services.SMTPConfig{
			Host: cfg.EmailHost,
			Port: cfg.EmailPort,
			User: cfg.EmailUser,
			Pass: cfg.EmailPass,
			From: cfg.EmailFrom,
		}, log)
		log.Info("✅ SMTP mailer configured")
	} else {
		log.Warn("Email credentials not found. Email notifications are disabled")
	}
	notifications := services.NewNotificationService(users, hub, mailer, log)

	cache := services.NewStatsCache(database.RedisClient, cfg.StatsCacheTTL, log)
	effects := &services.Effects{Notifier: notifications, Cache: cache, Log: log, Async: true}
	if activity != nil {
		effects.Activity = activity
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := services.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		effects.Events = publisher
		log.Infow("✅ Kafka publisher configured", "topic", cfg.KafkaTopic)
	}

	var uploader services.ImageUploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warnw("Failed to initialize Cloudinary, image uploads disabled", "error", err)
		} else {
			uploader = cld
			log.Info("✅ Cloudinary service initialized")
		}
	} else {
		log.Warn("Cloudinary credentials not found. Image uploads will not be available")
	}

	screener := services.NewContentScreener(cfg.BlockedTerms)
	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	auth := services.NewAuthService(users, tokens, services.NewRedisTokenRevocations(database.RedisClient, cfg.JWTExpiresIn), effects)
	limiter := middleware.DefaultRedisRateLimit(database.RedisClient, log)

	h := &handlers.Handler{
		Occurrences: services.NewOccurrenceService(services.OccurrenceServiceConfig{
			Occurrences:    occurrences,
			Confirmations:  confirmations,
			Users:          users,
			Tx:             tx,
			Screener:       screener,
			Uploader:       uploader,
			Effects:        effects,
			AllowAnonymous: cfg.AllowAnonymousReports,
		}),
		Confirmations: services.NewConfirmationService(services.ConfirmationServiceConfig{
			Occurrences:     occurrences,
			Confirmations:   confirmations,
			Users:           users,
			Tx:              tx,
			Screener:        screener,
			Effects:         effects,
			AnonymousPolicy: cfg.AnonConfirmPolicy,
		}),
		Stats:         services.NewStatsService(occurrences, confirmations, users, cache),
		Users:         services.NewUserService(users, occurrences),
		Auth:          auth,
		Notifications: notifications,
		Hub:           hub,
		Insights:      services.NewInsightsService(activity),
		Blocklist:     limiter,
		Checks:        checks,
		Production:    cfg.IsProduction(),
		Log:           log,
	}

	router := routes.NewRouter(h, auth, routes.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHost:    cfg.AllowedHost,
		Production:     cfg.IsProduction(),
		RedisLimit:     limiter,
		Log:            log,
	})
	if cfg.IsProduction() {
		log.Info("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Infow("🚀 InfraMonitor backend running", "port", cfg.Port, "env", cfg.Environment,
			"anonymousReports", cfg.AllowAnonymousReports, "anonConfirmPolicy", cfg.AnonConfirmPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
	}
}
