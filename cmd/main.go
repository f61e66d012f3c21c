/**
 * @description
 * Entry point for the ambassador console backend. Wires the config,
 * Postgres pool, blob store, optional redis (session cache + login rate
 * limiting), the outbox dispatcher, the cron scheduler and the HTTP
 * server, then runs until a shutdown signal. Redis and RabbitMQ degrade
 * gracefully: the service still serves without them.
 */
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nexapay/ambassador-service/internal/api"
	"github.com/nexapay/ambassador-service/internal/app"
	"github.com/nexapay/ambassador-service/internal/config"
	"github.com/nexapay/ambassador-service/internal/store"
	"github.com/nexapay/ambassador-service/pkg/objectstore"
)

func main() {
	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Establish database connection pool
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v", err)
	}
	dbConfig.MaxConns = 10
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts behind poolers
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	repo := store.NewPostgresRepository(dbpool, cfg.EventExchange)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed ensuring database schema: %v", err)
	}

	objects, err := objectstore.New(context.Background(), objectstore.Config{
		Region:     cfg.S3Region,
		Endpoint:   cfg.S3Endpoint,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Bucket:     cfg.S3Bucket,
		PresignTTL: time.Duration(cfg.PresignTTLMinutes) * time.Minute,
	})
	if err != nil {
		log.Fatalf("Failed to configure object store: %v", err)
	}

	service := app.NewService(repo, objects, app.ServiceConfig{
		JWTSecret:            cfg.JWTSecret,
		AccessTokenTTL:       time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		ActivationTTL:        time.Duration(cfg.ActivationTokenTTLHours) * time.Hour,
		LoginAttemptLimit:    cfg.LoginRateLimitPerMinute,
		KYCDocumentMaxBytes:  cfg.KYCDocumentMaxBytes,
		ReceiptImageMaxBytes: cfg.ReceiptImageMaxBytes,
	})

	// Redis is optional: without it the service runs DB-only sessions and
	// unlimited logins.
	if cfg.RedisURL != "" {
		if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
			log.Printf("WARNING: invalid REDIS_URL; continuing without redis: %v", err)
		} else {
			client := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := client.Ping(pingCtx).Err(); err != nil {
				log.Printf("WARNING: redis unreachable at startup; continuing without redis: %v", err)
			} else {
				service.SetSessionCache(app.NewRedisSessionCache(client, 0))
				service.SetRateLimiter(app.NewRedisRateLimiter(client, cfg.RedisRateLimitPrefix))
				log.Println("Redis connected: session cache and login rate limiting enabled")
			}
			cancel()
		}
	}

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	if cfg.RabbitMQURL != "" {
		dispatcher := app.NewOutboxDispatcher(repo, cfg.RabbitMQURL)
		go dispatcher.Run(dispatcherCtx)
		log.Println("Outbox dispatcher started")
	} else {
		log.Println("RABBITMQ_URL not set; outbox events will accumulate unpublished")
	}

	jobs := app.NewJobs(repo, time.Duration(cfg.StaleReceiptAgeHours)*time.Hour)
	scheduler := app.NewScheduler(jobs, app.SchedulerConfig{
		ActivationPurgeSchedule: cfg.ActivationPurgeSchedule,
		StaleReceiptSchedule:    cfg.StaleReceiptSchedule,
	})
	scheduler.Start()

	handler := api.NewHandler(service)
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.NewRouter(handler, cfg.Origins()),
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopDispatcher()
	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
