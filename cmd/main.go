package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/shenikar/surakshita/internal/audit"
	"github.com/shenikar/surakshita/internal/auth"
	"github.com/shenikar/surakshita/internal/config"
	v1 "github.com/shenikar/surakshita/internal/handler/http/v1"
	"github.com/shenikar/surakshita/internal/lifecycle"
	"github.com/shenikar/surakshita/internal/ratelimit"
	"github.com/shenikar/surakshita/internal/repository"
	"github.com/shenikar/surakshita/internal/service"
	"github.com/shenikar/surakshita/pkg/logger"
	"github.com/shenikar/surakshita/pkg/postgres"
	redisclient "github.com/shenikar/surakshita/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/surakshita/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Surakshita API
// @version 1.0
// @description Personal safety incident reporting and dispatch service.
// @host localhost:8080
// @BasePath /
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newRateLimiter выбирает хранилище счётчиков квот
func newRateLimiter(cfg *config.Config, redisClient *redisclient.Client) *ratelimit.Limiter {
	var counter ratelimit.Counter
	switch cfg.RateLimitBackend {
	case "redis":
		counter = ratelimit.NewRedisCounter(redisClient)
	default:
		counter = ratelimit.NewMemoryCounter(nil)
	}
	return ratelimit.NewLimiter(counter, ratelimit.QuotasFromConfig(cfg))
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	// ctx останавливает фоновые воркеры при завершении
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Хранилища
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Connected to PostgreSQL")

	redisClient, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Connected to Redis")

	incidentRepo := repository.NewIncidentRepository(dbpool)
	userRepo := repository.NewUserRepository(dbpool)
	auditRepo := repository.NewAuditRepository(dbpool)

	// Журнал аудита: очередь в Redis, воркер сохраняет в БД и пересылает на вебхук
	auditRecorder := audit.NewRedisRecorder(redisClient, log)
	auditWorker := audit.NewWorker(redisClient, auditRepo, log, cfg)
	auditWorker.Start(ctx)

	// Доменный слой: одна машина состояний на оба домена
	machine := lifecycle.New(nil)
	incidentService := service.NewIncidentService(incidentRepo, machine, log, cfg)
	accountService := service.NewAccountService(userRepo, log)
	dispatchService := service.NewDispatchService(incidentRepo, machine, log)

	// HTTP-слой
	handler := v1.NewHandler(v1.Deps{
		Incidents: incidentService,
		Accounts:  accountService,
		Dispatch:  dispatchService,
		Sessions:  auth.NewRedisSessionStore(redisClient, cfg.SessionTTL),
		Operators: auth.NewConfigOperatorVerifier(cfg),
		Limiter:   newRateLimiter(cfg, redisClient),
		Throttle:  ratelimit.NewThrottle(cfg.PollRPS, cfg.PollBurst, 10*time.Minute, nil),
		Audit:     auditRecorder,
	}, log, cfg)

	router := gin.Default()
	handler.RegisterRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.WithField("addr", srv.Addr).Info("HTTP server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.WithField("signal", sig.String()).Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	cancel()

	log.Info("Shutdown complete")
}
