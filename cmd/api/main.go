// @title                       Inventory API
// @version                     1.0
// @description                 Equipment inventory with role-based access and per-item change history.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/api"
	"github.com/stockroom/inventory-api/internal/core/service"
	mongodb "github.com/stockroom/inventory-api/internal/infrastructure/db/mongo"
	redisdb "github.com/stockroom/inventory-api/internal/infrastructure/db/redis"
	"github.com/stockroom/inventory-api/internal/infrastructure/http/handlers"
	"github.com/stockroom/inventory-api/internal/infrastructure/queue"
	"github.com/stockroom/inventory-api/internal/infrastructure/security"
	"github.com/stockroom/inventory-api/internal/pkg/config"
	"github.com/stockroom/inventory-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "inventory-api",
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "inventory-api",
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	// --- Security ---
	hasher := security.NewHasher(cfg.Auth.BcryptCost)
	tokens, err := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, security.WithIssuer(cfg.Auth.JWTIssuer))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token manager")
	}

	// --- Activity stream ---
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, mongodb.NewEventStore(db), log)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	// --- Services ---
	users := mongodb.NewUserRepository(db)
	authService := service.NewAuthService(users, hasher, tokens, log)
	userService := service.NewUserService(users, log)
	equipmentService := service.NewEquipmentService(
		mongodb.NewEquipmentRepository(db),
		redisdb.NewSerialLock(rdb, cfg.Redis.SerialLockTTL),
		dispatcher,
		log,
	)

	if cfg.Master.Enabled() {
		if _, err := authService.EnsureMaster(ctx, service.MasterAccount{
			DisplayName: cfg.Master.Name,
			Email:       cfg.Master.Email,
			Password:    cfg.Master.Password,
		}); err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap master account")
		}
	}

	e := api.NewRouter(api.Dependencies{
		Auth:      authService,
		Users:     userService,
		Equipment: equipmentService,
		Readiness: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
		Log: log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	log.Info().Msg("http server stopped")
}
