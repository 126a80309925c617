// @title           Task Management API
// @version         1.0
// @description     Tasks, comments and task-scoped authorization for authors and executors.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
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

	"github.com/rs/zerolog"

	"github.com/taskmanagement/task-system/internal/api"
	"github.com/taskmanagement/task-system/internal/core/service"
	mongodb "github.com/taskmanagement/task-system/internal/infrastructure/db/mongo"
	redisdb "github.com/taskmanagement/task-system/internal/infrastructure/db/redis"
	"github.com/taskmanagement/task-system/internal/infrastructure/http/handlers"
	"github.com/taskmanagement/task-system/internal/infrastructure/queue"
	"github.com/taskmanagement/task-system/internal/pkg/config"
	"github.com/taskmanagement/task-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "task-api",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     "task-api",
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect mongo")
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		ClientName: "task-api",
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect redis")
	}

	users := mongodb.NewUserRepository(db)
	tasks := mongodb.NewTaskRepository(db)
	comments := mongodb.NewCommentRepository(db)
	events := mongodb.NewTaskEventRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"users":    users.EnsureIndexes,
		"tasks":    tasks.EnsureIndexes,
		"comments": comments.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			lg.Fatal().Err(err).Str("collection", name).Msg("failed to create indexes")
		}
	}

	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		lg.Fatal().Err(err).Msg("invalid token configuration")
	}

	dispatcher := queue.NewDispatcher(cfg.Events.Workers, events, lg)
	dispatcher.Start()

	roles := redisdb.NewRoleCache(rdb)
	taskService := service.NewTaskService(service.TaskDependencies{
		Tasks:    tasks,
		Comments: comments,
		Users:    users,
		Roles:    roles,
		Events:   events,
		Recorder: dispatcher,
	}, lg)

	e := api.NewRouter(api.Dependencies{
		Log:            lg,
		Authenticator:  service.NewAuthenticator(tokens, users, lg),
		Authorizer:     service.NewAuthorizationService(users, roles),
		AuthService:    service.NewAuthService(users, tokens, lg),
		TaskService:    taskService,
		CommentService: service.NewCommentService(tasks, comments, users, lg),
		Readiness: []handlers.DependencyCheck{
			handlers.MongoCheck(db),
			handlers.RedisCheck(rdb),
		},
	})

	go func() {
		lg.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(lg)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("http shutdown")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		lg.Warn().Err(err).Msg("event dispatcher did not drain")
	}
	if err := mongodb.Disconnect(context.Background(), mongoClient, 5*time.Second); err != nil {
		lg.Error().Err(err).Msg("mongo disconnect")
	}
	if err := rdb.Close(); err != nil {
		lg.Error().Err(err).Msg("redis close")
	}
	lg.Info().Msg("stopped")
}

func waitForShutdown(lg zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	lg.Info().Str("signal", sig.String()).Msg("shutting down")
}
