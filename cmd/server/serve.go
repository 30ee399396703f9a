package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"account_backend/internal/app/di"
	"account_backend/internal/app/router"
	"account_backend/internal/config"
	accounthandler "account_backend/internal/feature/account/transport/handler"
	"account_backend/internal/feature/account/usecase"
	"account_backend/internal/platform/db"
	platformhttp "account_backend/internal/platform/http"
	platformhandler "account_backend/internal/platform/http/handler"
	"account_backend/internal/platform/metrics"
	platformredis "account_backend/internal/platform/redis"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Open the database, create the user table if configured to, and serve the account endpoints until SIGINT or SIGTERM.`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg)
}

func serve(ctx context.Context, cfg *config.Config) error {
	// db
	gdb, err := db.Open(dbConfig(cfg), slog.Default())
	if err != nil {
		slog.Error("database open failed", "error", err)
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			slog.Error("migration failed", "error", err)
			return err
		}
	}

	// Redis
	rdb := openRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// Metrics
	var m *metrics.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsHandler = m.Handler()
	}

	// Repository, usecase, handler
	repo := di.NewAccountRepository(gdb, rdb, cfg.Redis.TTL, cfg.Redis.Namespace)
	hasher, err := di.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		slog.Error("invalid hasher configuration", "error", err)
		return err
	}
	accountUC := usecase.NewAccountUsecase(repo, hasher, cfg.Auth.MinPasswordLength)

	var recorder accounthandler.OutcomeRecorder
	if m != nil {
		recorder = m
	}
	accountH := accounthandler.NewAccountHandler(accountUC, recorder)
	healthH := platformhandler.NewHealthHandler(func(ctx context.Context) error { return db.Ping(ctx, gdb) })

	gin.SetMode(ginMode(cfg.Log.Level))
	r := router.NewRouter(accountH, healthH, metricsHandler)

	srv := platformhttp.NewServer(platformhttp.ServerConfig{
		Host:            cfg.HTTP.Host,
		Port:            cfg.HTTP.Port,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, r)

	slog.Info("account server starting", "addr", srv.Addr(), "driver", cfg.Database.Driver, "cache", rdb != nil)
	if err := srv.Run(ctx); err != nil {
		slog.Error("server stopped with error", "error", err)
		return err
	}
	slog.Info("account server stopped")
	return nil
}

// openRedis connects to the lookup cache. The service runs without it when
// no address is configured or Redis is unreachable.
func openRedis(ctx context.Context, cfg config.Redis) *redisv9.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb, err := platformredis.NewRedisClient(ctx, platformredis.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "addr", cfg.Addr, "error", err)
		return nil
	}
	return rdb
}

func dbConfig(cfg *config.Config) db.Config {
	return db.Config{
		Driver:         cfg.Database.Driver,
		Path:           cfg.Database.Path,
		DSN:            cfg.Database.DSN,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		Debug:          cfg.Database.Debug,
	}
}

func ginMode(level string) string {
	if level == "debug" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
