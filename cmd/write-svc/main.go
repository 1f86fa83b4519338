package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jhermesn/slugforge/internal/cache"
	"github.com/jhermesn/slugforge/internal/config"
	"github.com/jhermesn/slugforge/internal/httpapi"
	"github.com/jhermesn/slugforge/internal/metrics"
	"github.com/jhermesn/slugforge/internal/store"
	"github.com/jhermesn/slugforge/internal/store/migrations"
	"github.com/jhermesn/slugforge/internal/writer"
)

const (
	serviceName = "write-svc"

	redisPingTimeout = 5 * time.Second
	shutdownTimeout  = 10 * time.Second

	mysqlMaxOpenConns    = 25
	mysqlMaxIdleConns    = 10
	mysqlConnMaxLifetime = 5 * time.Minute
)

func main() {
	slog.SetDefault(newJSONLogger())

	cfg, err := config.LoadWrite()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	db, err := connectMySQL(cfg.DatabaseURL)
	if err != nil {
		slog.Error("connecting to mysql", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := connectRedis(cfg.RedisURL)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	if err := runMigrations(db); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	st := store.NewMySQLStore(db)
	ch := cache.NewRedisCache(redisClient)
	m := metrics.New("write_svc")
	svc := writer.New(st, ch, m, slog.Default())
	h := httpapi.NewWriteHandler(svc)

	r := httpapi.NewWriteRouter(h, m)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	slog.Info("server starting", "port", cfg.Port)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down")
	case err := <-serverErr:
		slog.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func newJSONLogger() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	})
	return slog.New(handler).With("service", serviceName)
}

func connectMySQL(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}
	db.SetMaxOpenConns(mysqlMaxOpenConns)
	db.SetMaxIdleConns(mysqlMaxIdleConns)
	db.SetConnMaxLifetime(mysqlConnMaxLifetime)
	return db, nil
}

func connectRedis(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func runMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(migrations.BootstrapSQL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
