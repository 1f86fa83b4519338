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
	"github.com/jhermesn/slugforge/internal/filler"
	"github.com/jhermesn/slugforge/internal/metrics"
	"github.com/jhermesn/slugforge/internal/store"
	"github.com/jhermesn/slugforge/internal/store/migrations"
)

const (
	serviceName = "slug-filler"

	redisPingTimeout = 5 * time.Second

	mysqlMaxOpenConns    = 10
	mysqlMaxIdleConns    = 5
	mysqlConnMaxLifetime = 5 * time.Minute

	metricsPort = "9100"
)

func main() {
	slog.SetDefault(newJSONLogger())

	cfg, err := config.LoadFiller()
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
	m := metrics.New("slug_filler")

	f := filler.New(st, ch, filler.Config{
		SlugLen:   cfg.SlugLen,
		HighWater: cfg.QueueSize,
		Interval:  cfg.Interval,
		Batch:     cfg.Batch,
	}, m, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		slog.Info("metrics server starting", "port", metricsPort)
		if err := http.ListenAndServe(":"+metricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	slog.Info("filler starting", "slug_len", cfg.SlugLen, "high_water", cfg.QueueSize, "interval", cfg.Interval)

	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()
	<-done
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
