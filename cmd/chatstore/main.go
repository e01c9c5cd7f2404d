package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/chat-history/internal/chat"
	"github.com/suPer8Hu/chat-history/internal/config"
	"github.com/suPer8Hu/chat-history/internal/db"
	"github.com/suPer8Hu/chat-history/internal/logging"
	"github.com/suPer8Hu/chat-history/internal/store/redisstore"
)

// chatstore opens the configured database, creates any missing tables and
// checks the optional session cache. Hosting applications run it before
// serving traffic.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("load .env", "err", err)
	}
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("chatstore failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	opts := []chat.Option{chat.WithLogger(logger)}

	if cfg.RedisAddr != "" {
		cache := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionCacheTTL)
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("session cache unreachable, continuing without it", "addr", cfg.RedisAddr, "err", err)
		} else {
			opts = append(opts, chat.WithSessionCache(cache))
			logger.Info("session cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.SessionCacheTTL)
		}
	}

	start := time.Now()
	store, err := chat.Open(ctx, db.Options{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		SlowThreshold:   cfg.DBSlowThreshold,
		Logger:          logger,
	}, opts...)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("schema ready", "driver", cfg.DBDriver, "cost", time.Since(start))
	return nil
}
