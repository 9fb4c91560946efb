package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/repository"
	"github.com/rdesitter/gym-tracker/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// openStore connects the backend named by STORE_DRIVER. A backend that cannot be reached at
// startup leaves the service running without a store, so every store call degrades.
func openStore(cfg *config.Config, logger *slog.Logger) (repository.KV, time.Duration, func()) {
	noop := func() {}

	switch cfg.Store.Driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
			ReadTimeout:  time.Duration(cfg.Redis.OperationTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Redis.OperationTimeout) * time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, running without a config store", "error", err)
			_ = rdb.Close()
			return nil, 0, noop
		}

		logger.Info("config store ready", "driver", "redis")
		return repository.NewRedisKV(rdb), time.Duration(cfg.Redis.OperationTimeout) * time.Second, func() { _ = rdb.Close() }

	case "postgres":
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Warn("invalid database configuration, running without a config store", "error", err)
			return nil, 0, noop
		}

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		// sql.Open does not connect, so ping before migrating
		if err := dbpool.PingContext(ctx); err != nil {
			logger.Warn("database unreachable, running without a config store", "error", err)
			_ = dbpool.Close()
			return nil, 0, noop
		}
		if err := migrations.Up(ctx, dbpool); err != nil {
			logger.Warn("database migration failed, running without a config store", "error", err)
			_ = dbpool.Close()
			return nil, 0, noop
		}

		logger.Info("config store ready", "driver", "postgres")
		return repository.NewPostgresKV(dbpool), time.Duration(cfg.Database.QueryTimeout) * time.Second, func() { _ = dbpool.Close() }

	case "memory":
		logger.Warn("using the in-memory config store, state is lost on restart")
		return repository.NewMemoryKV(), 0, noop

	case "none":
		logger.Warn("config store disabled, change detection and subscribers are unavailable")
		return nil, 0, noop

	default:
		logger.Warn("unknown STORE_DRIVER, running without a config store", "driver", cfg.Store.Driver)
		return nil, 0, noop
	}
}
