package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/logging"
	"github.com/rdesitter/gym-tracker/internal/repository"
	"github.com/rdesitter/gym-tracker/internal/seed"
	"github.com/rdesitter/gym-tracker/internal/utils"
	"github.com/rdesitter/gym-tracker/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string
	var emailDomain string

	flag.IntVar(&op, "op", 0, "operation to run (1: insert random subscribers, 2: import subscribers from CSV)")
	flag.IntVar(&n, "n", 5, "number of random subscribers to insert")
	flag.StringVar(&file, "file", "subscribers.csv", "CSV file with email,day,start,end rows")
	flag.StringVar(&emailDomain, "domain", "example.com", "email domain of random subscribers")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.New(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	kv, closeStore, err := connect(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to the config store", "driver", cfg.Store.Driver, "error", err)
		return
	}
	defer closeStore()

	repo := repository.NewRepository(kv, 0)

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		if n <= 0 {
			slog.Error("the number of subscribers must be positive")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			sub := utils.GenerateRandomUserConfig(emailDomain)
			if err := repo.UpsertUserConfig(ctx, sub); err != nil {
				slog.Error("failed to insert subscriber", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("random subscribers inserted", slog.Int("count", cnt))
	case 2:
		f, err := os.Open(file)
		if err != nil {
			slog.Error("failed to open file", slog.String("file", file), slog.String("error", err.Error()))
			return
		}
		defer f.Close()

		if _, err := seed.ImportSubscribers(ctx, f, repo); err != nil {
			slog.Error("import failed", slog.String("error", err.Error()))
		}
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}

// connect opens the configured backend and fails instead of degrading, a seed with nowhere to
// write is an error.
func connect(ctx context.Context, cfg *config.Config) (repository.KV, func(), error) {
	switch cfg.Store.Driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return repository.NewRedisKV(rdb), func() { _ = rdb.Close() }, nil

	case "postgres":
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := dbpool.PingContext(ctx); err != nil {
			_ = dbpool.Close()
			return nil, nil, err
		}
		if err := migrations.Up(ctx, dbpool); err != nil {
			_ = dbpool.Close()
			return nil, nil, err
		}
		return repository.NewPostgresKV(dbpool), func() { _ = dbpool.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("driver %q cannot be seeded", cfg.Store.Driver)
	}
}
