package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"wecare-alerts/internal/classifier"
	"wecare-alerts/internal/config"
	"wecare-alerts/internal/logger"
	"wecare-alerts/internal/vitals"
)

const serviceName = "wecare-alerts"

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
}

// openHistory connects the configured history backend. The returned closer
// releases its connections.
func openHistory(ctx context.Context, cfg *config.Config, log *zap.Logger) (vitals.HistoryStore, func() error, error) {
	switch cfg.History.Backend {
	case config.BackendPostgres:
		db, err := openPostgres(ctx, cfg.Database.URL, log)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migrateUp(cfg); err != nil {
				db.Close()
				return nil, nil, err
			}
			log.Info("Migrations applied")
		}
		return vitals.NewPostgresStore(db, log), db.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return vitals.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.History.Retain, log), client.Close, nil

	case config.BackendSQLite:
		store, err := vitals.OpenSQLiteStore(cfg.SQLite.Path, log)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.BackendMemory:
		log.Warn("Using in-memory history; readings are lost on restart")
		return vitals.NewMemoryStore(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
}

// openPostgres waits for the database to accept connections.
func openPostgres(ctx context.Context, url string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	const attempts = 10
	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			log.Info("Connected to database")
			return db, nil
		}
		if i == attempts {
			break
		}
		log.Warn("Waiting for database", zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	db.Close()
	return nil, fmt.Errorf("connect postgres: %w", err)
}

func migrateUp(cfg *config.Config) error {
	m, err := migrate.New(cfg.Database.MigrationsPath, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func newEngine(cfg *config.Config, store vitals.HistoryStore, log *zap.Logger) (*vitals.Engine, error) {
	forest, err := classifier.Load(cfg.Classifier.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	log.Info("Classifier loaded",
		zap.String("model", forest.Name),
		zap.Int("version", forest.Version),
		zap.Int("trees", len(forest.Trees)),
	)
	return vitals.NewEngine(store, forest, cfg.EnginePolicy(), log)
}
