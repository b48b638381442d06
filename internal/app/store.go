package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/taskflow/internal/config"
	"github.com/aidar/taskflow/internal/repository"
	"github.com/aidar/taskflow/internal/repository/postgres"
	"github.com/aidar/taskflow/internal/repository/sqlite"
)

// OpenStore открывает хранилище ключ-значение выбранного драйвера
func OpenStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return openPostgres(ctx, cfg, logger)
	case "sqlite", "":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("Opened sqlite store", "path", cfg.SQLitePath)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// openPostgres устанавливает подключение к PostgreSQL с connection pool
func openPostgres(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (repository.Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := postgres.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("Connected to database")
	return store, nil
}
