// Package backend wires the configured store and event publisher.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mmynk/streamsplit/internal/config"
	"github.com/mmynk/streamsplit/internal/events"
	"github.com/mmynk/streamsplit/internal/storage"
	"github.com/mmynk/streamsplit/internal/storage/memory"
	"github.com/mmynk/streamsplit/internal/storage/postgres"
	"github.com/mmynk/streamsplit/internal/storage/sqlite"
)

// OpenStore creates the store selected by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		logger.Info("Initialized SQLite store", "db_path", cfg.SQLiteDBPath)
		return store, nil

	case config.BackendPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
		logger.Info("Initialized PostgreSQL store")
		return store, nil

	case config.BackendMemory:
		logger.Info("Initialized memory store")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}

// Migrate brings the schema of the configured SQL store up to date without
// opening a store.
func Migrate(cfg *config.Config) error {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDBPath), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		return sqlite.RunMigrations(cfg.SQLiteDBPath)
	case config.BackendPostgres:
		return postgres.RunMigrations(cfg.DatabaseURL)
	case config.BackendMemory:
		return nil
	default:
		return fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}

// OpenPublisher connects to the AMQP broker when one is configured. A broker
// that cannot be reached is logged and replaced by a no-op publisher so the
// tracker keeps working without events.
func OpenPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AMQPURL == "" {
		return events.Nop{}
	}

	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Warn("Failed to initialize AMQP publisher, continuing without events", "error", err)
		return events.Nop{}
	}

	logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange)
	return p
}
