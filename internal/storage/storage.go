// Package storage persists the client session between runs.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/taskboard/internal/config"
)

// Keys used by the session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store is a small durable key/value store.
type Store interface {
	// Get returns the value of key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open returns the backend selected by cfg.Storage.
func Open(cfg *config.ClientConfig) (Store, error) {
	switch cfg.Storage {
	case config.StorageFile, "":
		return NewFileStore(cfg.StoragePath), nil
	case config.StorageSQLite:
		db, err := gorm.Open(sqlite.Open(sqlitePath(cfg.StoragePath)), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return NewGormStore(db)
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisStore(client, cfg.RedisPrefix), nil
	case config.StorageMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// sqlitePath keeps the default session.json location usable for sqlite.
func sqlitePath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}
	return path
}
