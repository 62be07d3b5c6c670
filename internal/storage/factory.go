package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/annel0/voxel-sim/internal/config"
	"github.com/annel0/voxel-sim/internal/logging"
)

// Open создаёт транспорт записей мира по конфигурации.
// Backend: memory | file | badger | redis | mysql | sqlite | mongo | nats
func Open(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	var (
		kv  KV
		err error
	)
	switch backend {
	case "", "memory":
		backend = "memory"
		kv = NewMemoryKV()
	case "file":
		kv, err = NewFileKV(cfg.Path)
	case "badger":
		kv, err = NewBadgerKV(cfg.Path)
	case "redis":
		kv, err = NewRedisKV(ctx, &RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	case "mysql", "maria", "mariadb":
		kv, err = NewMySQLKV(ctx, cfg.DSN)
	case "sqlite":
		path := cfg.DSN
		if path == "" {
			path = filepath.Join(cfg.Path, "world.db")
		}
		kv, err = NewSQLiteKV(ctx, path)
	case "mongo", "mongodb":
		kv, err = NewMongoKV(ctx, MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	case "nats":
		kv, err = NewNATSKV(cfg.NATSURL, cfg.NATSBucket)
	default:
		return nil, fmt.Errorf("неизвестный backend хранилища: %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("открытие хранилища %s: %w", backend, err)
	}

	logging.GetStorageLogger().Info("Хранилище мира: %s", backend)
	return kv, nil
}
