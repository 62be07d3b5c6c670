package storage

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, когда запись с ключом отсутствует
var ErrNotFound = errors.New("запись не найдена")

// KV — транспорт для сохранения записей мира (world_params, world_data).
// Реализации безопасны для параллельного использования.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

var errClosed = errors.New("хранилище закрыто")
