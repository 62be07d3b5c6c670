package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-sim/internal/config"
)

// checkKV проверяет общий контракт KV на любом бэкенде
func checkKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "world_params")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "world_params", []byte(`{"seed":1}`)))
	require.NoError(t, kv.Set(ctx, "world_data", []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}))

	data, err := kv.Get(ctx, "world_params")
	require.NoError(t, err)
	assert.Equal(t, `{"seed":1}`, string(data))

	// Перезапись
	require.NoError(t, kv.Set(ctx, "world_params", []byte(`{"seed":2}`)))
	data, err = kv.Get(ctx, "world_params")
	require.NoError(t, err)
	assert.Equal(t, `{"seed":2}`, string(data))

	data, err = kv.Get(ctx, "world_data")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}, data)
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	checkKV(t, kv)
	assert.Equal(t, 2, kv.Len())

	// Возвращаемое значение — копия
	data, err := kv.Get(context.Background(), "world_params")
	require.NoError(t, err)
	data[0] = 'X'
	again, err := kv.Get(context.Background(), "world_params")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0])

	require.NoError(t, kv.Close())
	_, err = kv.Get(context.Background(), "world_params")
	assert.Error(t, err)
}

func TestMemoryKVCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	kv := NewMemoryKV()
	assert.ErrorIs(t, kv.Set(ctx, "k", []byte("v")), context.Canceled)
}

func TestFileKV(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	checkKV(t, kv)
	require.NoError(t, kv.Close())

	// Данные переживают повторное открытие
	reopened, err := NewFileKV(dir)
	require.NoError(t, err)
	data, err := reopened.Get(context.Background(), "world_params")
	require.NoError(t, err)
	assert.Equal(t, `{"seed":2}`, string(data))

	// Ключи с небезопасными символами не выходят за пределы каталога
	require.NoError(t, reopened.Set(context.Background(), "../escape:key", []byte("x")))
	matches, err := filepath.Glob(filepath.Join(dir, "*.rec"))
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestBadgerKV(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewBadgerKV(dir)
	require.NoError(t, err)
	checkKV(t, kv)
	require.NoError(t, kv.Close())
	require.NoError(t, kv.Close())

	_, err = kv.Get(context.Background(), "world_params")
	assert.Error(t, err)

	reopened, err := NewBadgerKV(dir)
	require.NoError(t, err)
	defer reopened.Close()
	data, err := reopened.Get(context.Background(), "world_params")
	require.NoError(t, err)
	assert.Equal(t, `{"seed":2}`, string(data))
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "world.db")
	kv, err := NewSQLiteKV(context.Background(), path)
	require.NoError(t, err)
	defer kv.Close()

	assert.Equal(t, DialectSQLite, kv.Dialect())
	checkKV(t, kv)
}

func TestOpenFactory(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, config.StorageConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryKV{}, kv)

	kv, err = Open(ctx, config.StorageConfig{Backend: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, kv)

	kv, err = Open(ctx, config.StorageConfig{Backend: "sqlite", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &SQLKV{}, kv)
	require.NoError(t, kv.Close())

	_, err = Open(ctx, config.StorageConfig{Backend: "floppy"})
	assert.Error(t, err)
}

func TestNATSKeySanitized(t *testing.T) {
	assert.Equal(t, "voxel_world_params", natsKey("voxel:world_params"))
	assert.Equal(t, "world_data", natsKey("world_data"))
}
