package world

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-sim/internal/storage"
	"github.com/annel0/voxel-sim/internal/vec"
	"github.com/annel0/voxel-sim/internal/world/block"
	"github.com/annel0/voxel-sim/internal/world/terrain"
)

func TestModificationStoreSetGet(t *testing.T) {
	mods := NewModificationStore()
	local := vec.Vec3{X: 1, Y: 2, Z: 3}

	assert.True(t, mods.Set("0,0", local, block.StoneBlockID))
	assert.False(t, mods.Set("0,0", local, block.StoneBlockID))
	assert.True(t, mods.Set("0,0", local, block.EmptyBlockID))

	id, ok := mods.Get("0,0", local)
	require.True(t, ok)
	assert.Equal(t, block.EmptyBlockID, id)

	_, ok = mods.Get("0,1", local)
	assert.False(t, ok)

	mods.Set("island:2", vec.Vec3{}, block.SandBlockID)
	assert.Equal(t, 2, mods.Len())
	assert.Equal(t, []string{"0,0", "island:2"}, mods.ChunkKeys())

	mods.Clear()
	assert.Zero(t, mods.Len())
	assert.Empty(t, mods.ChunkKeys())
}

func TestModificationStoreOverridesIsCopy(t *testing.T) {
	mods := NewModificationStore()
	mods.Set("0,0", vec.Vec3{X: 1}, block.StoneBlockID)

	copied := mods.Overrides("0,0")
	copied[vec.Vec3{X: 2}] = block.SandBlockID

	assert.Equal(t, 1, mods.Len())
	assert.Empty(t, mods.Overrides("missing"))
}

func TestModificationStoreSnapshotRestore(t *testing.T) {
	mods := NewModificationStore()
	mods.Set("-1,2", vec.Vec3{X: 7, Y: 0, Z: 3}, block.StoneBlockID)
	mods.Set("island:0", vec.Vec3{X: 1, Y: 6, Z: 1}, block.EmptyBlockID)

	snap := mods.Snapshot()
	assert.Equal(t, OverlaySnapshot{
		"-1,2":     {"7,0,3": block.StoneBlockID},
		"island:0": {"1,6,1": block.EmptyBlockID},
	}, snap)

	restored := NewModificationStore()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, snap, restored.Snapshot())
}

func TestModificationStoreRestoreRejectsBadInput(t *testing.T) {
	mods := NewModificationStore()
	mods.Set("0,0", vec.Vec3{}, block.StoneBlockID)

	err := mods.Restore(OverlaySnapshot{"0,0": {"1,2": block.StoneBlockID}})
	assert.Error(t, err)
	err = mods.Restore(OverlaySnapshot{"0,0": {"1,2,3": block.BlockID(999)}})
	assert.Error(t, err)

	// Содержимое не изменилось
	assert.Equal(t, OverlaySnapshot{"0,0": {"0,0,0": block.StoneBlockID}}, mods.Snapshot())
}

func TestModificationStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	params := terrain.DefaultParams().WithSeed(777)

	mods := NewModificationStore()
	mods.Set("2,-3", vec.Vec3{X: 4, Y: 10, Z: 5}, block.CactusBlockID)
	require.NoError(t, mods.Save(ctx, kv, params))

	raw, err := kv.Get(ctx, DataRecordKey)
	require.NoError(t, err)
	assert.Equal(t, zstdMagic, raw[:4])

	loaded := NewModificationStore()
	res := loaded.Load(ctx, kv, terrain.DefaultParams())
	assert.False(t, res.ParamsDefaulted)
	assert.False(t, res.OverlayDefaulted)
	assert.Equal(t, params, res.Params)
	assert.Equal(t, 1, res.Overrides)
	assert.Equal(t, mods.Snapshot(), loaded.Snapshot())
}

func TestModificationStoreLoadMissingRecords(t *testing.T) {
	mods := NewModificationStore()
	mods.Set("0,0", vec.Vec3{}, block.StoneBlockID)
	defaults := terrain.DefaultParams().WithSeed(5)

	res := mods.Load(context.Background(), storage.NewMemoryKV(), defaults)
	assert.True(t, res.ParamsDefaulted)
	assert.True(t, res.OverlayDefaulted)
	assert.ErrorIs(t, res.ParamsErr, storage.ErrNotFound)
	assert.ErrorIs(t, res.OverlayErr, storage.ErrNotFound)
	assert.Equal(t, defaults, res.Params)
	assert.Zero(t, mods.Len())
}

func TestModificationStoreLoadCorruptOverlay(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	params := terrain.DefaultParams().WithSeed(9)
	require.NoError(t, NewModificationStore().Save(ctx, kv, params))

	for name, data := range map[string][]byte{
		"garbage":      []byte("{not json"),
		"broken zstd":  append(append([]byte{}, zstdMagic...), 1, 2, 3),
		"null":         []byte("null"),
		"unknown id":   []byte(`{"0,0":{"1,1,1":999}}`),
		"bad position": []byte(`{"0,0":{"x":1}}`),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, DataRecordKey, data))
			mods := NewModificationStore()
			mods.Set("0,0", vec.Vec3{}, block.StoneBlockID)

			res := mods.Load(ctx, kv, terrain.DefaultParams())
			assert.False(t, res.ParamsDefaulted)
			assert.Equal(t, params, res.Params)
			assert.True(t, res.OverlayDefaulted)
			assert.Error(t, res.OverlayErr)
			assert.Zero(t, mods.Len())
		})
	}
}

func TestModificationStoreLoadPlainJSONOverlay(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, DataRecordKey, []byte(`{"1,1":{"0,5,0":3}}`)))

	mods := NewModificationStore()
	res := mods.Load(ctx, kv, terrain.DefaultParams())
	assert.False(t, res.OverlayDefaulted)
	id, ok := mods.Get("1,1", vec.Vec3{Y: 5})
	require.True(t, ok)
	assert.Equal(t, block.StoneBlockID, id)
}

func TestModificationStoreLoadInvalidParams(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	defaults := terrain.DefaultParams().WithSeed(3)

	bad := terrain.DefaultParams()
	bad.Terrain.Scale = 0
	data, err := json.Marshal(bad)
	require.NoError(t, err)

	for name, record := range map[string][]byte{
		"invalid values": data,
		"garbage":        []byte("]"),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, ParamsRecordKey, record))
			res := NewModificationStore().Load(ctx, kv, defaults)
			assert.True(t, res.ParamsDefaulted)
			assert.Error(t, res.ParamsErr)
			assert.Equal(t, defaults, res.Params)
		})
	}

	require.NoError(t, kv.Set(ctx, ParamsRecordKey, data))
	res := NewModificationStore().Load(ctx, kv, defaults)
	assert.ErrorIs(t, res.ParamsErr, terrain.ErrInvalidParams)
}
