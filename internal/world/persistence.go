package world

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxel-sim/internal/storage"
	"github.com/annel0/voxel-sim/internal/world/terrain"
)

// Ключи двух записей сохранения
const (
	ParamsRecordKey = "world_params"
	DataRecordKey   = "world_data"
)

// Магическое число кадра zstd. Без него запись считается несжатым JSON.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func overlayCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return encoder, decoder, codecErr
}

// LoadResult описывает, что удалось восстановить при загрузке.
// Ошибки записей не возвращаются вызывающему: вместо них подставляются значения по умолчанию.
type LoadResult struct {
	Params           terrain.Params
	ParamsDefaulted  bool
	OverlayDefaulted bool
	Overrides        int
	ParamsErr        error
	OverlayErr       error
}

// Save записывает параметры (JSON) и правки (JSON, сжатый zstd) в kv
func (m *ModificationStore) Save(ctx context.Context, kv storage.KV, params terrain.Params) error {
	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("сериализация параметров: %w", err)
	}

	overlayData, err := encodeOverlay(m.Snapshot())
	if err != nil {
		return err
	}

	if err := kv.Set(ctx, ParamsRecordKey, paramsData); err != nil {
		return fmt.Errorf("запись %s: %w", ParamsRecordKey, err)
	}
	if err := kv.Set(ctx, DataRecordKey, overlayData); err != nil {
		return fmt.Errorf("запись %s: %w", DataRecordKey, err)
	}
	return nil
}

// Load читает обе записи. Отсутствующая, повреждённая или некорректная запись
// заменяется значением по умолчанию: defaults для параметров и пустыми правками.
func (m *ModificationStore) Load(ctx context.Context, kv storage.KV, defaults terrain.Params) LoadResult {
	res := LoadResult{Params: defaults}

	if params, err := loadParams(ctx, kv); err != nil {
		res.ParamsDefaulted = true
		res.ParamsErr = err
	} else {
		res.Params = params
	}

	snap, err := loadOverlay(ctx, kv)
	if err == nil {
		err = m.Restore(snap)
	}
	if err != nil {
		res.OverlayDefaulted = true
		res.OverlayErr = err
		m.Clear()
	}
	res.Overrides = m.Len()
	return res
}

func loadParams(ctx context.Context, kv storage.KV) (terrain.Params, error) {
	data, err := kv.Get(ctx, ParamsRecordKey)
	if err != nil {
		return terrain.Params{}, fmt.Errorf("чтение %s: %w", ParamsRecordKey, err)
	}
	var params terrain.Params
	if err := json.Unmarshal(data, &params); err != nil {
		return terrain.Params{}, fmt.Errorf("разбор %s: %w", ParamsRecordKey, err)
	}
	if err := params.Validate(); err != nil {
		return terrain.Params{}, fmt.Errorf("проверка %s: %w", ParamsRecordKey, err)
	}
	return params, nil
}

func loadOverlay(ctx context.Context, kv storage.KV) (OverlaySnapshot, error) {
	data, err := kv.Get(ctx, DataRecordKey)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", DataRecordKey, err)
	}
	return decodeOverlay(data)
}

func encodeOverlay(snap OverlaySnapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("сериализация правок: %w", err)
	}
	enc, _, err := overlayCodec()
	if err != nil {
		return nil, fmt.Errorf("инициализация zstd: %w", err)
	}
	return enc.EncodeAll(raw, nil), nil
}

func decodeOverlay(data []byte) (OverlaySnapshot, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		_, dec, err := overlayCodec()
		if err != nil {
			return nil, fmt.Errorf("инициализация zstd: %w", err)
		}
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("распаковка %s: %w", DataRecordKey, err)
		}
	}
	var snap OverlaySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", DataRecordKey, err)
	}
	if snap == nil {
		return nil, errors.New("пустая запись " + DataRecordKey)
	}
	return snap, nil
}
