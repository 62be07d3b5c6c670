package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-sim/internal/storage"
	"github.com/annel0/voxel-sim/internal/world"
	"github.com/annel0/voxel-sim/internal/world/block"
	"github.com/annel0/voxel-sim/internal/world/terrain"
)

func newTestServer(t *testing.T, store storage.KV) (*RestServer, *world.WorldManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	params := terrain.DefaultParams().WithSeed(12345)
	params.Trees.Frequency = 0
	wm, err := world.NewWorldManager(world.Options{
		Params:       params,
		ChunkWidth:   8,
		ChunkHeight:  32,
		DrawDistance: 1,
		Sources: &terrain.Sources{
			Height:    terrain.ConstantNoise(0),
			Biome:     terrain.ConstantNoise(0),
			Variation: terrain.ConstantNoise(0),
			Cloud:     terrain.ConstantNoise(-1),
			Random:    terrain.NewHashRandom(1),
		},
		Store: store,
	})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	rs := NewRestServer(Config{World: wm, Registry: registry, Gatherer: registry})
	return rs, wm
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp GenericResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// decodeData перекладывает поле data ответа в out
func decodeData(t *testing.T, resp GenericResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestHealth(t *testing.T) {
	rs, _ := newTestServer(t, nil)

	w, _ := doJSON(t, rs.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestGetBlock(t *testing.T) {
	rs, _ := newTestServer(t, nil)

	w, resp := doJSON(t, rs.Handler(), http.MethodGet, "/api/world/block?x=3&y=6&z=-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	var b BlockResponse
	decodeData(t, resp, &b)
	assert.Equal(t, BlockResponse{X: 3, Y: 6, Z: -2, ID: uint16(block.JungleGrassBlockID), Name: "JungleGrass"}, b)

	w, resp = doJSON(t, rs.Handler(), http.MethodGet, "/api/world/block?x=3&y=abc&z=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)

	w, _ = doJSON(t, rs.Handler(), http.MethodGet, "/api/world/block?x=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetBlock(t *testing.T) {
	rs, wm := newTestServer(t, nil)
	x, y, z := 2, 7, 2

	w, resp := doJSON(t, rs.Handler(), http.MethodPut, "/api/world/block",
		BlockRequest{X: &x, Y: &y, Z: &z, ID: uint16(block.StoneBlockID)})
	require.Equal(t, http.StatusOK, w.Code)
	var b BlockResponse
	decodeData(t, resp, &b)
	assert.True(t, b.Changed)
	assert.Equal(t, "Stone", b.Name)
	assert.Equal(t, block.StoneBlockID, wm.GetBlock(2, 7, 2))

	// Повтор ничего не меняет
	_, resp = doJSON(t, rs.Handler(), http.MethodPut, "/api/world/block",
		BlockRequest{X: &x, Y: &y, Z: &z, ID: uint16(block.StoneBlockID)})
	decodeData(t, resp, &b)
	assert.False(t, b.Changed)
}

func TestSetBlockErrors(t *testing.T) {
	rs, _ := newTestServer(t, nil)
	far, y := 1000, 6
	zero := 0

	w, _ := doJSON(t, rs.Handler(), http.MethodPut, "/api/world/block",
		BlockRequest{X: &far, Y: &y, Z: &far, ID: uint16(block.StoneBlockID)})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = doJSON(t, rs.Handler(), http.MethodPut, "/api/world/block",
		BlockRequest{X: &zero, Y: &y, Z: &zero, ID: 999})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, rs.Handler(), http.MethodPut, "/api/world/block", map[string]int{"x": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestColumn(t *testing.T) {
	rs, _ := newTestServer(t, nil)

	w, resp := doJSON(t, rs.Handler(), http.MethodGet, "/api/world/column?x=100&z=-40", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var col ColumnResponse
	decodeData(t, resp, &col)
	assert.Equal(t, ColumnResponse{X: 100, Z: -40, Surface: 6, Biome: "jungle"}, col)
}

func TestStats(t *testing.T) {
	rs, _ := newTestServer(t, nil)

	w, resp := doJSON(t, rs.Handler(), http.MethodGet, "/api/world/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		World  world.Stats            `json:"world"`
		Server map[string]interface{} `json:"server"`
	}
	decodeData(t, resp, &stats)
	assert.Equal(t, 9, stats.World.Plots)
	assert.Equal(t, 9, stats.World.GeneratedPlots)
	assert.Equal(t, int64(12345), stats.World.Seed)
	assert.Contains(t, stats.Server, "uptime")
}

func TestSaveLoadRegenerate(t *testing.T) {
	rs, wm := newTestServer(t, storage.NewMemoryKV())
	h := rs.Handler()

	_, err := wm.SetBlock(1, 7, 1, block.SandBlockID)
	require.NoError(t, err)

	w, _ := doJSON(t, h, http.MethodPost, "/api/world/save", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, h, http.MethodPost, "/api/world/regenerate?clear=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, block.EmptyBlockID, wm.GetBlock(1, 7, 1))

	w, resp := doJSON(t, h, http.MethodPost, "/api/world/load", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var load LoadResponse
	decodeData(t, resp, &load)
	assert.Equal(t, LoadResponse{Seed: 12345, Overrides: 1}, load)
	assert.Equal(t, block.SandBlockID, wm.GetBlock(1, 7, 1))

	w, _ = doJSON(t, h, http.MethodPost, "/api/world/regenerate?clear=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveWithoutStorage(t *testing.T) {
	rs, _ := newTestServer(t, nil)

	w, _ := doJSON(t, rs.Handler(), http.MethodPost, "/api/world/save", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w, _ = doJSON(t, rs.Handler(), http.MethodPost, "/api/world/load", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rs, _ := newTestServer(t, nil)
	h := rs.Handler()

	doJSON(t, h, http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `voxel_api_http_request_duration_seconds_count{method="GET",path="/health",status="200"} 1`)
}
