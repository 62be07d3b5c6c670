package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 0.004, cfg.Physics.StepSize(), 1e-12)
	assert.Equal(t, 1000, cfg.Islands.Count)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	content := `
world:
  seed: 12345
  draw_distance: 1
  evict_distance: 0
  async_loading: false
  autosave_interval: 30s
storage:
  backend: sqlite
  path: /tmp/world.db
scheduler:
  idle_budget: 8ms
events:
  backend: jetstream
  retention: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), cfg.World.Seed)
	assert.Equal(t, 1, cfg.World.DrawDistance)
	assert.False(t, cfg.World.AsyncLoading)
	assert.Equal(t, 30*time.Second, cfg.World.AutoSave)
	assert.Equal(t, 32, cfg.World.ChunkWidth, "незаданные поля берутся из Default()")
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 8*time.Millisecond, cfg.Scheduler.IdleBudget)
	assert.Equal(t, "jetstream", cfg.Events.Backend)
	assert.Equal(t, time.Hour, cfg.Events.Retention)
	assert.Equal(t, 1024, cfg.Events.Buffer)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("physics:\n  simulation_rate: 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestPortFallback(t *testing.T) {
	t.Setenv("VOXEL_REST_PORT", "9191")
	s := ServerConfig{}
	assert.Equal(t, 9191, s.GetRESTPort())
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
}
