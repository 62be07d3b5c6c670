package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, INFO, ParseLevel("???"))
}

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	Configure(dir, ERROR)
	defer Configure("", INFO)

	l, err := NewLogger("world")
	require.NoError(t, err)

	l.Debug("chunk %d", 7)
	require.NoError(t, l.Close())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Name(), "world_"))

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] chunk 7")
}

func TestManagerReusesLoggers(t *testing.T) {
	lm := &LoggerManager{loggers: make(map[string]*Logger)}
	a, err := lm.GetLogger("physics")
	require.NoError(t, err)
	b, err := lm.GetLogger("physics")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, []string{"physics"}, lm.ListComponents())

	assert.NoError(t, lm.SetLogLevel("physics", ERROR, ERROR))
	assert.Error(t, lm.SetLogLevel("missing", ERROR, ERROR))
	assert.NoError(t, lm.CloseAll())
}
