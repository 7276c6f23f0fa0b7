package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")

	log, err := New("debug", path)
	require.NoError(t, err)
	log.Debug("planned")
	log.Info("submitted")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "submitted", entry["msg"])
	assert.Contains(t, entry, "ts")
}

func TestNewLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	log, err := New("warn", path)
	require.NoError(t, err)
	log.Info("dropped")
	log.Warn("kept")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNewBadLevel(t *testing.T) {
	_, err := New("loud", "")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l, err := New("info", "")
	require.NoError(t, err)
	assert.Same(t, l, OrNop(l))
}
