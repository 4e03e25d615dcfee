package renderer

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
lod_enabled = false
shadow_map_size = 1024
log_level = "debug"
`))
	require.NoError(t, err)

	want := DefaultConfig()
	want.LODEnabled = false
	want.ShadowMapSize = 1024
	want.LogLevel = "debug"
	assert.Equal(t, want, cfg)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseConfigRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":  `frames_in_flight = 3`,
		"sample count": `sample_count = 2`,
		"in flight":    `max_buffers_in_flight = 0`,
		"workers":      `workers = 0`,
		"log level":    `log_level = "loud"`,
		"syntax":       `lod_enabled = `,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "renderer.toml")

	cfg := DefaultConfig()
	cfg.ShowTrackingPoints = true
	cfg.Workers = 2
	data, err := cfg.Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
