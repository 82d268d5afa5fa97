package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/scene"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, "art/registry.json", cfg.SavePath)
	assert.Equal(t, []string{"Components_meta"}, cfg.Ignore)
	assert.Equal(t, "deny", cfg.Filter.Mode)
	assert.Empty(t, cfg.Filter.Types)
	assert.False(t, cfg.StrictExtended)
	assert.False(t, cfg.FlattenScenes)
	assert.Equal(t, log.LevelInfo, cfg.Level())
	assert.Equal(t, "127.0.0.1:15702", cfg.Server.Addr)
	assert.Nil(t, cfg.TypeFilter())
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparrow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
save_path: out/schema.json
filter:
  mode: allow
  types: [game::Speed]
strict_extended: true
flatten_scenes: true
log_level: debug
server:
  addr: 0.0.0.0:9000
`), 0o644))

	cfg, err := Load(New(path))
	require.NoError(t, err)
	assert.Equal(t, "out/schema.json", cfg.SavePath)
	assert.Equal(t, FilterConfig{Mode: "allow", Types: []string{"game::Speed"}}, cfg.Filter)
	assert.True(t, cfg.StrictExtended)
	assert.Equal(t, log.LevelDebug, cfg.Level())
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)

	f := cfg.TypeFilter()
	assert.True(t, f.Allows("game::Speed"))
	assert.False(t, f.Allows("game::Health"))
	assert.Contains(t, cfg.InjectOptions().Policies, scene.LevelScene)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPARROW_SAVE_PATH", "env/registry.json")
	t.Setenv("SPARROW_SERVER_ADDR", "127.0.0.1:1")
	t.Setenv("SPARROW_STRICT_EXTENDED", "true")

	cfg, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, "env/registry.json", cfg.SavePath)
	assert.Equal(t, "127.0.0.1:1", cfg.Server.Addr)
	assert.True(t, cfg.StrictExtended)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Filter.Mode = "maybe"
	assert.ErrorIs(t, bad.Validate(), ErrFilterMode)

	bad = cfg
	bad.SavePath = "  "
	assert.ErrorIs(t, bad.Validate(), ErrSavePath)

	bad = cfg
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())
}

func TestDenyFilter(t *testing.T) {
	cfg := Default()
	cfg.Filter.Types = []string{"game::Health"}
	f := cfg.TypeFilter()
	assert.False(t, f.Allows("game::Health"))
	assert.True(t, f.Allows("game::Speed"))
}
