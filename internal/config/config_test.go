package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.False(t, cfg.Window.Fullscreen)
	assert.True(t, cfg.Window.VSync)

	assert.True(t, cfg.Editor.SelectOnPointerDown)
	assert.False(t, cfg.Editor.UseIcons)
	assert.Empty(t, cfg.Editor.ExcludedFromPicking)

	assert.Equal(t, 4096, cfg.Picking.MaxPickables)
	assert.Equal(t, "scene.yaml", cfg.Scene.Path)
	assert.Equal(t, "shots", cfg.Shots.Dir)
	assert.Equal(t, 320, cfg.Shots.ThumbWidth)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.LogFile)
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "shotgen.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

editor:
  select_on_pointer_down: false
  use_icons: true
  excluded_from_picking: ["hat", "sword"]

picking:
  max_pickables: 512

scene:
  path: "shots/intro.yaml"

logging:
  level: "debug"
  log_file: "shotgen.log"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, configPath))

	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 1080, cfg.Window.Height)
	assert.True(t, cfg.Window.Fullscreen)
	assert.False(t, cfg.Window.VSync)
	assert.False(t, cfg.Editor.SelectOnPointerDown)
	assert.True(t, cfg.Editor.UseIcons)
	assert.Equal(t, []string{"hat", "sword"}, cfg.Editor.ExcludedFromPicking)
	assert.Equal(t, 512, cfg.Picking.MaxPickables)
	assert.Equal(t, "shots/intro.yaml", cfg.Scene.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "shotgen.log", cfg.Logging.LogFile)
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	assert.Error(t, loadFromFile(Default(), configPath))
}

func TestLoadFromFileMissing(t *testing.T) {
	assert.Error(t, loadFromFile(Default(), filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("editor:\n  use_icons: true\n"), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, configPath))

	assert.True(t, cfg.Editor.UseIcons)
	assert.True(t, cfg.Editor.SelectOnPointerDown, "unset keys keep their defaults")
	assert.Equal(t, 1280, cfg.Window.Width)
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "shotgen.yaml")

	cfg := Default()
	cfg.Window.Width = 1600
	cfg.Editor.UseIcons = true
	cfg.Logging.Level = "warn"
	require.NoError(t, cfg.SaveTo(configPath))

	loaded := Default()
	require.NoError(t, loadFromFile(loaded, configPath))
	assert.Equal(t, cfg, loaded)
}

func TestSaveToReplacesFileWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "shotgen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("old: true\n"), 0600))

	require.NoError(t, Default().SaveTo(configPath))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	loaded := Default()
	require.NoError(t, loadFromFile(loaded, configPath))
	assert.Equal(t, Default(), loaded)
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	assert.NotEmpty(t, dir)
	assert.True(t, filepath.IsAbs(dir), "ConfigDir should return absolute path, got %s", dir)
}

func TestFindConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	assert.Empty(t, findConfigFile())

	require.NoError(t, os.WriteFile("shotgen.yaml", []byte("window:\n  width: 800\n"), 0644))
	assert.Equal(t, "./shotgen.yaml", findConfigFile())
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "scene flag",
			setup: func() { *flagScene = "other.yaml" },
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "other.yaml", cfg.Scene.Path)
			},
			teardown: func() { *flagScene = "" },
		},
		{
			name:  "icons flag",
			setup: func() { *flagIcons = true },
			verify: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Editor.UseIcons)
			},
			teardown: func() { *flagIcons = false },
		},
		{
			name:  "select on release flag",
			setup: func() { *flagSelectOnRelease = true },
			verify: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Editor.SelectOnPointerDown)
			},
			teardown: func() { *flagSelectOnRelease = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Window.Fullscreen)
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2560, cfg.Window.Width)
				assert.Equal(t, 1440, cfg.Window.Height)
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "shotgen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("window:\n  width: 1600\n  height: 900\n"), 0644))

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, path, err := Load()
	require.NoError(t, err)
	assert.Equal(t, configPath, path)
	assert.Equal(t, 1920, cfg.Window.Width, "flag beats file")
	assert.Equal(t, 900, cfg.Window.Height, "file beats default")
}

func TestWatcherPublishesReloadedConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "shotgen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("editor:\n  use_icons: false\n"), 0644))

	w, err := Watch(configPath, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(configPath, []byte("editor:\n  use_icons: true\n"), 0644))

	// A truncate and a write may arrive as separate events; wait for the final content.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-w.Updates():
			if cfg.Editor.UseIcons {
				return
			}
		case <-deadline:
			t.Fatal("no config update with use_icons received")
		}
	}
}
