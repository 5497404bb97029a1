// Package config handles editor configuration loading and management.
package config

// Config holds all editor settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Editor  EditorConfig  `yaml:"editor"`
	Picking PickingConfig `yaml:"picking"`
	Scene   SceneConfig   `yaml:"scene"`
	Shots   ShotsConfig   `yaml:"shots"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// EditorConfig holds pointer interaction settings.
type EditorConfig struct {
	// SelectOnPointerDown commits selection on press; otherwise on release.
	SelectOnPointerDown bool `yaml:"select_on_pointer_down"`
	// UseIcons switches picking to the orthographic icon view.
	UseIcons bool `yaml:"use_icons"`
	// ExcludedFromPicking lists node names skipped when searching a character for its skinned mesh.
	ExcludedFromPicking []string `yaml:"excluded_from_picking,omitempty"`
}

// PickingConfig holds GPU picker settings.
type PickingConfig struct {
	MaxPickables int `yaml:"max_pickables"`
}

// SceneConfig holds the scene description to open at startup.
type SceneConfig struct {
	Path string `yaml:"path"`
}

// ShotsConfig holds where captured shots are written.
type ShotsConfig struct {
	Dir        string `yaml:"dir"`
	ThumbWidth int    `yaml:"thumb_width"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Editor: EditorConfig{
			SelectOnPointerDown: true,
			UseIcons:            false,
		},
		Picking: PickingConfig{
			MaxPickables: 4096,
		},
		Scene: SceneConfig{
			Path: "scene.yaml",
		},
		Shots: ShotsConfig{
			Dir:        "shots",
			ThumbWidth: 320,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
