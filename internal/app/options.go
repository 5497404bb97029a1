package app

import (
	"github.com/Faultbox/shotgen/internal/config"
	"github.com/Faultbox/shotgen/internal/editor"
	"github.com/Faultbox/shotgen/internal/scenefile"
)

func options(cfg *config.Config) editor.Options {
	return editor.Options{
		SelectOnPointerDown: cfg.Editor.SelectOnPointerDown,
		UseIcons:            cfg.Editor.UseIcons,
	}
}

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// nextCamera returns the camera after current in file order, wrapping
// around. An unknown current yields the first camera.
func nextCamera(f *scenefile.File, current string) string {
	if len(f.Cameras) == 0 {
		return current
	}
	for i, c := range f.Cameras {
		if c.ID == current {
			return f.Cameras[(i+1)%len(f.Cameras)].ID
		}
	}
	return f.Cameras[0].ID
}
