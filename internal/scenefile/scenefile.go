// Package scenefile reads shot descriptions from YAML and builds them into a
// scene graph and an editor store.
package scenefile

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Vec3 is a YAML [x, y, z] triple.
type Vec3 [3]float32

// Vec returns v as an mgl32 vector.
func (v Vec3) Vec() mgl32.Vec3 {
	return mgl32.Vec3(v)
}

// Camera describes a perspective camera.
type Camera struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Position Vec3    `yaml:"position"`
	Target   Vec3    `yaml:"target"`
	FOV      float32 `yaml:"fov"`
}

// Object describes a static prop.
type Object struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Shape    string    `yaml:"shape"`
	Position Vec3      `yaml:"position"`
	Size     Vec3      `yaml:"size"`
	Color    []float32 `yaml:"color"`
	Hidden   bool      `yaml:"hidden"`
}

// Character describes a skinned humanoid.
type Character struct {
	ID            string    `yaml:"id"`
	Name          string    `yaml:"name"`
	Position      Vec3      `yaml:"position"`
	Height        float32   `yaml:"height"`
	LOD           bool      `yaml:"lod"`
	Attachments   []string  `yaml:"attachments"`
	ControlPoints bool      `yaml:"control_points"`
	Color         []float32 `yaml:"color"`
}

// Light describes a point light.
type Light struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Position  Vec3    `yaml:"position"`
	Intensity float32 `yaml:"intensity"`
}

// Volume describes a volumetric helper, never pickable in 3D.
type Volume struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Position Vec3   `yaml:"position"`
	Size     Vec3   `yaml:"size"`
}

// File is the root of a scene description.
type File struct {
	ActiveCamera string      `yaml:"active_camera"`
	Cameras      []Camera    `yaml:"cameras"`
	Objects      []Object    `yaml:"objects"`
	Characters   []Character `yaml:"characters"`
	Lights       []Light     `yaml:"lights"`
	Volumes      []Volume    `yaml:"volumes"`
}

// ErrInvalid wraps every validation problem of a scene file.
var ErrInvalid = errors.New("invalid scene")

// Load reads and validates a scene file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a scene description.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every problem of the description at once.
func (f *File) Validate() error {
	var errs error
	seen := make(map[string]string)
	check := func(kind, id string) {
		if id == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s without id", ErrInvalid, kind))
			return
		}
		if prev, ok := seen[id]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: id %q used by %s and %s", ErrInvalid, id, prev, kind))
			return
		}
		seen[id] = kind
	}

	if len(f.Cameras) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: no cameras", ErrInvalid))
	}
	for _, c := range f.Cameras {
		check("camera", c.ID)
		if c.FOV < 0 || c.FOV >= 180 {
			errs = multierr.Append(errs, fmt.Errorf("%w: camera %q fov %v out of range", ErrInvalid, c.ID, c.FOV))
		}
	}
	for _, o := range f.Objects {
		check("object", o.ID)
		switch o.Shape {
		case "", "box", "sphere":
		default:
			errs = multierr.Append(errs, fmt.Errorf("%w: object %q has unknown shape %q", ErrInvalid, o.ID, o.Shape))
		}
		errs = multierr.Append(errs, checkSize("object", o.ID, o.Size))
		errs = multierr.Append(errs, checkColor("object", o.ID, o.Color))
	}
	for _, c := range f.Characters {
		check("character", c.ID)
		if c.Height < 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: character %q has negative height", ErrInvalid, c.ID))
		}
		errs = multierr.Append(errs, checkColor("character", c.ID, c.Color))
	}
	for _, l := range f.Lights {
		check("light", l.ID)
	}
	for _, v := range f.Volumes {
		check("volume", v.ID)
		errs = multierr.Append(errs, checkSize("volume", v.ID, v.Size))
	}

	if f.ActiveCamera != "" && seen[f.ActiveCamera] != "camera" {
		errs = multierr.Append(errs, fmt.Errorf("%w: active camera %q is not a camera", ErrInvalid, f.ActiveCamera))
	}
	return errs
}

func checkSize(kind, id string, size Vec3) error {
	if size == (Vec3{}) {
		return nil
	}
	if size[0] <= 0 || size[1] <= 0 || size[2] <= 0 {
		return fmt.Errorf("%w: %s %q size %v must be positive", ErrInvalid, kind, id, size)
	}
	return nil
}

func checkColor(kind, id string, color []float32) error {
	if len(color) != 0 && len(color) != 3 && len(color) != 4 {
		return fmt.Errorf("%w: %s %q color needs 3 or 4 components", ErrInvalid, kind, id)
	}
	return nil
}

func color(c []float32, fallback mgl32.Vec4) mgl32.Vec4 {
	switch len(c) {
	case 3:
		return mgl32.Vec4{c[0], c[1], c[2], 1}
	case 4:
		return mgl32.Vec4{c[0], c[1], c[2], c[3]}
	}
	return fallback
}
