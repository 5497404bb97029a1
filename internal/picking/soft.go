package picking

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/ray"
)

// SoftTarget is a CPU IDTarget. Render only records the pass; ReadPixel ray
// casts the recorded items through the requested pixel. It serves headless
// runs and machines without a usable GL context.
type SoftTarget struct {
	width, height int
	viewProj      mgl32.Mat4
	items         []Item
	rebuilds      int
}

// NewSoftTarget creates an unsized CPU target.
func NewSoftTarget() *SoftTarget {
	return &SoftTarget{}
}

func (s *SoftTarget) Rebuild(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("soft target: invalid size %dx%d", width, height)
	}
	s.width, s.height = width, height
	s.rebuilds++
	return nil
}

// Rebuilds returns how many times the target was rebuilt.
func (s *SoftTarget) Rebuilds() int {
	return s.rebuilds
}

func (s *SoftTarget) Render(viewProj mgl32.Mat4, items []Item) error {
	if s.width == 0 {
		return fmt.Errorf("soft target: render before rebuild")
	}
	s.viewProj = viewProj
	s.items = append(s.items[:0], items...)
	return nil
}

func (s *SoftTarget) ReadPixel(x, y int) (Pixel, error) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return Pixel{}, fmt.Errorf("soft target: pixel (%d,%d) outside %dx%d", x, y, s.width, s.height)
	}
	r := ray.FromScreen(float32(x)+0.5, float32(y)+0.5, float32(s.width), float32(s.height), s.viewProj.Inv())

	var (
		best  float32
		bestI = -1
	)
	for i, it := range s.items {
		if it.Mesh == nil {
			continue
		}
		positions := it.Mesh.Deform(it.Morph, it.Bones, it.Model)
		if t, ok := IntersectMesh(r, it.Mesh.Indices, positions); ok && (bestI < 0 || t < best) {
			best, bestI = t, i
		}
	}
	if bestI < 0 {
		return Pixel{Depth: 1}, nil
	}
	clip := s.viewProj.Mul4x1(r.At(best).Vec4(1))
	depth := (clip.Z()/clip.W() + 1) / 2
	return Pixel{Color: EncodeID(s.items[bestI].ID), Depth: depth}, nil
}

func (s *SoftTarget) Destroy() {
	s.items = nil
	s.width, s.height = 0, 0
}
