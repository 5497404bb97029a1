package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box returns an axis-aligned box mesh centered on the origin.
func Box(width, height, depth float32) *Mesh {
	m := &Mesh{}
	m.AppendBox(mgl32.Vec3{}, mgl32.Vec3{width, height, depth})
	return m
}

var boxCorners = [8]mgl32.Vec3{
	{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
	{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
}

var boxFaces = [12][3]uint32{
	{0, 2, 1}, {0, 3, 2}, // back
	{4, 5, 6}, {4, 6, 7}, // front
	{0, 1, 5}, {0, 5, 4}, // bottom
	{3, 7, 6}, {3, 6, 2}, // top
	{0, 4, 7}, {0, 7, 3}, // left
	{1, 2, 6}, {1, 6, 5}, // right
}

// AppendBox adds a box and returns the index of its first vertex.
func (m *Mesh) AppendBox(center, size mgl32.Vec3) int {
	base := len(m.Positions)
	for _, c := range boxCorners {
		m.Positions = append(m.Positions, center.Add(mgl32.Vec3{c[0] * size[0], c[1] * size[1], c[2] * size[2]}))
	}
	for _, f := range boxFaces {
		m.Indices = append(m.Indices, uint32(base)+f[0], uint32(base)+f[1], uint32(base)+f[2])
	}
	return base
}

// AppendSkinnedBox adds a box fully weighted to one joint.
func (m *Mesh) AppendSkinnedBox(center, size mgl32.Vec3, joint uint16) {
	base := m.AppendBox(center, size)
	for i := base; i < len(m.Positions); i++ {
		m.Joints = append(m.Joints, [4]uint16{joint})
		m.Weights = append(m.Weights, mgl32.Vec4{1})
	}
}

// Sphere returns a UV sphere.
func Sphere(radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}
	m := &Mesh{}
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			m.Positions = append(m.Positions, mgl32.Vec3{
				radius * float32(math.Sin(phi)*math.Cos(theta)),
				radius * float32(math.Cos(phi)),
				radius * float32(math.Sin(phi)*math.Sin(theta)),
			})
		}
	}
	stride := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}

// Ring returns a torus lying in the XY plane, its axis along +Z.
func Ring(radius, tube float32, radial, tubular int) *Mesh {
	m := &Mesh{}
	for j := 0; j <= radial; j++ {
		v := 2 * math.Pi * float64(j) / float64(radial)
		for i := 0; i <= tubular; i++ {
			u := 2 * math.Pi * float64(i) / float64(tubular)
			m.Positions = append(m.Positions, mgl32.Vec3{
				(radius + tube*float32(math.Cos(v))) * float32(math.Cos(u)),
				(radius + tube*float32(math.Cos(v))) * float32(math.Sin(u)),
				tube * float32(math.Sin(v)),
			})
		}
	}
	stride := uint32(tubular + 1)
	for j := uint32(0); j < uint32(radial); j++ {
		for i := uint32(0); i < uint32(tubular); i++ {
			a := j*stride + i
			b := a + stride
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}

// Quad returns a unit-centered rectangle in the XY plane facing +Z.
func Quad(width, height float32) *Mesh {
	w, h := width/2, height/2
	return &Mesh{
		Positions: []mgl32.Vec3{{-w, -h, 0}, {w, -h, 0}, {w, h, 0}, {-w, h, 0}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}
