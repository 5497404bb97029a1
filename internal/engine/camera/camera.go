// Package camera provides the viewing cameras the editor renders and picks with.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/ray"
)

// Camera is the read-only view of a camera consumed by picking and dragging.
type Camera interface {
	Position() mgl32.Vec3
	// Direction is the normalized viewing direction.
	Direction() mgl32.Vec3
	View() mgl32.Mat4
	Projection() mgl32.Mat4
	Orthographic() bool
}

// Perspective is a look-at camera with a perspective projection.
type Perspective struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	FovY   float32 // degrees
	Aspect float32
	Near   float32
	Far    float32
}

// NewPerspective creates a perspective camera at eye looking at target.
func NewPerspective(eye, target mgl32.Vec3, fovY, aspect float32) *Perspective {
	return &Perspective{
		Eye:    eye,
		Target: target,
		Up:     mgl32.Vec3{0, 1, 0},
		FovY:   fovY,
		Aspect: aspect,
		Near:   0.1,
		Far:    1000,
	}
}

func (c *Perspective) Position() mgl32.Vec3 { return c.Eye }

func (c *Perspective) Direction() mgl32.Vec3 { return direction(c.Eye, c.Target) }

func (c *Perspective) View() mgl32.Mat4 { return mgl32.LookAtV(c.Eye, c.Target, c.Up) }

func (c *Perspective) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

func (c *Perspective) Orthographic() bool { return false }

// Ortho is a look-at camera with an orthographic projection, used for the
// top-down icon view.
type Ortho struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// Height is the world-space height of the view volume.
	Height float32
	Aspect float32
	Near   float32
	Far    float32
}

// NewTopDown creates an orthographic camera looking straight down at center
// from the given altitude, with -Z as screen up.
func NewTopDown(center mgl32.Vec3, altitude, height, aspect float32) *Ortho {
	return &Ortho{
		Eye:    center.Add(mgl32.Vec3{0, altitude, 0}),
		Target: center,
		Up:     mgl32.Vec3{0, 0, -1},
		Height: height,
		Aspect: aspect,
		Near:   0.1,
		Far:    altitude * 4,
	}
}

func (c *Ortho) Position() mgl32.Vec3 { return c.Eye }

func (c *Ortho) Direction() mgl32.Vec3 { return direction(c.Eye, c.Target) }

func (c *Ortho) View() mgl32.Mat4 { return mgl32.LookAtV(c.Eye, c.Target, c.Up) }

func (c *Ortho) Projection() mgl32.Mat4 {
	h := c.Height / 2
	w := h * c.Aspect
	return mgl32.Ortho(-w, w, -h, h, c.Near, c.Far)
}

func (c *Ortho) Orthographic() bool { return true }

// HandleZoom scales the view volume based on scroll wheel delta.
func (c *Ortho) HandleZoom(delta float32) {
	c.Height = mgl32.Clamp(c.Height-delta*c.Height*0.1, 1, 500)
}

func direction(eye, target mgl32.Vec3) mgl32.Vec3 {
	d := target.Sub(eye)
	if d.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// ViewProjection returns projection * view.
func ViewProjection(c Camera) mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// ScreenRay returns the world-space ray through pixel (x, y), top-left origin.
func ScreenRay(c Camera, x, y float32, width, height int) ray.Ray {
	return ray.FromScreen(x, y, float32(width), float32(height), ViewProjection(c).Inv())
}

// Project maps a world point to pixel coordinates with a top-left origin.
// ok is false when the point is behind the camera.
func Project(c Camera, p mgl32.Vec3, width, height int) (x, y float32, ok bool) {
	clip := ViewProjection(c).Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	x = (ndc[0] + 1) / 2 * float32(width)
	y = (1 - ndc[1]) / 2 * float32(height)
	return x, y, true
}

// Unproject maps a pixel and a depth-buffer value in [0,1] back to world space.
func Unproject(c Camera, x, y, depth float32, width, height int) mgl32.Vec3 {
	ndc := mgl32.Vec4{
		2*x/float32(width) - 1,
		1 - 2*y/float32(height),
		2*depth - 1,
		1,
	}
	w := ViewProjection(c).Inv().Mul4x1(ndc)
	if w[3] != 0 {
		return w.Vec3().Mul(1 / w[3])
	}
	return w.Vec3()
}
