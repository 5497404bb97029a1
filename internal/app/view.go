package app

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/scenefile"
)

const (
	topDownAltitude = 50
	topDownHeight   = 20
)

// view owns the two editor cameras: an orbiting perspective view and the
// top-down orthographic view used in icon mode.
type view struct {
	orbit *camera.OrbitCamera
	persp *camera.Perspective
	top   *camera.Ortho
	icons bool
}

func newView(start scenefile.Camera, aspect float32) *view {
	v := &view{
		orbit: camera.NewOrbitCamera(),
		persp: start.Perspective(aspect),
		top:   camera.NewTopDown(mgl32.Vec3{}, topDownAltitude, topDownHeight, aspect),
	}
	v.orbit.LookFrom(v.persp.Eye, v.persp.Target)
	v.orbit.Apply(v.persp)
	return v
}

// Camera returns the camera the viewport currently looks through.
func (v *view) Camera() camera.Camera {
	if v.icons {
		return v.top
	}
	return v.persp
}

func (v *view) SetIcons(icons bool) {
	v.icons = icons
}

func (v *view) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	v.persp.Aspect = aspect
	v.top.Aspect = aspect
}

// LookThrough moves the perspective view onto a scene camera.
func (v *view) LookThrough(c scenefile.Camera) {
	aspect := v.persp.Aspect
	v.persp = c.Perspective(aspect)
	v.orbit.LookFrom(v.persp.Eye, v.persp.Target)
	v.orbit.Apply(v.persp)
}

// Orbit rotates the perspective view. The top-down view pans instead.
func (v *view) Orbit(dx, dy float32) {
	if v.icons {
		scale := v.top.Height / topDownHeight * 0.05
		pan := mgl32.Vec3{-dx * scale, 0, -dy * scale}
		v.top.Eye = v.top.Eye.Add(pan)
		v.top.Target = v.top.Target.Add(pan)
		return
	}
	v.orbit.HandleDrag(dx, dy)
	v.orbit.Apply(v.persp)
}

func (v *view) Zoom(delta float32) {
	if v.icons {
		v.top.HandleZoom(delta)
		return
	}
	v.orbit.HandleZoom(delta)
	v.orbit.Apply(v.persp)
}
