package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/shotgen/internal/scenefile"
)

func startCamera() scenefile.Camera {
	return scenefile.Camera{ID: "cam", Position: scenefile.Vec3{0, 2, 6}, Target: scenefile.Vec3{0, 1, 0}, FOV: 40}
}

func TestViewStartsOnSceneCamera(t *testing.T) {
	v := newView(startCamera(), 1.5)

	cam := v.Camera()
	assert.False(t, cam.Orthographic())
	assert.InDelta(t, 0, cam.Position().X(), 1e-4)
	assert.InDelta(t, 2, cam.Position().Y(), 1e-4)
	assert.InDelta(t, 6, cam.Position().Z(), 1e-4)
	assert.Equal(t, float32(40), v.persp.FovY)
}

func TestViewIconsSwitchesToTopDown(t *testing.T) {
	v := newView(startCamera(), 1)
	v.SetIcons(true)
	assert.True(t, v.Camera().Orthographic())
	assert.InDelta(t, -1, v.Camera().Direction().Y(), 1e-5)

	v.SetAspect(2)
	assert.Equal(t, float32(2), v.top.Aspect)
	assert.Equal(t, float32(2), v.persp.Aspect)
	v.SetAspect(0)
	assert.Equal(t, float32(2), v.top.Aspect, "degenerate aspect is ignored")
}

func TestViewOrbitKeepsDistance(t *testing.T) {
	v := newView(startCamera(), 1)
	before := v.persp.Eye.Sub(v.persp.Target).Len()

	v.Orbit(100, 0)
	after := v.persp.Eye.Sub(v.persp.Target).Len()
	assert.InDelta(t, before, after, 1e-4)
	assert.NotEqual(t, float32(0), v.persp.Eye.X(), "yaw moved the eye sideways")
}

func TestViewZoomAndPanInIconMode(t *testing.T) {
	v := newView(startCamera(), 1)
	v.SetIcons(true)

	v.Zoom(1)
	assert.InDelta(t, 18, v.top.Height, 1e-4)

	v.Orbit(10, 0)
	assert.Less(t, v.top.Eye.X(), float32(0))
	assert.Equal(t, v.top.Eye.X(), v.top.Target.X())
}

func TestViewLookThroughKeepsAspect(t *testing.T) {
	v := newView(startCamera(), 1.25)
	v.LookThrough(scenefile.Camera{ID: "side", Position: scenefile.Vec3{5, 1, 0}, Target: scenefile.Vec3{0, 1, 0}})

	assert.Equal(t, float32(1.25), v.persp.Aspect)
	assert.Equal(t, float32(scenefile.DefaultFOV), v.persp.FovY)
	assert.InDelta(t, 5, v.persp.Eye.X(), 1e-4)
}
