package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits a perspective camera around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit controller with defaults sized for a room scale scene.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        8.0,
		RotationX:       0.4,
		MinDistance:     1.0,
		MaxDistance:     100.0,
		MinPitch:        -1.2,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Eye returns the orbit position in world space.
func (c *OrbitCamera) Eye() mgl32.Vec3 {
	pitch, yaw := float64(c.RotationX), float64(c.RotationY)
	x := c.Distance * float32(math.Cos(pitch)*math.Sin(yaw))
	y := c.Distance * float32(math.Sin(pitch))
	z := c.Distance * float32(math.Cos(pitch)*math.Cos(yaw))
	return c.Center.Add(mgl32.Vec3{x, y, z})
}

// Apply places cam on the orbit.
func (c *OrbitCamera) Apply(cam *Perspective) {
	cam.Eye = c.Eye()
	cam.Target = c.Center
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point on the ground plane relative to the view.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01
	yaw := float64(c.RotationY)
	dirX, dirZ := float32(math.Sin(yaw)), float32(math.Cos(yaw))
	rightX, rightZ := float32(math.Cos(yaw)), float32(-math.Sin(yaw))

	// Negate forward so that positive input moves into the scene.
	c.Center = c.Center.Add(mgl32.Vec3{
		(-dirX*forward + rightX*right) * speed,
		up * speed,
		(-dirZ*forward + rightZ*right) * speed,
	})
}

// LookFrom positions the orbit so that it sees center from eye.
func (c *OrbitCamera) LookFrom(eye, center mgl32.Vec3) {
	off := eye.Sub(center)
	c.Center = center
	c.Distance = mgl32.Clamp(off.Len(), c.MinDistance, c.MaxDistance)
	if off.Len() == 0 {
		return
	}
	c.RotationX = mgl32.Clamp(float32(math.Asin(float64(off.Y()/off.Len()))), c.MinPitch, c.MaxPitch)
	c.RotationY = float32(math.Atan2(float64(off.X()), float64(off.Z())))
}
