// Package ray provides ray casting primitives shared by the cameras, the
// CPU picking path and the transform gizmo.
package ray

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Plane is the set of points p with Normal·p + Constant = 0.
type Plane struct {
	Normal   mgl32.Vec3
	Constant float32
}

// FromScreen converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates with a top-left origin, viewportW/H
// are viewport dimensions and invViewProj is the inverse view-projection matrix.
func FromScreen(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	return FromNDC(ndcX, ndcY, invViewProj)
}

// FromNDC unprojects normalized device coordinates onto the near and far
// planes and returns the ray through them.
func FromNDC(ndcX, ndcY float32, invViewProj mgl32.Mat4) Ray {
	nearWorld := unproject(mgl32.Vec4{ndcX, ndcY, -1, 1}, invViewProj)
	farWorld := unproject(mgl32.Vec4{ndcX, ndcY, 1, 1}, invViewProj)

	dir := farWorld.Sub(nearWorld)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: nearWorld, Direction: dir}
}

func unproject(ndc mgl32.Vec4, invViewProj mgl32.Mat4) mgl32.Vec3 {
	w := invViewProj.Mul4x1(ndc)
	// Perspective divide
	if w[3] != 0 {
		return w.Vec3().Mul(1 / w[3])
	}
	return w.Vec3()
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
// Returns the intersection point (X, Z) and whether the intersection is valid.
func (r Ray) IntersectPlaneY(planeY float32) (x, z float32, ok bool) {
	if math.Abs(float64(r.Direction[1])) < 0.001 {
		return 0, 0, false // Ray parallel to plane
	}

	t := (planeY - r.Origin[1]) / r.Direction[1]
	if t < 0 {
		return 0, 0, false // Intersection behind ray origin
	}

	p := r.At(t)
	return p[0], p[2], true
}

// PlaneFromNormalAndPoint builds the plane through point with the given normal.
func PlaneFromNormalAndPoint(normal, point mgl32.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Constant: -n.Dot(point)}
}

// DistanceToPoint returns the signed distance of p from the plane.
func (p Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Constant
}

// IntersectPlane returns where the ray crosses the plane. A ray lying in the
// plane hits at its origin; a parallel or receding ray misses.
func (r Ray) IntersectPlane(p Plane) (mgl32.Vec3, bool) {
	denom := p.Normal.Dot(r.Direction)
	if denom == 0 {
		if p.DistanceToPoint(r.Origin) == 0 {
			return r.Origin, true
		}
		return mgl32.Vec3{}, false
	}
	t := -(r.Origin.Dot(p.Normal) + p.Constant) / denom
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return r.At(t), true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] != 0 {
			t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
			t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			tmin = max(tmin, t1)
			tmax = min(tmax, t2)
		} else if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	// Return entry point, or exit point if starting inside
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle is a two-sided Möller–Trumbore test returning the hit distance.
func (r Ray) IntersectTriangle(a, b, c mgl32.Vec3) (float32, bool) {
	const eps = 1e-7
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -eps && det < eps {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectCapsule tests the ray against a capsule around segment a-b.
// It returns the distance along the ray of the point closest to the segment.
func (r Ray) IntersectCapsule(a, b mgl32.Vec3, radius float32) (float32, bool) {
	distSq, t := r.DistanceSqToSegment(a, b)
	if distSq > radius*radius || t < 0 {
		return 0, false
	}
	return t, true
}

// DistanceSqToSegment returns the squared distance between the ray and the
// segment a-b, and the ray parameter of the closest point.
func (r Ray) DistanceSqToSegment(a, b mgl32.Vec3) (float32, float32) {
	d1 := r.Direction
	d2 := b.Sub(a)
	w := r.Origin.Sub(a)

	aa := d1.Dot(d1)
	bb := d1.Dot(d2)
	cc := d2.Dot(d2)
	dd := d1.Dot(w)
	ee := d2.Dot(w)
	denom := aa*cc - bb*bb

	var s, t float32 // s on ray, t on segment
	if cc == 0 {
		// Degenerate segment.
		s = max(0, -dd/aa)
		return r.At(s).Sub(a).LenSqr(), s
	}
	if denom > 1e-9 {
		s = (bb*ee - cc*dd) / denom
	}
	s = max(s, 0)
	t = (bb*s + ee) / cc
	switch {
	case t < 0:
		t = 0
		s = max(0, -dd/aa)
	case t > 1:
		t = 1
		s = max(0, (bb-dd)/aa)
	}
	closestRay := r.At(s)
	closestSeg := a.Add(d2.Mul(t))
	return closestRay.Sub(closestSeg).LenSqr(), s
}

// NewAABB creates an AABB from two corners, ordering each axis.
func NewAABB(a, b mgl32.Vec3) AABB {
	box := AABB{Min: a, Max: b}
	for i := 0; i < 3; i++ {
		if box.Min[i] > box.Max[i] {
			box.Min[i], box.Max[i] = box.Max[i], box.Min[i]
		}
	}
	return box
}

// BoundsOf returns the smallest box holding all points. ok is false for no points.
func BoundsOf(points []mgl32.Vec3) (box AABB, ok bool) {
	if len(points) == 0 {
		return AABB{}, false
	}
	box = AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			box.Min[i] = min(box.Min[i], p[i])
			box.Max[i] = max(box.Max[i], p[i])
		}
	}
	return box, true
}
