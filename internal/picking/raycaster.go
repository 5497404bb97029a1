package picking

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/engine/ray"
	"github.com/Faultbox/shotgen/internal/scene"
)

// Raycast intersects r with the given nodes only, without descending into
// their children, and returns the hits nearest first. Sprites are treated as
// billboards facing cam. Hidden nodes are skipped.
func Raycast(g *scene.Graph, r ray.Ray, objects []scene.NodeID, cam camera.Camera) []Hit {
	var hits []Hit
	for _, id := range objects {
		n := g.Node(id)
		if n == nil || n.Mesh == nil || !g.VisibleInWorld(id) {
			continue
		}
		var (
			t  float32
			ok bool
		)
		if n.Form == scene.FormSprite {
			t, ok = intersectBillboard(g, r, id, cam)
		} else {
			t, ok = IntersectMesh(r, n.Mesh.Indices, g.WorldPositions(id))
		}
		if ok {
			hits = append(hits, Hit{Object: id, Point: r.At(t), Distance: t})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// IntersectMesh returns the nearest triangle hit of r against indexed world positions.
func IntersectMesh(r ray.Ray, indices []uint32, positions []mgl32.Vec3) (float32, bool) {
	box, ok := ray.BoundsOf(positions)
	if !ok {
		return 0, false
	}
	if _, hit := r.IntersectAABB(box); !hit {
		return 0, false
	}
	best, found := float32(0), false
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(max(a, b, c)) >= len(positions) {
			continue
		}
		if t, hit := r.IntersectTriangle(positions[a], positions[b], positions[c]); hit && (!found || t < best) {
			best, found = t, true
		}
	}
	return best, found
}

// intersectBillboard tests a unit quad scaled by the sprite's world scale,
// centered on its world position and spanned by the camera's right and up axes.
func intersectBillboard(g *scene.Graph, r ray.Ray, id scene.NodeID, cam camera.Camera) (float32, bool) {
	center, _, scale := g.WorldTransform(id)
	view := cam.View()
	right := mgl32.Vec3{view[0], view[4], view[8]}.Mul(scale.X() / 2)
	up := mgl32.Vec3{view[1], view[5], view[9]}.Mul(scale.Y() / 2)

	bl := center.Sub(right).Sub(up)
	br := center.Add(right).Sub(up)
	tr := center.Add(right).Add(up)
	tl := center.Sub(right).Add(up)
	if t, ok := r.IntersectTriangle(bl, br, tr); ok {
		return t, true
	}
	return r.IntersectTriangle(bl, tr, tl)
}
