package editor

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/engine/ray"
	"github.com/Faultbox/shotgen/internal/logger"
	"github.com/Faultbox/shotgen/internal/picking"
	"github.com/Faultbox/shotgen/internal/scene"
)

// Mode selects how intersections are computed.
type Mode int

const (
	// Mode3D picks through the ID pass of the GPU picker.
	Mode3D Mode = iota
	// ModeIcons ray casts against orthographic icons.
	ModeIcons
)

// Intersection is one raw hit candidate.
type Intersection = picking.Hit

// Pointer is a position on a viewport, in pixels from the top-left corner.
type Pointer struct {
	X, Y          float32
	Width, Height int
}

// Picker is the color-ID picking pass used in Mode3D.
type Picker interface {
	SetupScene(candidates []scene.NodeID)
	SetPickingPosition(x, y int)
	PickWithCamera(cam camera.Camera, width, height int) ([]picking.Hit, error)
}

// Resolver finds what lies under the pointer and maps raw hits to the
// entities they stand for.
type Resolver struct {
	g      *scene.Graph
	picker Picker
	log    *zap.Logger
}

// NewResolver creates a Resolver over g. picker may be nil when only
// ModeIcons is used.
func NewResolver(g *scene.Graph, picker Picker, log *zap.Logger) *Resolver {
	if log == nil {
		log = logger.Named("editor")
	}
	return &Resolver{g: g, picker: picker, log: log}
}

// Graph returns the scene the resolver works on.
func (r *Resolver) Graph() *scene.Graph {
	return r.g
}

// Intersectables returns the root children that take part in picking.
// Perspective cameras are included in icon mode only.
func (r *Resolver) Intersectables(useIcons bool) []scene.NodeID {
	var out []scene.NodeID
	for _, id := range r.g.Children(r.g.Root()) {
		n := r.g.Node(id)
		switch n.Tag {
		case scene.TagObject, scene.TagCharacter, scene.TagLight, scene.TagVolume,
			scene.TagControlTarget, scene.TagControlPoint, scene.TagBoneControl:
			out = append(out, id)
		default:
			if useIcons && n.Form == scene.FormCamera {
				out = append(out, id)
			}
		}
	}
	return out
}

// IconObjects derives the icon mode ray cast set: the icons of visible
// entities, then the first mesh child of every visible group.
func (r *Resolver) IconObjects(entities []scene.NodeID) []scene.NodeID {
	var out []scene.NodeID
	for _, id := range entities {
		n := r.g.Node(id)
		if n.Visible && n.Links.Icon != scene.Nil && r.g.Has(n.Links.Icon) {
			out = append(out, n.Links.Icon)
		}
	}
	for _, id := range entities {
		n := r.g.Node(id)
		if n.Form != scene.FormGroup || !n.Visible {
			continue
		}
		children := r.g.Children(id)
		if len(children) == 0 {
			continue
		}
		if first := r.g.Node(children[0]); first.Form == scene.FormMesh || first.Form == scene.FormSkinnedMesh {
			out = append(out, first.ID)
		}
	}
	return out
}

// GetIntersects returns the hits under p, nearest first. Mode3D yields at
// most one hit; errors come only from the picking backend.
func (r *Resolver) GetIntersects(p Pointer, cam camera.Camera, mode Mode) ([]Intersection, error) {
	if mode == ModeIcons {
		rr := camera.ScreenRay(cam, p.X, p.Y, p.Width, p.Height)
		return picking.Raycast(r.g, rr, r.IconObjects(r.Intersectables(true)), cam), nil
	}
	if r.picker == nil {
		return nil, nil
	}
	var candidates []scene.NodeID
	for _, id := range r.Intersectables(false) {
		if r.g.Node(id).Tag != scene.TagVolume {
			candidates = append(candidates, id)
		}
	}
	r.picker.SetupScene(candidates)
	r.picker.SetPickingPosition(int(p.X), int(p.Y))
	return r.picker.PickWithCamera(cam, p.Width, p.Height)
}

// Target maps a raw hit to the node it stands for, or Nil when no rule
// applies.
func (r *Resolver) Target(hit Intersection) scene.NodeID {
	g := r.g
	n := g.Node(hit.Object)
	if n == nil {
		return scene.Nil
	}
	parent := g.Node(g.Parent(n.ID))

	switch {
	case n.Form == scene.FormSprite:
		if parent == nil {
			return scene.Nil
		}
		return parent.Links.LinkedTo

	case n.Tag == scene.TagLightHitter:
		return g.Parent(n.ID)

	case n.Tag == scene.TagHitter:
		if parent == nil {
			return scene.Nil
		}
		return parent.Links.Object

	case n.Form == scene.FormGizmo:
		owner := g.Node(g.Ancestor(n.ID, 2))
		if owner != nil && owner.Tag == scene.TagBoneControl {
			if owner.Links.Character != scene.Nil {
				return owner.Links.Character
			}
			return owner.ID
		}
		return n.ID

	case n.Form == scene.FormSkinnedMesh:
		if parent != nil && parent.Form == scene.FormLOD {
			return g.Parent(parent.ID)
		}
		return g.Parent(n.ID)

	case n.Tag == scene.TagControlPoint, n.Tag == scene.TagBoneControl:
		return n.ID

	case parent != nil && parent.Tag == scene.TagObject:
		return parent.ID
	}
	return scene.Nil
}

// linkedCharacter returns the character an icon hit stands for, or Nil.
func (r *Resolver) linkedCharacter(hit Intersection) scene.NodeID {
	parent := r.g.Node(r.g.Parent(hit.Object))
	if parent == nil {
		return scene.Nil
	}
	if c := r.g.Node(parent.Links.LinkedTo); c != nil && c.Tag == scene.TagCharacter {
		return c.ID
	}
	return scene.Nil
}

// PreferCharacter picks the hit to act on among overlapping icon hits.
// Character icons win over anything else; among several, the character
// standing closest to the hit point on the ground plane wins. hits must not
// be empty.
func (r *Resolver) PreferCharacter(hits []Intersection) Intersection {
	best, bestDist, found := hits[0], float32(0), false
	for _, h := range hits {
		c := r.linkedCharacter(h)
		if c == scene.Nil {
			continue
		}
		d := groundDistance(r.g.WorldPosition(c), h.Point)
		if !found || d < bestDist {
			best, bestDist, found = h, d, true
		}
	}
	return best
}

func groundDistance(a, b mgl32.Vec3) float32 {
	return mgl32.Vec2{a.X() - b.X(), a.Z() - b.Z()}.Len()
}

// BoneHits ray casts the character's bone helper capsules and returns the
// hits nearest first, each carrying the bone it hit.
func (r *Resolver) BoneHits(character scene.NodeID, rr ray.Ray) []Intersection {
	n := r.g.Node(character)
	if n == nil || n.BonesHelper == nil {
		return nil
	}
	helper := n.BonesHelper
	var hits []Intersection
	for i, bone := range helper.Bones {
		if !r.g.Has(bone) {
			continue
		}
		a, b := r.g.BoneSegment(helper, i)
		if t, ok := rr.IntersectCapsule(a, b, helper.Radius); ok {
			hits = append(hits, Intersection{Object: character, Bone: bone, Point: rr.At(t), Distance: t})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}
