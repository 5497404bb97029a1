// Package preview collects the draw calls of the on-screen editor view.
package preview

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/engine/renderer"
	"github.com/Faultbox/shotgen/internal/scene"
)

// Config selects what the preview shows.
type Config struct {
	// ShowIcons draws entity icons as camera-facing sprites.
	ShowIcons bool
	// ShowVolumes draws volume boxes.
	ShowVolumes bool
}

// Frame is one frame's draw list. Overlay items are drawn after Lit,
// unlit and on top.
type Frame struct {
	Lit     []renderer.DrawItem
	Overlay []renderer.DrawItem
}

// Reset empties the frame, keeping its buffers.
func (f *Frame) Reset() {
	f.Lit = f.Lit[:0]
	f.Overlay = f.Overlay[:0]
}

// Collect appends the visible geometry of g to f. LOD nodes contribute
// their highest detail level only.
func Collect(f *Frame, g *scene.Graph, cam camera.Camera, cfg Config) {
	billboard := billboardRotation(cam)
	var walk func(id scene.NodeID, overlay bool)
	walk = func(id scene.NodeID, overlay bool) {
		n := g.Node(id)
		if n == nil || !n.Visible {
			return
		}
		switch {
		case n.Tag == scene.TagVolume && !cfg.ShowVolumes:
			return
		case n.Form == scene.FormCamera:
			return
		case n.Form == scene.FormGizmo, n.Tag == scene.TagControlPoint:
			overlay = true
		}

		if n.Mesh != nil && n.Form.HasGeometry() {
			if item, ok := drawItem(g, n, billboard, cfg); ok {
				if overlay {
					f.Overlay = append(f.Overlay, item)
				} else {
					f.Lit = append(f.Lit, item)
				}
			}
		}

		if n.Form == scene.FormLOD {
			walk(n.HighestDetail(), overlay)
			return
		}
		for _, c := range g.Children(id) {
			walk(c, overlay)
		}
	}
	walk(g.Root(), false)
}

func drawItem(g *scene.Graph, n *scene.Node, billboard mgl32.Quat, cfg Config) (renderer.DrawItem, bool) {
	item := renderer.DrawItem{Mesh: n.Mesh, Morph: n.MorphInfluences, Color: n.Color}
	switch {
	case n.Form == scene.FormSprite:
		if !cfg.ShowIcons {
			return item, false
		}
		pos, _, scale := g.WorldTransform(n.ID)
		item.Model = scene.Compose(pos, billboard, scale)
	case n.Form == scene.FormSkinnedMesh && n.Skin != nil && n.Mesh.Skinned():
		item.Bones = g.BoneMatrices(n.Skin)
	default:
		item.Model = g.WorldMatrix(n.ID)
	}
	return item, true
}

// billboardRotation is the camera's world rotation, so a quad in the XY
// plane faces the viewer.
func billboardRotation(cam camera.Camera) mgl32.Quat {
	if cam == nil {
		return mgl32.QuatIdent()
	}
	_, rot, _ := scene.Decompose(cam.View().Inv())
	return rot
}
