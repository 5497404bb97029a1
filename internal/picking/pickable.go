// Package picking identifies what lies under the pointer.
//
// In 3D mode every intersectable entity is mirrored by a Pickable: a proxy
// subtree living in a graph owned by the Registry, rendered with a flat color
// that encodes the Pickable's ID. Reading back one pixel of that pass gives
// the nearest surface under the pointer, skinned and morphed geometry
// included. Icon mode falls back to CPU ray casting (Raycast).
package picking

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/scene"
)

// Pickable is the ID-rendering proxy of one live scene node.
type Pickable interface {
	// ID is the color ID, unique among registered Pickables.
	ID() uint32
	// SceneObject is the live entity the proxy mirrors. The Pickable does not own it.
	SceneObject() scene.NodeID
	// HitObject is the live node reported when the proxy is picked.
	HitObject() scene.NodeID
	// Node is the root of the proxy subtree in the registry's proxy graph.
	Node() scene.NodeID
	NeedsRemoval() bool
	// Update mirrors the live transforms onto the proxy, or flags the
	// Pickable for removal when its source left the scene.
	Update()
	// AppendItems adds the proxy's draw calls for the ID pass.
	AppendItems(dst []Item) []Item
	// Dispose drops the proxy subtree.
	Dispose()
}

// Item is one ID pass draw call.
type Item struct {
	ID    uint32
	Mesh  *scene.Mesh
	Model mgl32.Mat4
	// Bones holds world skinning matrices for skinned meshes; Model is then ignored.
	Bones []mgl32.Mat4
	Morph []float32
}

type proxyBase struct {
	id           uint32
	live         *scene.Graph
	proxies      *scene.Graph
	node         scene.NodeID
	needsRemoval bool
}

func (p *proxyBase) ID() uint32 { return p.id }

func (p *proxyBase) Node() scene.NodeID { return p.node }

func (p *proxyBase) NeedsRemoval() bool { return p.needsRemoval }

func (p *proxyBase) Dispose() {
	p.proxies.Delete(p.node)
	p.node = scene.Nil
}

// removed flags the Pickable once src is no longer reachable from the live root.
func (p *proxyBase) removed(src scene.NodeID) bool {
	if !p.live.Attached(src) {
		p.needsRemoval = true
	}
	return p.needsRemoval
}

// appendGeometry collects draw calls for every visible geometry node of the proxy subtree.
func (p *proxyBase) appendGeometry(dst []Item) []Item {
	p.proxies.Traverse(p.node, func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		if n.Mesh == nil || !n.Form.HasGeometry() {
			return true
		}
		item := Item{ID: p.id, Mesh: n.Mesh, Morph: n.MorphInfluences}
		if n.Form == scene.FormSkinnedMesh && n.Skin != nil && n.Mesh.Skinned() {
			item.Bones = p.proxies.BoneMatrices(n.Skin)
		} else {
			item.Model = p.proxies.WorldMatrix(n.ID)
		}
		dst = append(dst, item)
		return true
	})
	return dst
}

// ObjectPickable mirrors a single mesh node.
type ObjectPickable struct {
	proxyBase
	source scene.NodeID
}

func newObjectPickable(live, proxies *scene.Graph, src *scene.Node, id uint32) (*ObjectPickable, error) {
	if src.Mesh == nil || !src.Form.HasGeometry() {
		return nil, ErrNoGeometry
	}
	proxy := proxies.Create(src.Form, src.Name)
	proxy.Mesh = src.Mesh
	proxy.Tag = src.Tag
	if err := proxies.Add(proxies.Root(), proxy.ID); err != nil {
		return nil, err
	}
	p := &ObjectPickable{
		proxyBase: proxyBase{id: id, live: live, proxies: proxies, node: proxy.ID},
		source:    src.ID,
	}
	p.Update()
	return p, nil
}

func (p *ObjectPickable) SceneObject() scene.NodeID { return p.source }

func (p *ObjectPickable) HitObject() scene.NodeID { return p.source }

func (p *ObjectPickable) Update() {
	if p.removed(p.source) {
		return
	}
	proxy, src := p.proxies.Node(p.node), p.live.Node(p.source)
	proxy.Position, proxy.Rotation, proxy.Scale = p.live.WorldTransform(p.source)
	proxy.Visible = p.live.VisibleInWorld(p.source)
	proxy.MorphInfluences = append(proxy.MorphInfluences[:0], src.MorphInfluences...)
}

func (p *ObjectPickable) AppendItems(dst []Item) []Item {
	return p.appendGeometry(dst)
}
