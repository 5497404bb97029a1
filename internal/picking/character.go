package picking

import (
	"fmt"
	"slices"

	"github.com/Faultbox/shotgen/internal/scene"
)

// CharacterPickable mirrors a skinned character. Its proxy is a clone of the
// character container whose skeleton follows the live one bone by bone.
type CharacterPickable struct {
	proxyBase

	sceneObject scene.NodeID
	sceneMesh   scene.NodeID
	container   scene.NodeID
	pickingMesh scene.NodeID

	// excluded skips sub-meshes, such as attached props, when looking for the skinned mesh.
	excluded func(*scene.Node) bool
}

func newCharacterPickable(live, proxies *scene.Graph, src *scene.Node, id uint32, excluded func(*scene.Node) bool) (*CharacterPickable, error) {
	p := &CharacterPickable{
		proxyBase:   proxyBase{id: id, live: live, proxies: proxies},
		sceneObject: src.ID,
		excluded:    excluded,
	}
	if src.Form == scene.FormSkinnedMesh {
		p.sceneObject = live.Parent(src.ID)
	}
	if err := p.findMesh(); err != nil {
		return nil, err
	}
	root, mesh, err := p.cloneContainer()
	if err != nil {
		return nil, err
	}
	if err := proxies.Add(proxies.Root(), root); err != nil {
		return nil, err
	}
	p.node, p.pickingMesh = root, mesh
	p.Update()
	return p, nil
}

func (p *CharacterPickable) SceneObject() scene.NodeID { return p.sceneObject }

// HitObject reports the live skinned mesh, which resolves to the character.
func (p *CharacterPickable) HitObject() scene.NodeID { return p.sceneMesh }

// Container is the topmost live node of the character, above any LOD wrapper.
func (p *CharacterPickable) Container() scene.NodeID { return p.container }

// SkinnedMesh is the live skinned mesh the proxy follows.
func (p *CharacterPickable) SkinnedMesh() scene.NodeID { return p.sceneMesh }

// PickingMesh is the cloned skinned mesh rendered in the ID pass.
func (p *CharacterPickable) PickingMesh() scene.NodeID { return p.pickingMesh }

func (p *CharacterPickable) isExcluded(g *scene.Graph, id scene.NodeID) bool {
	return p.excluded != nil && p.excluded(g.Node(id))
}

func (p *CharacterPickable) findMesh() error {
	mesh := p.live.FindSkinnedMesh(p.sceneObject, func(id scene.NodeID) bool {
		return p.isExcluded(p.live, id)
	})
	if mesh == scene.Nil {
		return fmt.Errorf("character %v: %w", p.sceneObject, ErrNoSkinnedMesh)
	}
	p.sceneMesh = mesh
	p.container = p.live.Parent(mesh)
	if n := p.live.Node(p.container); n != nil && n.Form == scene.FormLOD {
		p.container = p.live.Parent(p.container)
	}
	return nil
}

// cloneContainer copies the container into the proxy graph, keeps only the
// highest-detail level of any LOD wrapper and returns the detached clone
// root with its skinned mesh.
func (p *CharacterPickable) cloneContainer() (root, mesh scene.NodeID, err error) {
	root, _ = p.live.CloneInto(p.proxies, p.container)
	if root == scene.Nil {
		return scene.Nil, scene.Nil, fmt.Errorf("clone character %v: %w", p.container, scene.ErrNoNode)
	}
	for _, c := range slices.Clone(p.proxies.Children(root)) {
		lod := p.proxies.Node(c)
		if lod.Form != scene.FormLOD {
			continue
		}
		if best := lod.HighestDetail(); best != scene.Nil {
			if err := p.proxies.Attach(root, best); err != nil {
				p.proxies.Delete(root)
				return scene.Nil, scene.Nil, err
			}
		}
		p.proxies.Delete(c)
	}

	rn := p.proxies.Node(root)
	rn.Visible = true
	rn.IK = nil

	mesh = p.proxies.FindSkinnedMesh(root, func(id scene.NodeID) bool {
		return p.isExcluded(p.proxies, id)
	})
	if mesh == scene.Nil {
		p.proxies.Delete(root)
		return scene.Nil, scene.Nil, fmt.Errorf("clone character %v: %w", p.container, ErrNoSkinnedMesh)
	}
	p.proxies.Node(mesh).Visible = true
	return root, mesh, nil
}

// ObjectChanged reports whether the live skinned mesh was detached from the
// character, as happens when its model is swapped.
func (p *CharacterPickable) ObjectChanged() bool {
	return !p.live.Has(p.sceneMesh) || p.live.Parent(p.sceneMesh) == scene.Nil
}

// ApplyObjectChanges rebuilds the cloned skeleton in place. The Pickable keeps
// its ID and its proxy root handle.
func (p *CharacterPickable) ApplyObjectChanges() error {
	if err := p.findMesh(); err != nil {
		p.needsRemoval = true
		return err
	}
	fresh, mesh, err := p.cloneContainer()
	if err != nil {
		p.needsRemoval = true
		return err
	}
	for _, c := range slices.Clone(p.proxies.Children(p.node)) {
		p.proxies.Delete(c)
	}
	for _, c := range slices.Clone(p.proxies.Children(fresh)) {
		if err := p.proxies.Add(p.node, c); err != nil {
			return err
		}
	}
	p.proxies.Node(p.node).BonesHelper = p.proxies.Node(fresh).BonesHelper
	p.proxies.Delete(fresh)
	p.pickingMesh = mesh
	return nil
}

func (p *CharacterPickable) Update() {
	if p.removed(p.sceneObject) {
		return
	}
	root := p.proxies.Node(p.node)
	root.Position, root.Rotation, root.Scale = p.live.WorldTransform(p.container)
	p.syncBones()
	p.syncMorphs()
}

func (p *CharacterPickable) syncMorphs() {
	src, dst := p.live.Node(p.sceneMesh), p.proxies.Node(p.pickingMesh)
	if src == nil || dst == nil {
		return
	}
	for i := range min(len(src.MorphInfluences), len(dst.MorphInfluences)) {
		dst.MorphInfluences[i] = src.MorphInfluences[i]
	}
}

// syncBones copies local bone transforms from the live skeleton, matching bones by skin index.
func (p *CharacterPickable) syncBones() {
	mesh, proxy := p.live.Node(p.sceneMesh), p.proxies.Node(p.pickingMesh)
	if mesh == nil || proxy == nil || mesh.Skin == nil || proxy.Skin == nil {
		return
	}
	src, dst := mesh.Skin, proxy.Skin
	for i := range min(len(src.Bones), len(dst.Bones)) {
		from, to := p.live.Node(src.Bones[i]), p.proxies.Node(dst.Bones[i])
		if from == nil || to == nil {
			continue
		}
		to.Position, to.Rotation, to.Scale = from.Position, from.Rotation, from.Scale
	}
}

func (p *CharacterPickable) AppendItems(dst []Item) []Item {
	root := p.proxies.Node(p.node)
	n := p.proxies.Node(p.pickingMesh)
	if root == nil || n == nil || !root.Visible || n.Skin == nil {
		return dst
	}
	return append(dst, Item{
		ID:    p.id,
		Mesh:  n.Mesh,
		Bones: p.proxies.BoneMatrices(n.Skin),
		Morph: n.MorphInfluences,
	})
}
