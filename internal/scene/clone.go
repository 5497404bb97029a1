package scene

import "github.com/go-gl/mathgl/mgl32"

// CloneInto deep-copies the subtree rooted at id into dst (which may be g)
// and returns the new root, detached, plus the old-to-new handle mapping.
//
// Geometry is shared. Skins, LOD levels, bone helpers and links are remapped
// onto the copied nodes; references that point outside the subtree are
// cleared since they would not resolve in dst.
func (g *Graph) CloneInto(dst *Graph, id NodeID) (NodeID, map[NodeID]NodeID) {
	mapping := make(map[NodeID]NodeID)
	root := g.cloneNode(dst, id, mapping)
	if root == Nil {
		return Nil, mapping
	}

	remap := func(old NodeID) NodeID {
		return mapping[old]
	}
	for oldID, newID := range mapping {
		src, n := g.Node(oldID), dst.Node(newID)
		if src.Skin != nil {
			skin := &Skin{
				Bones:       make([]NodeID, len(src.Skin.Bones)),
				InverseBind: append([]mgl32.Mat4(nil), src.Skin.InverseBind...),
			}
			for i, b := range src.Skin.Bones {
				skin.Bones[i] = remap(b)
			}
			n.Skin = skin
		}
		if src.BonesHelper != nil {
			helper := &BonesHelper{Radius: src.BonesHelper.Radius, Bones: make([]NodeID, 0, len(src.BonesHelper.Bones))}
			for i, b := range src.BonesHelper.Bones {
				nb := remap(b)
				if nb == Nil {
					continue
				}
				helper.Bones = append(helper.Bones, nb)
				if i < len(src.BonesHelper.Tips) {
					helper.Tips = append(helper.Tips, src.BonesHelper.Tips[i])
				}
			}
			n.BonesHelper = helper
		}
		if len(src.LOD) > 0 {
			n.LOD = make([]LODLevel, 0, len(src.LOD))
			for _, lvl := range src.LOD {
				if nl := remap(lvl.Node); nl != Nil {
					n.LOD = append(n.LOD, LODLevel{Node: nl, Distance: lvl.Distance})
				}
			}
		}
		n.Links = Links{
			LinkedTo:  remap(src.Links.LinkedTo),
			Object:    remap(src.Links.Object),
			Character: remap(src.Links.Character),
			Bone:      remap(src.Links.Bone),
			Icon:      remap(src.Links.Icon),
		}
	}
	return root, mapping
}

func (g *Graph) cloneNode(dst *Graph, id NodeID, mapping map[NodeID]NodeID) NodeID {
	src := g.Node(id)
	if src == nil {
		return Nil
	}
	n := dst.Create(src.Form, src.Name)
	newID := n.ID
	*n = *src
	n.ID = newID
	n.parent = Nil
	n.children = nil
	n.IK = nil
	n.Skin = nil
	n.BonesHelper = nil
	n.LOD = nil
	n.MorphInfluences = append([]float32(nil), src.MorphInfluences...)
	mapping[id] = newID

	for _, c := range src.children {
		if nc := g.cloneNode(dst, c, mapping); nc != Nil {
			child := dst.Node(nc)
			child.parent = newID
			n.children = append(n.children, nc)
		}
	}
	return newID
}

// FindSkinnedMesh returns the first skinned mesh of the subtree in depth-first
// order whose handle is not in exclude, or Nil.
func (g *Graph) FindSkinnedMesh(id NodeID, exclude func(NodeID) bool) NodeID {
	found := Nil
	g.Traverse(id, func(n *Node) bool {
		if found != Nil {
			return false
		}
		if n.Form == FormSkinnedMesh && (exclude == nil || !exclude(n.ID)) {
			found = n.ID
			return false
		}
		return true
	})
	return found
}
