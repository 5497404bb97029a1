package scene

import "github.com/go-gl/mathgl/mgl32"

// Mesh is immutable triangle geometry. Clones share the same Mesh.
type Mesh struct {
	Positions []mgl32.Vec3
	Indices   []uint32

	// Joints and Weights are per-vertex skinning data, indices into Skin.Bones.
	Joints  [][4]uint16
	Weights []mgl32.Vec4

	// MorphTargets holds per-target position deltas, one per vertex.
	MorphTargets [][]mgl32.Vec3
}

// Skinned reports whether the mesh carries per-vertex skinning data.
func (m *Mesh) Skinned() bool {
	return len(m.Positions) > 0 && len(m.Joints) == len(m.Positions) && len(m.Weights) == len(m.Positions)
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Skin binds a skinned mesh to bone nodes.
type Skin struct {
	Bones       []NodeID
	InverseBind []mgl32.Mat4
}

// BonesHelper describes the capsules used to ray cast against a character's bones.
type BonesHelper struct {
	Bones []NodeID
	// Tips holds each bone's far end in bone-local space.
	Tips   []mgl32.Vec3
	Radius float32
}

// BoneSegment returns the world-space axis of the i-th helper capsule.
// A bone without a recorded tip yields a zero-length segment.
func (g *Graph) BoneSegment(h *BonesHelper, i int) (a, b mgl32.Vec3) {
	m := g.WorldMatrix(h.Bones[i])
	a = m.Col(3).Vec3()
	if i >= len(h.Tips) {
		return a, a
	}
	return a, m.Mul4x1(h.Tips[i].Vec4(1)).Vec3()
}

// BoneMatrices returns world-space skinning matrices, one per bone.
// Missing bones contribute identity.
func (g *Graph) BoneMatrices(skin *Skin) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(skin.Bones))
	for i, b := range skin.Bones {
		if !g.Has(b) {
			out[i] = mgl32.Ident4()
			continue
		}
		inv := mgl32.Ident4()
		if i < len(skin.InverseBind) {
			inv = skin.InverseBind[i]
		}
		out[i] = g.WorldMatrix(b).Mul4(inv)
	}
	return out
}

// WorldPositions returns the node's mesh vertices in world space with morph
// targets and skinning applied. It returns nil for nodes without geometry.
func (g *Graph) WorldPositions(id NodeID) []mgl32.Vec3 {
	n := g.Node(id)
	if n == nil || n.Mesh == nil {
		return nil
	}
	if n.Form == FormSkinnedMesh && n.Skin != nil && n.Mesh.Skinned() {
		return n.Mesh.Deform(n.MorphInfluences, g.BoneMatrices(n.Skin), mgl32.Ident4())
	}
	return n.Mesh.Deform(n.MorphInfluences, nil, g.WorldMatrix(id))
}

// Deform applies morph influences, then either linear blend skinning with the
// given bone matrices or, when bones is nil, the model matrix.
func (m *Mesh) Deform(influences []float32, bones []mgl32.Mat4, model mgl32.Mat4) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(m.Positions))
	copy(out, m.Positions)

	for t, deltas := range m.MorphTargets {
		if t >= len(influences) || influences[t] == 0 {
			continue
		}
		w := influences[t]
		for i := range min(len(out), len(deltas)) {
			out[i] = out[i].Add(deltas[i].Mul(w))
		}
	}

	if bones != nil && m.Skinned() {
		for i, p := range out {
			var acc mgl32.Vec3
			p4 := p.Vec4(1)
			for k := 0; k < 4; k++ {
				w := m.Weights[i][k]
				j := int(m.Joints[i][k])
				if w == 0 || j >= len(bones) {
					continue
				}
				acc = acc.Add(bones[j].Mul4x1(p4).Vec3().Mul(w))
			}
			out[i] = acc
		}
		return out
	}

	for i, p := range out {
		out[i] = mgl32.TransformCoordinate(p, model)
	}
	return out
}
