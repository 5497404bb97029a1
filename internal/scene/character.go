package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CharacterOptions configures AddCharacter.
type CharacterOptions struct {
	EntityID string
	Name     string
	Position mgl32.Vec3
	Height   float32
	// LOD wraps the body in a level-of-detail node with a high and a low detail level.
	LOD bool
	// Attachments adds skinned prop meshes ahead of the body, named after each entry.
	Attachments []string
	// ControlPoints adds IK control point handles for hands and feet as root children.
	ControlPoints bool
	Color         mgl32.Vec4
}

type boneDef struct {
	name   string
	parent int
	offset mgl32.Vec3 // local, in fractions of height
	box    mgl32.Vec3 // segment box size, in fractions of height
	center mgl32.Vec3 // box center relative to the bone, in fractions of height
}

var humanoid = []boneDef{
	{"Hips", -1, mgl32.Vec3{0, 0.5, 0}, mgl32.Vec3{0.2, 0.1, 0.12}, mgl32.Vec3{}},
	{"Spine", 0, mgl32.Vec3{0, 0.08, 0}, mgl32.Vec3{0.22, 0.25, 0.12}, mgl32.Vec3{0, 0.12, 0}},
	{"Head", 1, mgl32.Vec3{0, 0.28, 0}, mgl32.Vec3{0.12, 0.13, 0.12}, mgl32.Vec3{0, 0.06, 0}},
	{"LeftArm", 1, mgl32.Vec3{0.14, 0.22, 0}, mgl32.Vec3{0.06, 0.3, 0.06}, mgl32.Vec3{0, -0.15, 0}},
	{"RightArm", 1, mgl32.Vec3{-0.14, 0.22, 0}, mgl32.Vec3{0.06, 0.3, 0.06}, mgl32.Vec3{0, -0.15, 0}},
	{"LeftLeg", 0, mgl32.Vec3{0.06, -0.04, 0}, mgl32.Vec3{0.08, 0.45, 0.08}, mgl32.Vec3{0, -0.22, 0}},
	{"RightLeg", 0, mgl32.Vec3{-0.06, -0.04, 0}, mgl32.Vec3{0.08, 0.45, 0.08}, mgl32.Vec3{0, -0.22, 0}},
}

// endEffectors names the bones that get IK control points and the fraction
// of height below them the handle sits at.
var endEffectors = map[string]float32{"LeftArm": 0.3, "RightArm": 0.3, "LeftLeg": 0.45, "RightLeg": 0.45}

// AddCharacter builds a procedurally skinned humanoid under the root and
// returns its container node.
func (g *Graph) AddCharacter(opts CharacterOptions) (*Node, error) {
	if opts.Height <= 0 {
		opts.Height = 1.8
	}
	if opts.Name == "" {
		opts.Name = opts.EntityID
	}
	if opts.Color == (mgl32.Vec4{}) {
		opts.Color = mgl32.Vec4{0.85, 0.7, 0.55, 1}
	}
	h := opts.Height

	container := g.Create(FormGroup, opts.Name)
	container.Tag = TagCharacter
	container.EntityID = opts.EntityID
	container.IK = &IKRig{}

	// Bones are built while the container sits at the origin so that inverse
	// bind matrices are expressed in container space.
	bones := make([]NodeID, len(humanoid))
	for i, def := range humanoid {
		b := g.Create(FormBone, def.name)
		b.Position = def.offset.Mul(h)
		parent := container.ID
		if def.parent >= 0 {
			parent = bones[def.parent]
		}
		if err := g.Add(parent, b.ID); err != nil {
			return nil, fmt.Errorf("building skeleton of %s: %w", opts.Name, err)
		}
		bones[i] = b.ID
	}
	inverseBind := make([]mgl32.Mat4, len(bones))
	for i, b := range bones {
		inverseBind[i] = g.WorldMatrix(b).Inv()
	}

	for _, name := range opts.Attachments {
		prop := g.Create(FormSkinnedMesh, name)
		prop.Mesh = &Mesh{}
		head := g.WorldPosition(bones[2])
		prop.Mesh.AppendSkinnedBox(head.Add(mgl32.Vec3{0, 0.15 * h, 0}), mgl32.Vec3{0.15 * h, 0.04 * h, 0.15 * h}, 2)
		prop.Skin = &Skin{Bones: bones, InverseBind: inverseBind}
		if err := g.Add(container.ID, prop.ID); err != nil {
			return nil, err
		}
	}

	body := g.bodyMesh(bones, h, opts.Color, inverseBind, opts.Name+"_body")
	if opts.LOD {
		lod := g.Create(FormLOD, opts.Name+"_lod")
		low := g.bodyMesh(bones, h, opts.Color, inverseBind, opts.Name+"_body_low")
		if err := g.Add(container.ID, lod.ID); err != nil {
			return nil, err
		}
		// Low detail first so that child order alone does not decide the promoted level.
		for _, lvl := range []NodeID{low, body} {
			if err := g.Add(lod.ID, lvl); err != nil {
				return nil, err
			}
		}
		lod.LOD = []LODLevel{{Node: low, Distance: 15}, {Node: body, Distance: 0}}
	} else if err := g.Add(container.ID, body); err != nil {
		return nil, err
	}

	tips := make([]mgl32.Vec3, len(humanoid))
	for i, def := range humanoid {
		tips[i] = def.center.Mul(2 * h)
	}
	container.BonesHelper = &BonesHelper{Bones: bones, Tips: tips, Radius: 0.05 * h}
	container.Position = opts.Position
	if err := g.Add(g.root, container.ID); err != nil {
		return nil, err
	}

	if opts.ControlPoints {
		for i, def := range humanoid {
			depth, ok := endEffectors[def.name]
			if !ok {
				continue
			}
			cp := g.Create(FormMesh, "controlPoint")
			cp.Tag = TagControlPoint
			cp.Mesh = Sphere(0.04*h, 8, 6)
			cp.Color = mgl32.Vec4{0.2, 0.6, 1, 1}
			cp.Position = g.WorldPosition(bones[i]).Sub(mgl32.Vec3{0, depth * h, 0})
			cp.Links.Character = container.ID
			cp.Links.Bone = bones[i]
			if err := g.Add(g.root, cp.ID); err != nil {
				return nil, err
			}
		}
	}
	return container, nil
}

func (g *Graph) bodyMesh(bones []NodeID, h float32, color mgl32.Vec4, inverseBind []mgl32.Mat4, name string) NodeID {
	mesh := &Mesh{}
	for i, def := range humanoid {
		center := g.WorldPosition(bones[i]).Add(def.center.Mul(h))
		mesh.AppendSkinnedBox(center, def.box.Mul(h), uint16(i))
	}
	// One morph target that widens the torso, to exercise weight mirroring.
	widen := make([]mgl32.Vec3, len(mesh.Positions))
	for i, p := range mesh.Positions {
		if mesh.Joints[i][0] == 1 {
			widen[i] = mgl32.Vec3{p.X() * 0.2, 0, 0}
		}
	}
	mesh.MorphTargets = [][]mgl32.Vec3{widen}

	n := g.Create(FormSkinnedMesh, name)
	n.Mesh = mesh
	n.Skin = &Skin{Bones: bones, InverseBind: inverseBind}
	n.MorphInfluences = []float32{0}
	n.Color = color
	return n.ID
}

// BoneByName finds a bone of a character's body skin by name.
func (g *Graph) BoneByName(character NodeID, name string) NodeID {
	found := Nil
	g.Traverse(character, func(n *Node) bool {
		if found != Nil {
			return false
		}
		if n.Form == FormBone && n.Name == name {
			found = n.ID
			return false
		}
		return true
	})
	return found
}

// AddIcon creates the orthographic icon for an entity: a group linked to the
// entity holding one sprite, placed above the entity. It returns the sprite.
func (g *Graph) AddIcon(entity NodeID, size float32) (NodeID, error) {
	e := g.Node(entity)
	if e == nil {
		return Nil, fmt.Errorf("icon for %v: %w", entity, ErrNoNode)
	}
	group := g.Create(FormGroup, e.Name+"_icon")
	group.Links.LinkedTo = entity
	group.Position = g.WorldPosition(entity)

	sprite := g.Create(FormSprite, e.Name+"_sprite")
	sprite.Mesh = Quad(1, 1)
	sprite.Scale = mgl32.Vec3{size, size, 1}
	sprite.Color = e.Color

	if err := g.Add(group.ID, sprite.ID); err != nil {
		return Nil, err
	}
	if err := g.Add(g.root, group.ID); err != nil {
		return Nil, err
	}
	e.Links.Icon = sprite.ID
	return sprite.ID, nil
}
