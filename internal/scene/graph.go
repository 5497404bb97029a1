package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoNode is returned when a handle does not resolve to a node.
	ErrNoNode = errors.New("scene: no such node")
	// ErrCycle is returned when parenting would make a node its own ancestor.
	ErrCycle = errors.New("scene: node would become its own ancestor")
)

// Graph owns a set of nodes and their hierarchy. It has one root; a node is
// attached when its ancestor chain reaches that root.
type Graph struct {
	nodes map[NodeID]*Node
	next  NodeID
	root  NodeID
}

// NewGraph creates a graph holding only its root node.
func NewGraph() *Graph {
	g := &Graph{
		nodes: make(map[NodeID]*Node),
		next:  1,
	}
	g.root = g.Create(FormGroup, "scene").ID
	return g
}

// Root returns the root handle.
func (g *Graph) Root() NodeID {
	return g.root
}

// Len returns the number of live nodes, root included.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Create makes a detached node with identity transform.
func (g *Graph) Create(form Form, name string) *Node {
	n := &Node{
		ID:       g.next,
		Name:     name,
		Form:     form,
		Visible:  true,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Color:    mgl32.Vec4{0.8, 0.8, 0.8, 1},
	}
	g.nodes[n.ID] = n
	g.next++
	return n
}

// Node resolves a handle. It returns nil for Nil or deleted nodes.
func (g *Graph) Node(id NodeID) *Node {
	if id == Nil {
		return nil
	}
	return g.nodes[id]
}

// Has reports whether id resolves to a live node.
func (g *Graph) Has(id NodeID) bool {
	return g.Node(id) != nil
}

// Parent returns the parent handle, or Nil for detached nodes and the root.
func (g *Graph) Parent(id NodeID) NodeID {
	if n := g.Node(id); n != nil {
		return n.parent
	}
	return Nil
}

// Ancestor returns the n-th ancestor (1 is the parent) or Nil.
func (g *Graph) Ancestor(id NodeID, n int) NodeID {
	for ; n > 0 && id != Nil; n-- {
		id = g.Parent(id)
	}
	return id
}

// Children returns the child handles in insertion order. The slice must not be modified.
func (g *Graph) Children(id NodeID) []NodeID {
	if n := g.Node(id); n != nil {
		return n.children
	}
	return nil
}

// Add parents child under parent, detaching it from any previous parent.
// The child's local transform is kept as is.
func (g *Graph) Add(parent, child NodeID) error {
	p, c := g.Node(parent), g.Node(child)
	if p == nil || c == nil {
		return fmt.Errorf("add %v under %v: %w", child, parent, ErrNoNode)
	}
	for a := parent; a != Nil; a = g.Parent(a) {
		if a == child {
			return fmt.Errorf("add %v under %v: %w", child, parent, ErrCycle)
		}
	}
	g.Remove(child)
	c.parent = parent
	p.children = append(p.children, child)
	return nil
}

// Attach parents child under parent while preserving its world transform.
func (g *Graph) Attach(parent, child NodeID) error {
	world := g.WorldMatrix(child)
	if err := g.Add(parent, child); err != nil {
		return err
	}
	local := g.WorldMatrix(parent).Inv().Mul4(world)
	c := g.Node(child)
	c.Position, c.Rotation, c.Scale = Decompose(local)
	return nil
}

// Remove detaches a node from its parent. The node and its subtree stay in the graph.
func (g *Graph) Remove(id NodeID) {
	n := g.Node(id)
	if n == nil || n.parent == Nil {
		return
	}
	if p := g.Node(n.parent); p != nil {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
	}
	n.parent = Nil
}

// Delete detaches a node and drops it and its whole subtree from the graph.
// Deleting the root is a no-op.
func (g *Graph) Delete(id NodeID) {
	if id == g.root || !g.Has(id) {
		return
	}
	g.Remove(id)
	g.deleteSubtree(id)
}

func (g *Graph) deleteSubtree(id NodeID) {
	n := g.Node(id)
	if n == nil {
		return
	}
	for _, c := range n.children {
		g.deleteSubtree(c)
	}
	delete(g.nodes, id)
}

// Attached reports whether the node's ancestor chain reaches the root.
func (g *Graph) Attached(id NodeID) bool {
	for a := id; a != Nil; a = g.Parent(a) {
		if a == g.root {
			return true
		}
	}
	return false
}

// Traverse walks the subtree rooted at id depth-first, parents before children.
// Returning false from fn skips that node's children.
func (g *Graph) Traverse(id NodeID, fn func(*Node) bool) {
	n := g.Node(id)
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		g.Traverse(c, fn)
	}
}

// VisibleInWorld reports whether the node and all its ancestors are visible.
func (g *Graph) VisibleInWorld(id NodeID) bool {
	for a := id; a != Nil; a = g.Parent(a) {
		if n := g.Node(a); n == nil || !n.Visible {
			return false
		}
	}
	return true
}

// FindEntity returns the root child whose EntityID matches, or Nil.
func (g *Graph) FindEntity(entityID string) NodeID {
	for _, c := range g.Children(g.root) {
		if n := g.Node(c); n.EntityID == entityID {
			return c
		}
	}
	return Nil
}

// LocalMatrix composes translation, rotation and scale of one node.
func (g *Graph) LocalMatrix(id NodeID) mgl32.Mat4 {
	n := g.Node(id)
	if n == nil {
		return mgl32.Ident4()
	}
	return Compose(n.Position, n.Rotation, n.Scale)
}

// WorldMatrix multiplies local matrices from the top of the node's chain down.
func (g *Graph) WorldMatrix(id NodeID) mgl32.Mat4 {
	m := mgl32.Ident4()
	for a := id; a != Nil; a = g.Parent(a) {
		m = g.LocalMatrix(a).Mul4(m)
	}
	return m
}

// WorldPosition returns the node's origin in world space.
func (g *Graph) WorldPosition(id NodeID) mgl32.Vec3 {
	return g.WorldMatrix(id).Col(3).Vec3()
}

// WorldTransform decomposes the node's world matrix.
func (g *Graph) WorldTransform(id NodeID) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	return Decompose(g.WorldMatrix(id))
}

// Compose builds a TRS matrix.
func Compose(pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// Decompose splits an affine matrix without shear into translation, rotation and scale.
func Decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	pos := m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	if sx == 0 || sy == 0 || sz == 0 {
		return pos, mgl32.QuatIdent(), mgl32.Vec3{sx, sy, sz}
	}
	rot := mgl32.Mat4{
		m[0] / sx, m[1] / sx, m[2] / sx, 0,
		m[4] / sy, m[5] / sy, m[6] / sy, 0,
		m[8] / sz, m[9] / sz, m[10] / sz, 0,
		0, 0, 0, 1,
	}
	return pos, mgl32.Mat4ToQuat(rot).Normalize(), mgl32.Vec3{sx, sy, sz}
}
