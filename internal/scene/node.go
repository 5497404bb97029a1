// Package scene provides the retained scene graph the editor picks against.
//
// Nodes are addressed by NodeID handles rather than pointers. Anything that
// refers to another node (an icon's linked entity, a control point's
// character, a picking proxy's source) stores a NodeID and asks the Graph
// whether it still exists, so a removed entity can never be reached through
// a stale reference.
package scene

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeID identifies a node within one Graph.
type NodeID uint32

// Nil is the invalid node handle.
const Nil NodeID = 0

// String returns a stable textual key, used for bone identifiers in the store.
func (id NodeID) String() string {
	return "node-" + strconv.FormatUint(uint64(id), 10)
}

// ParseNodeID is the inverse of NodeID.String.
func ParseNodeID(s string) (NodeID, bool) {
	rest, ok := strings.CutPrefix(s, "node-")
	if !ok {
		return Nil, false
	}
	v, err := strconv.ParseUint(rest, 10, 32)
	if err != nil || v == 0 {
		return Nil, false
	}
	return NodeID(v), true
}

// Tag is the editor role of a node.
type Tag uint8

const (
	TagNone Tag = iota
	TagObject
	TagCharacter
	TagLight
	TagVolume
	TagControlTarget
	TagControlPoint
	TagBoneControl
	TagHitter
	TagLightHitter
)

var tagNames = [...]string{
	TagNone:          "",
	TagObject:        "object",
	TagCharacter:     "character",
	TagLight:         "light",
	TagVolume:        "volume",
	TagControlTarget: "controlTarget",
	TagControlPoint:  "controlPoint",
	TagBoneControl:   "boneControl",
	TagHitter:        "hitter",
	TagLightHitter:   "hitter_light",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// ParseTag maps a tag name to its Tag. Unknown names yield TagNone and false.
func ParseTag(name string) (Tag, bool) {
	for i, n := range tagNames {
		if n == name && i != int(TagNone) {
			return Tag(i), true
		}
	}
	return TagNone, false
}

// Form is the structural kind of a node.
type Form uint8

const (
	FormGroup Form = iota
	FormMesh
	FormSkinnedMesh
	FormSprite
	FormGizmo
	FormLOD
	FormBone
	FormCamera
)

var formNames = [...]string{
	FormGroup:       "Group",
	FormMesh:        "Mesh",
	FormSkinnedMesh: "SkinnedMesh",
	FormSprite:      "Sprite",
	FormGizmo:       "gizmo",
	FormLOD:         "LOD",
	FormBone:        "Bone",
	FormCamera:      "PerspectiveCamera",
}

func (f Form) String() string {
	if int(f) < len(formNames) {
		return formNames[f]
	}
	return "form(" + strconv.Itoa(int(f)) + ")"
}

// HasGeometry reports whether nodes of this form carry a drawable mesh.
func (f Form) HasGeometry() bool {
	switch f {
	case FormMesh, FormSkinnedMesh, FormSprite, FormGizmo:
		return true
	}
	return false
}

// Links holds the non-owning references a node keeps to other nodes.
type Links struct {
	// LinkedTo is set on icon groups: the entity the icon stands for.
	LinkedTo NodeID
	// Object is set on the parent of a character hitter: the character's 3D object.
	Object NodeID
	// Character is set on control points and bone controls.
	Character NodeID
	// Bone is set on bone controls: the bone they manipulate.
	Bone NodeID
	// Icon is set on entities that have an orthographic icon.
	Icon NodeID
}

// IKRig is the inverse-kinematics state a character exposes.
type IKRig struct {
	IsEnabledIK   bool
	HipsMoving    bool
	HipsMouseDown bool
}

// Busy reports whether the rig currently owns the character transform.
func (r *IKRig) Busy() bool {
	return r != nil && (r.IsEnabledIK || r.HipsMoving || r.HipsMouseDown)
}

// BoneState carries rotation flags of a bone being edited.
type BoneState struct {
	IsRotated         bool
	IsRotationChanged bool
}

// LODLevel is one level of detail: a child node and the camera distance it switches in at.
type LODLevel struct {
	Node     NodeID
	Distance float32
}

// Node is one element of the scene graph.
type Node struct {
	ID   NodeID
	Name string
	Form Form
	Tag  Tag

	// EntityID is the store identifier of an entity. Empty for helper nodes.
	EntityID string
	Visible  bool

	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	Mesh            *Mesh
	Skin            *Skin
	MorphInfluences []float32
	LOD             []LODLevel
	BonesHelper     *BonesHelper
	IK              *IKRig
	Bone            BoneState
	Links           Links

	// Color is the display color used by the preview renderer.
	Color mgl32.Vec4

	parent   NodeID
	children []NodeID
}

// IsEntity reports whether the node stands for a store entity.
func (n *Node) IsEntity() bool {
	return n != nil && n.EntityID != ""
}

// HighestDetail returns the LOD level with the smallest switch distance,
// or the first child when the levels were never recorded.
func (n *Node) HighestDetail() NodeID {
	if len(n.LOD) == 0 {
		if len(n.children) == 0 {
			return Nil
		}
		return n.children[0]
	}
	best := n.LOD[0]
	for _, lvl := range n.LOD[1:] {
		if lvl.Distance < best.Distance {
			best = lvl
		}
	}
	return best.Node
}
