package editor

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/gizmo"
	"github.com/Faultbox/shotgen/internal/logger"
	"github.com/Faultbox/shotgen/internal/scene"
)

// BoneControlSize is the on-screen size factor of the bone rotation gizmo.
const BoneControlSize = 0.2

// UpdateCharacterFunc receives a bone's rotation after every gizmo drag step.
type UpdateCharacterFunc func(boneName string, rotation mgl32.Quat)

// BoneControl is a rotate-only gizmo attached to at most one bone of a
// character.
type BoneControl struct {
	g         *scene.Graph
	character scene.NodeID
	cam       camera.Camera
	log       *zap.Logger

	control   *gizmo.TransformControl
	bone      scene.NodeID
	hitID     string
	listeners []gizmo.ListenerID
	update    UpdateCharacterFunc
}

// NewBoneControl creates the control of one character.
func NewBoneControl(g *scene.Graph, character scene.NodeID, cam camera.Camera, log *zap.Logger) *BoneControl {
	if log == nil {
		log = logger.Named("editor")
	}
	b := &BoneControl{g: g, character: character, cam: cam, log: log}
	b.build()
	return b
}

func (b *BoneControl) build() {
	b.control = gizmo.New(b.g, b.cam)
	b.control.SetRotationOnly(true)
	b.control.SetSize(BoneControlSize)
	b.control.Traverse(func(n *scene.Node) {
		n.Tag = scene.TagBoneControl
		n.Links.Character = b.character
	})
}

// Character returns the character the control belongs to.
func (b *BoneControl) Character() scene.NodeID {
	return b.character
}

// Control returns the underlying gizmo, or nil after DeselectBone.
func (b *BoneControl) Control() *gizmo.TransformControl {
	return b.control
}

// Bone returns the attached bone, or Nil.
func (b *BoneControl) Bone() scene.NodeID {
	return b.bone
}

// HitID returns the identifier recorded by the last SelectedBone.
func (b *BoneControl) HitID() string {
	return b.hitID
}

// SetUpdateCharacter sets the callback receiving rotation changes.
func (b *BoneControl) SetUpdateCharacter(fn UpdateCharacterFunc) {
	b.update = fn
}

// SelectedBone moves the gizmo onto bone. Selecting Nil deselects.
func (b *BoneControl) SelectedBone(bone scene.NodeID, hitID string) {
	if bone == scene.Nil || !b.g.Has(bone) {
		b.DeselectBone()
		return
	}
	if b.control == nil {
		b.build()
	}
	if b.bone != scene.Nil {
		b.control.Detach()
		b.removeListeners()
	} else if err := b.control.AddToScene(); err != nil {
		b.log.Warn("bone control not added to scene", zap.Error(err))
	}

	b.bone, b.hitID = bone, hitID
	b.control.Traverse(func(n *scene.Node) { n.Links.Bone = bone })
	b.control.Attach(bone)

	b.listeners = append(b.listeners,
		b.control.AddEventListener(gizmo.EventMouseDown, b.onMouseDown),
		b.control.AddEventListener(gizmo.EventMoved, b.onMoved),
		b.control.AddEventListener(gizmo.EventMouseUp, b.onMouseUp),
	)
	b.log.Debug("bone selected",
		zap.Stringer("character", b.character),
		zap.Stringer("bone", bone))
}

func (b *BoneControl) onMouseDown() {
	if n := b.g.Node(b.bone); n != nil {
		n.Bone.IsRotated = true
	}
}

func (b *BoneControl) onMoved() {
	n := b.g.Node(b.bone)
	if n == nil || b.update == nil {
		return
	}
	b.update(n.Name, n.Rotation)
}

func (b *BoneControl) onMouseUp() {
	if n := b.g.Node(b.bone); n != nil {
		n.Bone.IsRotated = false
		n.Bone.IsRotationChanged = true
	}
}

func (b *BoneControl) removeListeners() {
	for _, id := range b.listeners {
		b.control.RemoveEventListener(id)
	}
	b.listeners = b.listeners[:0]
}

// DeselectBone detaches the gizmo, removes it from the scene and releases
// its nodes. A later SelectedBone builds a fresh gizmo.
func (b *BoneControl) DeselectBone() {
	if b.control == nil {
		return
	}
	b.control.Detach()
	b.control.RemoveFromScene()
	b.removeListeners()
	b.control.Dispose()
	b.control = nil
	b.bone, b.hitID = scene.Nil, ""
}

// SetCamera resizes the gizmo for a new viewing camera.
func (b *BoneControl) SetCamera(cam camera.Camera) {
	b.cam = cam
	if b.control == nil {
		return
	}
	b.control.SetCamera(cam)
	b.control.UpdateMatrixWorld()
}

// Update keeps the gizmo on its bone as the character moves.
func (b *BoneControl) Update() {
	if b.control != nil {
		b.control.UpdateMatrixWorld()
	}
}

// BoneControls owns the bone controls of every character, creating them on
// first use. At most one bone is selected across all characters.
type BoneControls struct {
	g        *scene.Graph
	cam      camera.Camera
	log      *zap.Logger
	controls map[scene.NodeID]*BoneControl
	update   func(character scene.NodeID, boneName string, rotation mgl32.Quat)
}

// NewBoneControls creates an empty set of controls.
func NewBoneControls(g *scene.Graph, cam camera.Camera, log *zap.Logger) *BoneControls {
	if log == nil {
		log = logger.Named("editor")
	}
	return &BoneControls{g: g, cam: cam, log: log, controls: make(map[scene.NodeID]*BoneControl)}
}

// SetUpdateCharacter sets the callback receiving rotation changes of any character.
func (c *BoneControls) SetUpdateCharacter(fn func(character scene.NodeID, boneName string, rotation mgl32.Quat)) {
	c.update = fn
	for _, bc := range c.controls {
		c.bindUpdate(bc)
	}
}

func (c *BoneControls) bindUpdate(bc *BoneControl) {
	if c.update == nil {
		bc.SetUpdateCharacter(nil)
		return
	}
	character, fn := bc.character, c.update
	bc.SetUpdateCharacter(func(name string, rot mgl32.Quat) { fn(character, name, rot) })
}

// For returns the control of a character, creating it if needed.
func (c *BoneControls) For(character scene.NodeID) *BoneControl {
	if bc, ok := c.controls[character]; ok {
		return bc
	}
	bc := NewBoneControl(c.g, character, c.cam, c.log)
	c.bindUpdate(bc)
	c.controls[character] = bc
	return bc
}

// owner returns the character a bone belongs to.
func (c *BoneControls) owner(bone scene.NodeID) scene.NodeID {
	for a := c.g.Parent(bone); a != scene.Nil; a = c.g.Parent(a) {
		if c.g.Node(a).Tag == scene.TagCharacter {
			return a
		}
	}
	return scene.Nil
}

// Sync makes the gizmos reflect a bone selection key as stored by
// Store.SelectBone. Unknown or empty keys deselect every bone.
func (c *BoneControls) Sync(boneKey string) {
	bone, ok := scene.ParseNodeID(boneKey)
	character := scene.Nil
	if ok {
		character = c.owner(bone)
	}
	for id, bc := range c.controls {
		if id != character && bc.Bone() != scene.Nil {
			bc.DeselectBone()
		}
	}
	if character == scene.Nil {
		return
	}
	if bc := c.For(character); bc.Bone() != bone {
		bc.SelectedBone(bone, boneKey)
	}
}

// Active returns the control with an attached bone, or nil.
func (c *BoneControls) Active() *BoneControl {
	for _, bc := range c.controls {
		if bc.Bone() != scene.Nil && bc.Control() != nil {
			return bc
		}
	}
	return nil
}

// SetCamera retargets every control.
func (c *BoneControls) SetCamera(cam camera.Camera) {
	c.cam = cam
	for _, bc := range c.controls {
		bc.SetCamera(cam)
	}
}

// Update follows bones and drops controls of characters that left the scene.
func (c *BoneControls) Update() {
	for id, bc := range c.controls {
		if !c.g.Attached(id) {
			bc.DeselectBone()
			delete(c.controls, id)
			continue
		}
		bc.Update()
	}
}
