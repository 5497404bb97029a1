// Package gizmo implements an interactive transform control: axis handles
// living in the scene graph that rotate or translate an attached node as
// pointer rays drag them.
package gizmo

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/engine/ray"
	"github.com/Faultbox/shotgen/internal/scene"
)

// Mode selects what dragging a handle does.
type Mode int

const (
	ModeRotate Mode = iota
	ModeTranslate
)

// Event is a drag lifecycle notification.
type Event int

const (
	// EventMouseDown fires when a drag starts on a handle.
	EventMouseDown Event = iota
	// EventMoved fires after every drag step that changed the target.
	EventMoved
	// EventMouseUp fires when the drag ends.
	EventMouseUp
)

func (e Event) String() string {
	switch e {
	case EventMouseDown:
		return "transformMouseDown"
	case EventMoved:
		return "transformMoved"
	case EventMouseUp:
		return "transformMouseUp"
	}
	return "unknown"
}

// ListenerID identifies a registered listener.
type ListenerID uint64

type listener struct {
	event Event
	fn    func()
}

const (
	ringRadius   float32 = 1.0
	ringTube     float32 = 0.04
	ringHitWidth float32 = 0.15
	arrowLength  float32 = 1.0
	arrowHitDist float32 = 0.12
)

var (
	axes      = [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	axisNames = [3]string{"X", "Y", "Z"}
	colors    = [3]mgl32.Vec4{{0.9, 0.2, 0.2, 1}, {0.2, 0.85, 0.2, 1}, {0.25, 0.4, 1, 1}}
	// ringRotations turn the Z-axis torus onto each axis.
	ringRotations = [3]mgl32.Quat{
		mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}),
		mgl32.QuatRotate(-math.Pi/2, mgl32.Vec3{1, 0, 0}),
		mgl32.QuatIdent(),
	}
)

// TransformControl is a gizmo made of three axis handles. Its nodes are
// created detached; AddToScene parents them under the graph root.
//
// The node layout is root group > "gizmo" group > one handle per axis, so a
// handle's grandparent is always the control root.
type TransformControl struct {
	g      *scene.Graph
	root   scene.NodeID
	picker scene.NodeID
	rings  [3]scene.NodeID
	arrows [3]scene.NodeID

	mode         Mode
	rotationOnly bool
	size         float32
	cam          camera.Camera
	target       scene.NodeID

	listeners map[ListenerID]listener
	nextID    ListenerID

	dragging  bool
	axis      int
	dragPlane ray.Plane
	center    mgl32.Vec3
	startDir  mgl32.Vec3
	startT    float32
	startRot  mgl32.Quat
	startPos  mgl32.Vec3
	disposed  bool
}

// New builds a control in g viewed through cam.
func New(g *scene.Graph, cam camera.Camera) *TransformControl {
	c := &TransformControl{
		g:         g,
		cam:       cam,
		size:      1,
		axis:      -1,
		listeners: make(map[ListenerID]listener),
	}
	root := g.Create(scene.FormGroup, "TransformControl")
	root.Visible = false
	picker := g.Create(scene.FormGroup, "gizmo")
	_ = g.Add(root.ID, picker.ID)
	c.root, c.picker = root.ID, picker.ID

	for i := range axes {
		ring := g.Create(scene.FormGizmo, axisNames[i])
		ring.Mesh = scene.Ring(ringRadius, ringTube, 8, 32)
		ring.Rotation = ringRotations[i]
		ring.Color = colors[i]
		_ = g.Add(picker.ID, ring.ID)
		c.rings[i] = ring.ID

		arrow := g.Create(scene.FormGizmo, axisNames[i])
		arrow.Mesh = &scene.Mesh{}
		arrow.Mesh.AppendBox(axes[i].Mul(arrowLength/2), axes[i].Mul(arrowLength).Add(mgl32.Vec3{0.04, 0.04, 0.04}))
		arrow.Color = colors[i]
		arrow.Visible = false
		_ = g.Add(picker.ID, arrow.ID)
		c.arrows[i] = arrow.ID
	}
	return c
}

// Root returns the control's top node.
func (c *TransformControl) Root() scene.NodeID {
	return c.root
}

// Traverse visits every node of the control.
func (c *TransformControl) Traverse(fn func(*scene.Node)) {
	c.g.Traverse(c.root, func(n *scene.Node) bool {
		fn(n)
		return true
	})
}

// Handle reports whether id is one of the control's axis handles.
func (c *TransformControl) Handle(id scene.NodeID) bool {
	for i := range axes {
		if c.rings[i] == id || c.arrows[i] == id {
			return true
		}
	}
	return false
}

// SetMode switches between rotating and translating. Rotation-only controls
// ignore requests to translate.
func (c *TransformControl) SetMode(m Mode) {
	if c.rotationOnly && m != ModeRotate {
		return
	}
	c.mode = m
	for i := range axes {
		c.g.Node(c.rings[i]).Visible = m == ModeRotate
		c.g.Node(c.arrows[i]).Visible = m == ModeTranslate
	}
}

// Mode returns the current mode.
func (c *TransformControl) Mode() Mode {
	return c.mode
}

// SetRotationOnly locks the control into ModeRotate.
func (c *TransformControl) SetRotationOnly(v bool) {
	c.rotationOnly = v
	if v {
		c.SetMode(ModeRotate)
	}
}

// SetSize sets the on-screen size factor.
func (c *TransformControl) SetSize(s float32) {
	c.size = s
	c.UpdateMatrixWorld()
}

// Size returns the on-screen size factor.
func (c *TransformControl) Size() float32 {
	return c.size
}

// Attach binds the control to a node.
func (c *TransformControl) Attach(target scene.NodeID) {
	c.target = target
	c.g.Node(c.root).Visible = target != scene.Nil
	c.UpdateMatrixWorld()
}

// Detach unbinds the control and cancels any drag without notifying listeners.
func (c *TransformControl) Detach() {
	c.target = scene.Nil
	c.dragging = false
	c.axis = -1
	if n := c.g.Node(c.root); n != nil {
		n.Visible = false
	}
}

// Object returns the attached node, or Nil.
func (c *TransformControl) Object() scene.NodeID {
	return c.target
}

// AddToScene parents the control under the graph root.
func (c *TransformControl) AddToScene() error {
	return c.g.Add(c.g.Root(), c.root)
}

// RemoveFromScene detaches the control from the graph root.
func (c *TransformControl) RemoveFromScene() {
	c.g.Remove(c.root)
}

// InScene reports whether the control is attached to the graph root.
func (c *TransformControl) InScene() bool {
	return c.g.Parent(c.root) == c.g.Root()
}

// AddEventListener registers fn for ev and returns a handle for removal.
func (c *TransformControl) AddEventListener(ev Event, fn func()) ListenerID {
	c.nextID++
	c.listeners[c.nextID] = listener{event: ev, fn: fn}
	return c.nextID
}

// RemoveEventListener unregisters a listener. Unknown handles are ignored.
func (c *TransformControl) RemoveEventListener(id ListenerID) {
	delete(c.listeners, id)
}

// ListenerCount returns the number of registered listeners.
func (c *TransformControl) ListenerCount() int {
	return len(c.listeners)
}

func (c *TransformControl) emit(ev Event) {
	ids := make([]ListenerID, 0, len(c.listeners))
	for id, l := range c.listeners {
		if l.event == ev {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		if l, ok := c.listeners[id]; ok {
			l.fn()
		}
	}
}

// SetCamera changes the camera used for sizing and drag planes.
func (c *TransformControl) SetCamera(cam camera.Camera) {
	c.cam = cam
}

// Camera returns the current camera.
func (c *TransformControl) Camera() camera.Camera {
	return c.cam
}

// UpdateMatrixWorld moves the control onto the attached node and scales it
// so that it keeps a constant size on screen.
func (c *TransformControl) UpdateMatrixWorld() {
	root := c.g.Node(c.root)
	if root == nil || c.target == scene.Nil || !c.g.Has(c.target) {
		return
	}
	pos := c.g.WorldPosition(c.target)
	root.Position = pos
	root.Rotation = mgl32.QuatIdent()
	s := c.screenScale(pos)
	root.Scale = mgl32.Vec3{s, s, s}
}

func (c *TransformControl) screenScale(pos mgl32.Vec3) float32 {
	if c.cam == nil {
		return c.size
	}
	if o, ok := c.cam.(*camera.Ortho); ok {
		return o.Height * c.size / 2
	}
	return c.cam.Position().Sub(pos).Len() * c.size / 2
}

// PickAxis returns the handle axis under r, or -1.
func (c *TransformControl) PickAxis(r ray.Ray) int {
	root := c.g.Node(c.root)
	if root == nil || !root.Visible || c.target == scene.Nil {
		return -1
	}
	center, scale := root.Position, root.Scale.X()
	best, bestDist := -1, float32(math.MaxFloat32)
	for i, axis := range axes {
		var d float32
		if c.mode == ModeRotate {
			p, ok := r.IntersectPlane(ray.PlaneFromNormalAndPoint(axis, center))
			if !ok {
				continue
			}
			d = float32(math.Abs(float64(p.Sub(center).Len() - ringRadius*scale)))
			if d > ringHitWidth*scale {
				continue
			}
		} else {
			distSq, _ := r.DistanceSqToSegment(center, center.Add(axis.Mul(arrowLength*scale)))
			d = float32(math.Sqrt(float64(distSq)))
			if d > arrowHitDist*scale {
				continue
			}
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Dragging reports whether a handle drag is in progress.
func (c *TransformControl) Dragging() bool {
	return c.dragging
}

// PointerDown starts a drag when r hits a handle. It reports whether the
// control consumed the event.
func (c *TransformControl) PointerDown(r ray.Ray) bool {
	axis := c.PickAxis(r)
	if axis < 0 {
		return false
	}
	return c.BeginDrag(axis, r)
}

// BeginDrag starts dragging the given axis handle, as when the handle was
// already identified by an external picker.
func (c *TransformControl) BeginDrag(axis int, r ray.Ray) bool {
	target := c.g.Node(c.target)
	if target == nil || axis < 0 || axis > 2 {
		return false
	}
	c.UpdateMatrixWorld()
	center := c.g.Node(c.root).Position
	c.center = center
	c.axis = axis
	c.startRot = target.Rotation
	c.startPos = target.Position

	if c.mode == ModeRotate {
		c.dragPlane = ray.PlaneFromNormalAndPoint(axes[axis], center)
		p, ok := r.IntersectPlane(c.dragPlane)
		if !ok {
			return false
		}
		c.startDir = p.Sub(center)
	} else {
		c.dragPlane = c.axisPlane(axes[axis], center)
		p, ok := r.IntersectPlane(c.dragPlane)
		if !ok {
			return false
		}
		c.startT = p.Sub(center).Dot(axes[axis])
	}
	c.dragging = true
	c.emit(EventMouseDown)
	return true
}

// axisPlane contains axis and faces the camera as much as possible.
func (c *TransformControl) axisPlane(axis, center mgl32.Vec3) ray.Plane {
	view := mgl32.Vec3{0, 0, -1}
	if c.cam != nil {
		view = c.cam.Direction()
	}
	side := view.Cross(axis)
	normal := axis.Cross(side)
	if normal.Len() < 1e-6 {
		normal = view
	}
	return ray.PlaneFromNormalAndPoint(normal, center)
}

// PointerMove advances an active drag. It reports whether the target changed.
func (c *TransformControl) PointerMove(r ray.Ray) bool {
	if !c.dragging {
		return false
	}
	target := c.g.Node(c.target)
	if target == nil {
		c.dragging = false
		return false
	}
	p, ok := r.IntersectPlane(c.dragPlane)
	if !ok {
		return false
	}
	center := c.center
	axis := axes[c.axis]

	if c.mode == ModeRotate {
		cur := p.Sub(center)
		if cur.Len() < 1e-6 || c.startDir.Len() < 1e-6 {
			return false
		}
		angle := float32(math.Atan2(float64(c.startDir.Cross(cur).Dot(axis)), float64(c.startDir.Dot(cur))))
		// Rotate in world space: local' = parent⁻¹ · Δ · parent · local.
		_, parentRot, _ := c.g.WorldTransform(c.g.Parent(c.target))
		delta := mgl32.QuatRotate(angle, axis)
		target.Rotation = parentRot.Inverse().Mul(delta).Mul(parentRot).Mul(c.startRot).Normalize()
	} else {
		moved := axis.Mul(p.Sub(center).Dot(axis) - c.startT)
		parent := c.g.WorldMatrix(c.g.Parent(c.target))
		local := parent.Inv().Mul4x1(moved.Vec4(0)).Vec3()
		target.Position = c.startPos.Add(local)
		c.UpdateMatrixWorld()
	}
	c.emit(EventMoved)
	return true
}

// PointerUp ends an active drag. It reports whether a drag was ended.
func (c *TransformControl) PointerUp(ray.Ray) bool {
	if !c.dragging {
		return false
	}
	c.dragging = false
	c.emit(EventMouseUp)
	return true
}

// Dispose removes the control's nodes from the graph and drops all listeners.
// The control must not be used afterwards.
func (c *TransformControl) Dispose() {
	if c.disposed {
		return
	}
	c.Detach()
	c.g.Delete(c.root)
	c.listeners = make(map[ListenerID]listener)
	c.disposed = true
}
