package editor

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/ray"
	"github.com/Faultbox/shotgen/internal/scene"
)

// DragSession is the transient state of one drag gesture.
type DragSession struct {
	Target scene.NodeID
	// Plane passes through the target and faces the camera.
	Plane ray.Plane
	// Offsets maps each selected entity to the vector from its position to
	// the pointer's plane intersection at drag start.
	Offsets map[string]mgl32.Vec3
	// IsBoneControl marks drags started on a bone. They never move entities.
	IsBoneControl bool
	// Moved is set once the drag produced a position update.
	Moved bool
}

// prepareDrag builds the drag plane and captures one offset per selected
// entity. Offsets are zero when the pointer ray misses the plane.
func (a *Arbiter) prepareDrag(target scene.NodeID, r ray.Ray, isBoneControl bool) *DragSession {
	var normal mgl32.Vec3
	if a.opts.UseIcons {
		normal = a.cam.Position().Normalize()
	} else {
		normal = a.cam.Direction()
	}
	d := &DragSession{
		Target:        target,
		Plane:         ray.PlaneFromNormalAndPoint(normal, a.g.WorldPosition(target)),
		Offsets:       make(map[string]mgl32.Vec3),
		IsBoneControl: isBoneControl,
	}
	hit, ok := r.IntersectPlane(d.Plane)
	for _, sel := range a.store.Selections() {
		if !ok {
			d.Offsets[sel] = mgl32.Vec3{}
			continue
		}
		child := a.g.Node(a.g.FindEntity(sel))
		if child == nil {
			continue
		}
		d.Offsets[sel] = hit.Sub(child.Position)
	}
	return d
}

// drag moves every selected entity with the pointer in one store update.
func (a *Arbiter) drag(r ray.Ray) {
	hit, ok := r.IntersectPlane(a.session.Plane)
	if !ok {
		return
	}
	changes := make(map[string]Position)
	for _, sel := range a.store.Selections() {
		offset, ok := a.session.Offsets[sel]
		if !ok {
			continue
		}
		p := hit.Sub(offset)
		changes[sel] = Position{X: p.X(), Y: p.Z()}
	}
	if len(changes) == 0 {
		return
	}
	a.store.UpdateObjects(changes)
	a.session.Moved = true
}

// startDrag opens an undo group and begins a drag session. A session left
// open by a lost release is closed first.
func (a *Arbiter) startDrag(target scene.NodeID, r ray.Ray, isBoneControl bool) {
	a.endDrag()
	a.store.UndoGroupStart()
	a.session = a.prepareDrag(target, r, isBoneControl)
	a.setEditing(true)
}

// endDrag closes the session and its undo group. It reports whether the
// session had moved anything.
func (a *Arbiter) endDrag() bool {
	if a.session == nil {
		return false
	}
	moved := a.session.Moved
	a.session = nil
	a.store.UndoGroupEnd()
	a.setEditing(false)
	return moved
}

// dragSuspended reports whether the target currently refuses position updates.
func (a *Arbiter) dragSuspended() bool {
	n := a.g.Node(a.session.Target)
	if n == nil {
		return true
	}
	if n.Tag != scene.TagCharacter {
		return false
	}
	return n.IK.Busy() || a.session.IsBoneControl
}
