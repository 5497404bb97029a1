package editor

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/engine/ray"
	"github.com/Faultbox/shotgen/internal/logger"
	"github.com/Faultbox/shotgen/internal/scene"
)

// PointerEvent is a pointer press, move or release in viewport pixels.
type PointerEvent struct {
	X, Y  float32
	Shift bool
	// OnViewport is false for releases that happen outside the viewport.
	OnViewport bool
}

// Options are the hot-reloadable arbiter settings.
type Options struct {
	// SelectOnPointerDown commits selection on press instead of release.
	SelectOnPointerDown bool
	// UseIcons picks against orthographic icons instead of the ID pass.
	UseIcons bool
}

// Arbiter decides, per pointer gesture, what gets selected and what gets
// dragged. It keeps no selection state of its own: every decision becomes a
// Store call.
type Arbiter struct {
	g        *scene.Graph
	resolver *Resolver
	store    Store
	bones    *BoneControls
	log      *zap.Logger

	cam           camera.Camera
	width, height int
	opts          Options

	lastDownID string
	session    *DragSession
	gizmoDrag  *BoneControl

	// OnEditing is called with true when a drag session starts and false
	// when it ends.
	OnEditing func(editing bool)
}

// NewArbiter creates an Arbiter. bones may be nil when bone editing is off.
func NewArbiter(resolver *Resolver, store Store, bones *BoneControls, log *zap.Logger) *Arbiter {
	if log == nil {
		log = logger.Named("editor")
	}
	return &Arbiter{
		g:        resolver.Graph(),
		resolver: resolver,
		store:    store,
		bones:    bones,
		log:      log,
	}
}

// SetCamera sets the viewing camera and retargets the bone gizmos.
func (a *Arbiter) SetCamera(cam camera.Camera) {
	a.cam = cam
	if a.bones != nil {
		a.bones.SetCamera(cam)
	}
}

// SetViewport sets the viewport size in pixels.
func (a *Arbiter) SetViewport(width, height int) {
	a.width, a.height = width, height
}

// SetOptions replaces the arbiter settings.
func (a *Arbiter) SetOptions(o Options) {
	a.opts = o
}

// Options returns the current settings.
func (a *Arbiter) Options() Options {
	return a.opts
}

// Session returns the active drag session, or nil.
func (a *Arbiter) Session() *DragSession {
	return a.session
}

// LastDownID returns the entity recorded on press for a deferred click.
func (a *Arbiter) LastDownID() string {
	return a.lastDownID
}

func (a *Arbiter) setEditing(editing bool) {
	if a.OnEditing != nil {
		a.OnEditing(editing)
	}
}

func (a *Arbiter) mode() Mode {
	if a.opts.UseIcons {
		return ModeIcons
	}
	return Mode3D
}

func (a *Arbiter) ray(ev PointerEvent) ray.Ray {
	return camera.ScreenRay(a.cam, ev.X, ev.Y, a.width, a.height)
}

func (a *Arbiter) intersects(ev PointerEvent) []Intersection {
	hits, err := a.resolver.GetIntersects(Pointer{X: ev.X, Y: ev.Y, Width: a.width, Height: a.height}, a.cam, a.mode())
	if err != nil {
		a.log.Warn("picking failed", zap.Error(err))
		return nil
	}
	return hits
}

// entity returns the store id of a resolved target, or "" when the target
// is not an entity.
func (a *Arbiter) entity(target scene.NodeID) string {
	if n := a.g.Node(target); n.IsEntity() {
		return n.EntityID
	}
	return ""
}

// PointerDown handles a press on the viewport.
func (a *Arbiter) PointerDown(ev PointerEvent) {
	if a.cam == nil {
		return
	}
	r := a.ray(ev)

	if !a.opts.UseIcons && a.bones != nil {
		if bc := a.bones.Active(); bc != nil && bc.Control().PointerDown(r) {
			a.gizmoDrag = bc
			return
		}
	}

	hits := a.intersects(ev)
	target, isControlPoint, boneControl := a.pressTarget(hits)
	id := a.entity(target)
	if id == "" {
		if len(hits) > 0 {
			a.log.Debug("press target not resolvable, treated as empty", zap.Stringer("object", hits[0].Object))
		}
		a.endDrag()
		a.lastDownID = ""
		a.store.SelectObject(a.store.ActiveCamera())
		a.store.SelectBone("")
		return
	}

	selections := a.store.Selections()
	shouldDrag := false
	if len(selections) > 0 {
		if !a.opts.UseIcons && a.g.Node(target).Tag == scene.TagCharacter &&
			len(selections) == 1 && selections[0] == id && !isControlPoint {
			if boneControl != scene.Nil {
				a.store.SelectBone(boneControl.String())
				a.startDrag(target, r, true)
				return
			}
			if bones := a.resolver.BoneHits(target, r); len(bones) > 0 {
				a.store.SelectObject(id)
				a.lastDownID = ""
				a.store.SelectBone(bones[0].Bone.String())
				a.startDrag(target, r, true)
				return
			}
		}
		if slices.Contains(selections, id) {
			shouldDrag = true
		}
	}

	a.store.SelectBone("")

	if a.opts.SelectOnPointerDown {
		a.applySelection(id, ev.Shift, selections)
		shouldDrag = true
	} else {
		a.lastDownID = id
	}

	if shouldDrag {
		a.startDrag(target, r, false)
	}
}

// pressTarget resolves the hits of a press. Control points and gizmo handles
// stand for their character and suppress bone selection; a bone control
// stands for its character and names the bone to select.
func (a *Arbiter) pressTarget(hits []Intersection) (target scene.NodeID, isControlPoint bool, bone scene.NodeID) {
	if len(hits) == 0 {
		return scene.Nil, false, scene.Nil
	}
	if a.opts.UseIcons {
		return a.resolver.Target(a.resolver.PreferCharacter(hits)), false, scene.Nil
	}

	hit := hits[0]
	for _, h := range hits {
		if n := a.g.Node(h.Object); n != nil && (n.Tag == scene.TagControlPoint || n.Form == scene.FormGizmo) {
			hit = h
			break
		}
	}
	raw := a.g.Node(hit.Object)
	if raw == nil {
		return scene.Nil, false, scene.Nil
	}
	target = a.resolver.Target(hit)
	tn := a.g.Node(target)

	switch {
	case raw.Tag == scene.TagControlPoint:
		return raw.Links.Character, true, scene.Nil
	case raw.Form == scene.FormGizmo:
		if tn != nil && tn.Tag == scene.TagCharacter {
			return target, true, scene.Nil
		}
		return raw.Links.Character, true, scene.Nil
	case tn != nil && tn.Tag == scene.TagBoneControl:
		return tn.Links.Character, false, tn.Links.Bone
	}
	return target, false, scene.Nil
}

// applySelection is the shift-toggle-or-replace rule. A shift click while
// only the active camera is selected replaces the selection.
func (a *Arbiter) applySelection(id string, shift bool, selections []string) {
	if shift {
		if len(selections) == 1 && selections[0] == a.store.ActiveCamera() {
			a.store.SelectObject(id)
		} else {
			a.store.SelectObjectToggle(id)
		}
		return
	}
	if !slices.Contains(selections, id) {
		a.store.SelectObject(id)
	}
}

// PointerMove handles pointer motion.
func (a *Arbiter) PointerMove(ev PointerEvent) {
	if a.cam == nil {
		return
	}
	if a.gizmoDrag != nil {
		if c := a.gizmoDrag.Control(); c != nil {
			c.PointerMove(a.ray(ev))
		}
		return
	}
	if a.session == nil || a.dragSuspended() {
		return
	}
	a.drag(a.ray(ev))
}

// PointerUp handles a release anywhere. A deferred click commits only when
// the release resolves to the entity recorded on press and the gesture did
// not move anything.
func (a *Arbiter) PointerUp(ev PointerEvent) {
	if a.gizmoDrag != nil {
		if c := a.gizmoDrag.Control(); c != nil && a.cam != nil {
			c.PointerUp(a.ray(ev))
		}
		a.gizmoDrag = nil
		a.lastDownID = ""
		return
	}

	moved := a.endDrag()

	if ev.OnViewport && !a.opts.SelectOnPointerDown && a.lastDownID != "" && !moved && a.cam != nil {
		if id := a.releaseTarget(a.intersects(ev)); id != "" && id == a.lastDownID {
			a.applySelection(id, ev.Shift, a.store.Selections())
			a.store.SelectBone("")
		}
	}
	a.lastDownID = ""
}

// releaseTarget resolves the entity under a release. Gizmo handles and bone
// controls never resolve.
func (a *Arbiter) releaseTarget(hits []Intersection) string {
	if len(hits) == 0 {
		return ""
	}
	hit := hits[0]
	if a.opts.UseIcons {
		hit = a.resolver.PreferCharacter(hits)
	}
	raw := a.g.Node(hit.Object)
	if raw == nil || raw.Form == scene.FormGizmo || raw.Tag == scene.TagBoneControl {
		return ""
	}
	return a.entity(a.resolver.Target(hit))
}
