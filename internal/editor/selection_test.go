package editor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/scene"
)

func TestPressOnEmptySelectsActiveCamera(t *testing.T) {
	g := scene.NewGraph()
	addObject(t, g, "box", mgl32.Vec3{})
	s := newFakeStore("box")
	s.bone = "node-7"
	a := newTestArbiter(g, s, frontCamera(0), Options{SelectOnPointerDown: true})

	a.PointerDown(at(2, 2))
	assert.Equal(t, []string{"select:cam", "bone:"}, s.calls)
	assert.Nil(t, a.Session())
	assert.Empty(t, a.LastDownID())
}

func TestEmptyPressAndReleaseSelectsNothingOnRelease(t *testing.T) {
	g := scene.NewGraph()
	addObject(t, g, "box", mgl32.Vec3{})
	s := newFakeStore()
	a := newTestArbiter(g, s, frontCamera(0), Options{})

	a.PointerDown(at(2, 2))
	pressCalls := len(s.calls)
	a.PointerUp(at(2, 2))
	assert.Len(t, s.calls, pressCalls)
}

func TestPressSelectsAndStartsDrag(t *testing.T) {
	g := scene.NewGraph()
	box, _ := addObject(t, g, "box", mgl32.Vec3{})
	s := newFakeStore()
	a := newTestArbiter(g, s, frontCamera(0), Options{SelectOnPointerDown: true})

	var editing []bool
	a.OnEditing = func(v bool) { editing = append(editing, v) }

	a.PointerDown(at(50, 50))
	assert.Equal(t, []string{"bone:", "select:box", "undo-start"}, s.calls)
	require.NotNil(t, a.Session())
	assert.Equal(t, box.ID, a.Session().Target)
	assert.False(t, a.Session().IsBoneControl)

	a.PointerMove(at(60, 50))
	require.Len(t, s.updates, 1)
	assert.Greater(t, s.updates[0]["box"].X, float32(0))

	a.PointerUp(at(60, 50))
	assert.Equal(t, "undo-end", s.calls[len(s.calls)-1])
	assert.Nil(t, a.Session())
	assert.Equal(t, []bool{true, false}, editing)
}

func TestPressWithOpenSessionClosesItsUndoGroup(t *testing.T) {
	g := scene.NewGraph()
	addObject(t, g, "box", mgl32.Vec3{})
	s := newFakeStore()
	a := newTestArbiter(g, s, frontCamera(0), Options{SelectOnPointerDown: true})

	var editing []bool
	a.OnEditing = func(v bool) { editing = append(editing, v) }

	a.PointerDown(at(50, 50))
	a.PointerDown(at(50, 50)) // release of the first press never arrived
	a.PointerUp(at(50, 50))

	assert.Equal(t, []string{
		"bone:", "select:box", "undo-start",
		"bone:", "undo-end", "undo-start",
		"undo-end",
	}, s.calls)
	assert.Nil(t, a.Session())
	assert.Equal(t, []bool{true, false, true, false}, editing)
}

func TestDragMovesAllSelectionsInOneBatch(t *testing.T) {
	g := scene.NewGraph()
	addObject(t, g, "A", mgl32.Vec3{})
	addObject(t, g, "B", mgl32.Vec3{2, 0, 1})
	s := newFakeStore("A", "B")
	cam := frontCamera(0)
	a := newTestArbiter(g, s, cam, Options{SelectOnPointerDown: true})

	a.PointerDown(at(50, 50))
	assert.Equal(t, []string{"bone:", "undo-start"}, s.calls, "already selected, no selection call")
	session := a.Session()
	require.NotNil(t, session)

	start, ok := camera.ScreenRay(cam, 50, 50, 100, 100).IntersectPlane(session.Plane)
	require.True(t, ok)
	offA, offB := session.Offsets["A"], session.Offsets["B"]
	assert.Less(t, offA.Sub(start).Len(), float32(1e-5))
	assert.Less(t, offB.Sub(start.Sub(mgl32.Vec3{2, 0, 1})).Len(), float32(1e-5))

	a.PointerMove(at(70, 40))
	q, ok := camera.ScreenRay(cam, 70, 40, 100, 100).IntersectPlane(session.Plane)
	require.True(t, ok)

	require.Len(t, s.updates, 1)
	batch := s.updates[0]
	require.Len(t, batch, 2)
	assert.InDelta(t, q.X()-offA.X(), batch["A"].X, 1e-5)
	assert.InDelta(t, q.Z()-offA.Z(), batch["A"].Y, 1e-5)
	assert.InDelta(t, q.X()-offB.X(), batch["B"].X, 1e-5)
	assert.InDelta(t, q.Z()-offB.Z(), batch["B"].Y, 1e-5)
	assert.True(t, session.Moved)
}

func TestShiftClickSelection(t *testing.T) {
	g := scene.NewGraph()
	addObject(t, g, "box", mgl32.Vec3{})
	shift := PointerEvent{X: 50, Y: 50, Shift: true, OnViewport: true}

	s := newFakeStore("cam")
	a := newTestArbiter(g, s, frontCamera(0), Options{SelectOnPointerDown: true})
	a.PointerDown(shift)
	assert.Contains(t, s.calls, "select:box")
	assert.NotContains(t, s.calls, "toggle:box")
	assert.Equal(t, []string{"box"}, s.selections)

	s = newFakeStore("other")
	a = newTestArbiter(g, s, frontCamera(0), Options{SelectOnPointerDown: true})
	a.PointerDown(shift)
	assert.Contains(t, s.calls, "toggle:box")
	assert.Equal(t, []string{"other", "box"}, s.selections)

	s = newFakeStore("box")
	a = newTestArbiter(g, s, frontCamera(0), Options{SelectOnPointerDown: true})
	a.PointerDown(shift)
	assert.Contains(t, s.calls, "toggle:box")
	assert.Empty(t, s.selections)
}

func TestBoneHitSelectsBoneAndStartsBoneDrag(t *testing.T) {
	g := scene.NewGraph()
	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	spine := g.BoneByName(hero.ID, "Spine")
	s := newFakeStore("hero")
	a := newTestArbiter(g, s, frontCamera(1.26), Options{SelectOnPointerDown: true})

	a.PointerDown(at(50, 50))
	assert.Equal(t, []string{"select:hero", "bone:" + spine.String(), "undo-start"}, s.calls)
	require.NotNil(t, a.Session())
	assert.True(t, a.Session().IsBoneControl)
	assert.Equal(t, hero.ID, a.Session().Target)

	a.PointerMove(at(70, 50))
	assert.Empty(t, s.updates, "bone drags never move the character")
}

func TestBoneControlHitSelectsItsBone(t *testing.T) {
	g := scene.NewGraph()
	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	spine := g.BoneByName(hero.ID, "Spine")
	handle := g.Create(scene.FormMesh, "boneControl")
	handle.Tag = scene.TagBoneControl
	handle.Links.Character = hero.ID
	handle.Links.Bone = spine
	require.NoError(t, g.Add(g.Root(), handle.ID))

	a := newTestArbiter(g, newFakeStore(), frontCamera(1.26), Options{})
	target, isControlPoint, bone := a.pressTarget([]Intersection{{Object: handle.ID}})
	assert.Equal(t, hero.ID, target)
	assert.False(t, isControlPoint)
	assert.Equal(t, spine, bone)
}

func TestControlPointStandsForCharacter(t *testing.T) {
	g := scene.NewGraph()
	hero, err := g.AddCharacter(scene.CharacterOptions{EntityID: "hero", ControlPoints: true})
	require.NoError(t, err)
	var cp scene.NodeID
	for _, id := range g.Children(g.Root()) {
		if g.Node(id).Tag == scene.TagControlPoint {
			cp = id
			break
		}
	}
	require.NotEqual(t, scene.Nil, cp)
	_, body := addObject(t, g, "box", mgl32.Vec3{})

	a := newTestArbiter(g, newFakeStore(), frontCamera(1), Options{})
	target, isControlPoint, bone := a.pressTarget([]Intersection{{Object: body.ID}, {Object: cp}})
	assert.Equal(t, hero.ID, target, "control points take precedence over nearer hits")
	assert.True(t, isControlPoint)
	assert.Equal(t, scene.Nil, bone)
}

func TestControlPointSuppressesBoneSelection(t *testing.T) {
	g := scene.NewGraph()
	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	cp := g.Create(scene.FormMesh, "controlPoint")
	cp.Tag = scene.TagControlPoint
	cp.Mesh = scene.Sphere(0.2, 8, 6)
	cp.Position = mgl32.Vec3{0, 1.26, 0.5}
	cp.Links.Character = hero.ID
	require.NoError(t, g.Add(g.Root(), cp.ID))

	s := newFakeStore("hero")
	a := newTestArbiter(g, s, frontCamera(1.26), Options{SelectOnPointerDown: true})
	a.PointerDown(at(50, 50))
	assert.Equal(t, []string{"bone:", "undo-start"}, s.calls)
	require.NotNil(t, a.Session())
	assert.Equal(t, hero.ID, a.Session().Target)
	assert.False(t, a.Session().IsBoneControl)
}

func TestIKSuspendsCharacterDrag(t *testing.T) {
	g := scene.NewGraph()
	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	s := newFakeStore("other", "hero")
	a := newTestArbiter(g, s, frontCamera(1.26), Options{SelectOnPointerDown: true})

	a.PointerDown(at(50, 50))
	require.NotNil(t, a.Session())
	require.False(t, a.Session().IsBoneControl)

	hero.IK.HipsMoving = true
	a.PointerMove(at(60, 50))
	assert.Empty(t, s.updates)

	hero.IK.HipsMoving = false
	hero.IK.HipsMouseDown = true
	a.PointerMove(at(60, 50))
	assert.Empty(t, s.updates)

	hero.IK.HipsMouseDown = false
	a.PointerMove(at(60, 50))
	require.Len(t, s.updates, 1)
	assert.Contains(t, s.updates[0], "hero")
}

func TestDeferredClickCommitsOnMatchingRelease(t *testing.T) {
	g := scene.NewGraph()
	addObject(t, g, "box", mgl32.Vec3{})
	s := newFakeStore()
	a := newTestArbiter(g, s, frontCamera(0), Options{})

	a.PointerDown(at(50, 50))
	assert.Equal(t, []string{"bone:"}, s.calls)
	assert.Equal(t, "box", a.LastDownID())
	assert.Nil(t, a.Session(), "unselected targets do not drag before release")

	a.PointerUp(at(50, 50))
	assert.Equal(t, []string{"bone:", "select:box", "bone:"}, s.calls)
	assert.Empty(t, a.LastDownID())
}

func TestDeferredClickNeedsSameTarget(t *testing.T) {
	g := scene.NewGraph()
	addObject(t, g, "box", mgl32.Vec3{})
	s := newFakeStore()
	a := newTestArbiter(g, s, frontCamera(0), Options{})

	a.PointerDown(at(50, 50))
	a.PointerUp(at(2, 2))
	assert.Equal(t, []string{"bone:"}, s.calls)

	a.PointerDown(at(50, 50))
	a.PointerUp(PointerEvent{X: 50, Y: 50})
	assert.Equal(t, []string{"bone:", "bone:"}, s.calls, "releases off the viewport never select")
}

func TestDeferredClickCancelledByDrag(t *testing.T) {
	g := scene.NewGraph()
	addObject(t, g, "box", mgl32.Vec3{})
	s := newFakeStore("box")
	a := newTestArbiter(g, s, frontCamera(0), Options{})
	shift := PointerEvent{X: 50, Y: 50, Shift: true, OnViewport: true}

	a.PointerDown(shift)
	require.NotNil(t, a.Session())
	a.PointerMove(PointerEvent{X: 52, Y: 50, Shift: true, OnViewport: true})
	a.PointerUp(PointerEvent{X: 52, Y: 50, Shift: true, OnViewport: true})
	assert.Equal(t, []string{"bone:", "undo-start", "update", "undo-end"}, s.calls)
	assert.Equal(t, []string{"box"}, s.selections)
}

func TestReleaseOnGizmoOrBoneControlNeverSelects(t *testing.T) {
	g := scene.NewGraph()
	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	bc := NewBoneControl(g, hero.ID, frontCamera(1), nil)
	var handle scene.NodeID
	bc.Control().Traverse(func(n *scene.Node) {
		if n.Form == scene.FormGizmo {
			handle = n.ID
		}
	})
	tagged := g.Create(scene.FormMesh, "boneControl")
	tagged.Tag = scene.TagBoneControl
	tagged.Links.Character = hero.ID
	require.NoError(t, g.Add(g.Root(), tagged.ID))

	a := newTestArbiter(g, newFakeStore(), frontCamera(1), Options{})
	assert.Empty(t, a.releaseTarget([]Intersection{{Object: handle}}))
	assert.Empty(t, a.releaseTarget([]Intersection{{Object: tagged.ID}}))
	assert.Equal(t, "hero", a.releaseTarget([]Intersection{{Object: g.FindSkinnedMesh(hero.ID, nil)}}))
}

func TestAmbiguousTargetIsTreatedAsEmpty(t *testing.T) {
	g := scene.NewGraph()
	stray := g.Create(scene.FormGroup, "stray")
	stray.Tag = scene.TagControlTarget
	require.NoError(t, g.Add(g.Root(), stray.ID))
	mesh := g.Create(scene.FormMesh, "stray_mesh")
	mesh.Mesh = scene.Box(1, 1, 1)
	require.NoError(t, g.Add(stray.ID, mesh.ID))

	s := newFakeStore("x")
	a := newTestArbiter(g, s, frontCamera(0), Options{SelectOnPointerDown: true})
	a.PointerDown(at(50, 50))
	assert.Equal(t, []string{"select:cam", "bone:"}, s.calls)
	assert.Nil(t, a.Session())
}

func TestIconModePressPrefersNearestCharacter(t *testing.T) {
	g, chars, cam := iconScene(t)
	s := newFakeStore()
	a := newTestArbiter(g, s, cam, Options{SelectOnPointerDown: true, UseIcons: true})

	a.PointerDown(at(50, 50))
	assert.Equal(t, []string{"bone:", "select:" + chars[2].EntityID, "undo-start"}, s.calls)
	require.NotNil(t, a.Session())
	assert.InDelta(t, 1, a.Session().Plane.Normal.Y(), 1e-5, "icon drags move on the ground plane")
}

func TestGizmoPressRotatesSelectedBone(t *testing.T) {
	g := scene.NewGraph()
	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	spine := g.BoneByName(hero.ID, "Spine")
	spineY := g.WorldPosition(spine).Y()
	cam := frontCamera(spineY)

	s := newFakeStore("hero")
	a := newTestArbiter(g, s, cam, Options{SelectOnPointerDown: true})
	var updated []string
	a.bones.SetUpdateCharacter(func(character scene.NodeID, bone string, _ mgl32.Quat) {
		assert.Equal(t, hero.ID, character)
		updated = append(updated, bone)
	})
	a.bones.Sync(spine.String())
	require.NotNil(t, a.bones.Active())

	// The Z ring has a world radius of 0.5 at five units, 8.66 pixels on a
	// 100 pixel viewport with a 60 degree field of view.
	const ring = 8.66
	a.PointerDown(at(50+ring, 50))
	assert.Empty(t, s.calls, "gizmo presses bypass selection")
	assert.True(t, g.Node(spine).Bone.IsRotated)

	a.PointerMove(at(50, 50-ring))
	a.PointerUp(at(50, 50-ring))
	assert.Empty(t, s.calls)
	assert.Equal(t, []string{"Spine"}, updated)
	assert.False(t, g.Node(spine).Bone.IsRotated)
	assert.True(t, g.Node(spine).Bone.IsRotationChanged)

	got := g.Node(spine).Rotation.Rotate(mgl32.Vec3{1, 0, 0})
	assert.Less(t, got.Sub(mgl32.Vec3{0, 1, 0}).Len(), float32(1e-2), "got %v", got)
}
