package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/editor"
)

func newTestStore() *Store {
	return New(State{
		Objects: map[string]Object{
			"a":   {ID: "a", Type: "object", X: 1, Z: 2},
			"b":   {ID: "b", Type: "character"},
			"cam": {ID: "cam", Type: "camera"},
		},
		ActiveCamera: "cam",
	}, zap.NewNop())
}

func TestSelection(t *testing.T) {
	s := newTestStore()

	s.SelectObject("a")
	assert.Equal(t, []string{"a"}, s.Selections())

	s.SelectObjectToggle("b")
	assert.Equal(t, []string{"a", "b"}, s.Selections())
	s.SelectObjectToggle("a")
	assert.Equal(t, []string{"b"}, s.Selections())

	s.SelectObject("")
	assert.Empty(t, s.Selections())

	s.SelectBone("node-4")
	assert.Equal(t, "node-4", s.SelectedBone())
	s.SelectBone("")
	assert.Empty(t, s.SelectedBone())
	assert.Equal(t, "cam", s.ActiveCamera())
}

func TestSelectionsAreCopies(t *testing.T) {
	s := newTestStore()
	s.SelectObject("a")
	sel := s.Selections()
	sel[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.Selections())
}

func TestUpdateObjectsIsOneChange(t *testing.T) {
	s := newTestStore()
	var seen []State
	s.Subscribe(func(st State, a Action) {
		assert.Equal(t, ActionUpdateObjects, a.Type)
		seen = append(seen, st)
	})

	s.UpdateObjects(map[string]editor.Position{
		"a":       {X: 5, Y: 6},
		"b":       {X: -1, Y: -2},
		"missing": {X: 9, Y: 9},
	})
	require.Len(t, seen, 1)
	a, b := seen[0].Objects["a"], seen[0].Objects["b"]
	assert.Equal(t, float32(5), a.X)
	assert.Equal(t, float32(6), a.Z)
	assert.Equal(t, float32(-1), b.X)
	assert.Equal(t, float32(-2), b.Z)
	_, ok := s.Object("missing")
	assert.False(t, ok)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s := newTestStore()
	var order []string
	s.Subscribe(func(State, Action) { order = append(order, "first") })
	unsubscribe := s.Subscribe(func(State, Action) { order = append(order, "second") })

	s.SelectObject("a")
	unsubscribe()
	s.SelectObject("b")
	assert.Equal(t, []string{"first", "second", "first"}, order)
}

func TestUndoGroupCollapsesDrag(t *testing.T) {
	s := newTestStore()
	s.UndoGroupStart()
	assert.True(t, s.InUndoGroup())
	s.UpdateObjects(map[string]editor.Position{"a": {X: 3, Y: 3}})
	s.UpdateObjects(map[string]editor.Position{"a": {X: 4, Y: 4}})
	assert.False(t, s.Undo(), "no undo while a group is open")
	s.UndoGroupEnd()
	assert.False(t, s.InUndoGroup())

	o, _ := s.Object("a")
	assert.Equal(t, float32(4), o.X)

	require.True(t, s.Undo())
	o, _ = s.Object("a")
	assert.Equal(t, float32(1), o.X)
	assert.Equal(t, float32(2), o.Z)
	assert.False(t, s.Undo())
}

func TestUngroupedUpdatesUndoOneByOne(t *testing.T) {
	s := newTestStore()
	s.UpdateObjects(map[string]editor.Position{"a": {X: 3}})
	s.UpdateObjects(map[string]editor.Position{"a": {X: 4}})

	require.True(t, s.Undo())
	o, _ := s.Object("a")
	assert.Equal(t, float32(3), o.X)
	require.True(t, s.Undo())
	o, _ = s.Object("a")
	assert.Equal(t, float32(1), o.X)
}

func TestUnbalancedGroupEndIsIgnored(t *testing.T) {
	s := newTestStore()
	s.UndoGroupEnd()
	assert.False(t, s.InUndoGroup())

	s.UndoGroupStart()
	s.UndoGroupStart()
	s.UndoGroupEnd()
	assert.True(t, s.InUndoGroup())
	s.UndoGroupEnd()
	assert.False(t, s.InUndoGroup())
}

func TestAddRemoveObject(t *testing.T) {
	s := newTestStore()
	s.AddObject(Object{ID: "light", Type: "light", Visible: true})
	o, ok := s.Object("light")
	require.True(t, ok)
	assert.Equal(t, "light", o.Type)

	s.SelectObject("light")
	s.RemoveObject("light")
	_, ok = s.Object("light")
	assert.False(t, ok)
	assert.Empty(t, s.Selections())

	s.SetActiveCamera("cam2")
	assert.Equal(t, "cam2", s.ActiveCamera())
	assert.Equal(t, "SET_ACTIVE_CAMERA", ActionSetActiveCamera.String())
}

func TestStateIsACopy(t *testing.T) {
	s := newTestStore()
	st := s.State()
	st.Objects["a"] = Object{ID: "a", X: 100}
	o, _ := s.Object("a")
	assert.Equal(t, float32(1), o.X)
}
