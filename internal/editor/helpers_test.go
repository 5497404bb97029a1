package editor

import (
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/picking"
	"github.com/Faultbox/shotgen/internal/scene"
)

// fakeStore records every call the arbiter makes.
type fakeStore struct {
	selections   []string
	activeCamera string
	bone         string
	calls        []string
	updates      []map[string]Position
}

func newFakeStore(selections ...string) *fakeStore {
	return &fakeStore{selections: selections, activeCamera: "cam"}
}

func (s *fakeStore) SelectObject(id string) {
	s.calls = append(s.calls, "select:"+id)
	s.selections = []string{id}
}

func (s *fakeStore) SelectObjectToggle(id string) {
	s.calls = append(s.calls, "toggle:"+id)
	if i := slices.Index(s.selections, id); i >= 0 {
		s.selections = slices.Delete(s.selections, i, i+1)
		return
	}
	s.selections = append(s.selections, id)
}

func (s *fakeStore) SelectBone(id string) {
	s.calls = append(s.calls, "bone:"+id)
	s.bone = id
}

func (s *fakeStore) UpdateObjects(changes map[string]Position) {
	s.calls = append(s.calls, "update")
	s.updates = append(s.updates, changes)
}

func (s *fakeStore) UndoGroupStart() { s.calls = append(s.calls, "undo-start") }

func (s *fakeStore) UndoGroupEnd() { s.calls = append(s.calls, "undo-end") }

func (s *fakeStore) Selections() []string { return slices.Clone(s.selections) }

func (s *fakeStore) ActiveCamera() string { return s.activeCamera }

// addObject adds an object group holding one unit box mesh.
func addObject(t *testing.T, g *scene.Graph, id string, pos mgl32.Vec3) (group, mesh *scene.Node) {
	t.Helper()
	group = g.Create(scene.FormGroup, id)
	group.Tag = scene.TagObject
	group.EntityID = id
	group.Position = pos
	mesh = g.Create(scene.FormMesh, id+"_mesh")
	mesh.Mesh = scene.Box(1, 1, 1)
	require.NoError(t, g.Add(group.ID, mesh.ID))
	require.NoError(t, g.Add(g.Root(), group.ID))
	return group, mesh
}

func addCharacter(t *testing.T, g *scene.Graph, id string, pos mgl32.Vec3) *scene.Node {
	t.Helper()
	c, err := g.AddCharacter(scene.CharacterOptions{EntityID: id, Position: pos})
	require.NoError(t, err)
	return c
}

// frontCamera looks down -Z from five units away at height y.
func frontCamera(y float32) *camera.Perspective {
	return camera.NewPerspective(mgl32.Vec3{0, y, 5}, mgl32.Vec3{0, y, 0}, 60, 1)
}

func newTestResolver(g *scene.Graph) *Resolver {
	reg := picking.NewRegistry(g, picking.RegistryConfig{}, zap.NewNop())
	picker := picking.NewGPUPicker(reg, picking.NewSoftTarget(), zap.NewNop())
	return NewResolver(g, picker, zap.NewNop())
}

// newTestArbiter wires an arbiter over a 100x100 viewport seen through cam.
func newTestArbiter(g *scene.Graph, s Store, cam camera.Camera, opts Options) *Arbiter {
	a := NewArbiter(newTestResolver(g), s, NewBoneControls(g, cam, zap.NewNop()), zap.NewNop())
	a.SetCamera(cam)
	a.SetViewport(100, 100)
	a.SetOptions(opts)
	return a
}

func at(x, y float32) PointerEvent {
	return PointerEvent{X: x, Y: y, OnViewport: true}
}
