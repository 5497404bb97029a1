package picking

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/scene"
)

// addObject adds an object group holding one unit box mesh and returns both.
func addObject(t *testing.T, g *scene.Graph, name string, pos mgl32.Vec3) (group, mesh *scene.Node) {
	t.Helper()
	group = g.Create(scene.FormGroup, name)
	group.Tag = scene.TagObject
	group.EntityID = name
	group.Position = pos
	mesh = g.Create(scene.FormMesh, name+"_mesh")
	mesh.Mesh = scene.Box(1, 1, 1)
	require.NoError(t, g.Add(group.ID, mesh.ID))
	require.NoError(t, g.Add(g.Root(), group.ID))
	return group, mesh
}

func newTestRegistry(g *scene.Graph, cfg RegistryConfig) *Registry {
	return NewRegistry(g, cfg, zap.NewNop())
}
