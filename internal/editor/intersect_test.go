package editor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/engine/ray"
	"github.com/Faultbox/shotgen/internal/gizmo"
	"github.com/Faultbox/shotgen/internal/scene"
)

func TestTargetRules(t *testing.T) {
	g := scene.NewGraph()
	r := NewResolver(g, nil, zap.NewNop())

	box, boxMesh := addObject(t, g, "box", mgl32.Vec3{})
	sprite, err := g.AddIcon(box.ID, 1)
	require.NoError(t, err)

	light := g.Create(scene.FormGroup, "light")
	light.Tag = scene.TagLight
	light.EntityID = "light"
	require.NoError(t, g.Add(g.Root(), light.ID))
	lightHitter := g.Create(scene.FormMesh, "hitter")
	lightHitter.Tag = scene.TagLightHitter
	lightHitter.Mesh = scene.Box(1, 1, 1)
	require.NoError(t, g.Add(light.ID, lightHitter.ID))

	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	holder := g.Create(scene.FormGroup, "hitters")
	holder.Links.Object = hero.ID
	require.NoError(t, g.Add(g.Root(), holder.ID))
	hitter := g.Create(scene.FormMesh, "hitter")
	hitter.Tag = scene.TagHitter
	require.NoError(t, g.Add(holder.ID, hitter.ID))

	lodHero, err := g.AddCharacter(scene.CharacterOptions{EntityID: "lod", LOD: true})
	require.NoError(t, err)

	bc := NewBoneControl(g, hero.ID, frontCamera(1), zap.NewNop())
	var boneHandle scene.NodeID
	bc.Control().Traverse(func(n *scene.Node) {
		if n.Form == scene.FormGizmo && boneHandle == scene.Nil {
			boneHandle = n.ID
		}
	})
	plain := gizmo.New(g, frontCamera(1))
	var plainHandle scene.NodeID
	plain.Traverse(func(n *scene.Node) {
		if n.Form == scene.FormGizmo && plainHandle == scene.Nil {
			plainHandle = n.ID
		}
	})

	cp := g.Create(scene.FormMesh, "controlPoint")
	cp.Tag = scene.TagControlPoint
	require.NoError(t, g.Add(g.Root(), cp.ID))
	bcMesh := g.Create(scene.FormMesh, "boneControl")
	bcMesh.Tag = scene.TagBoneControl
	require.NoError(t, g.Add(g.Root(), bcMesh.ID))

	stray := g.Create(scene.FormGroup, "stray")
	require.NoError(t, g.Add(g.Root(), stray.ID))
	strayMesh := g.Create(scene.FormMesh, "stray_mesh")
	require.NoError(t, g.Add(stray.ID, strayMesh.ID))

	tests := []struct {
		name string
		hit  scene.NodeID
		want scene.NodeID
	}{
		{"sprite resolves to linked entity", sprite, box.ID},
		{"light hitter resolves to light", lightHitter.ID, light.ID},
		{"character hitter resolves to object", hitter.ID, hero.ID},
		{"bone control gizmo resolves to character", boneHandle, hero.ID},
		{"plain gizmo resolves to handle", plainHandle, plainHandle},
		{"skinned mesh resolves to parent", g.FindSkinnedMesh(hero.ID, nil), hero.ID},
		{"skinned mesh skips LOD wrapper", g.FindSkinnedMesh(lodHero.ID, nil), lodHero.ID},
		{"control point resolves to itself", cp.ID, cp.ID},
		{"bone control resolves to itself", bcMesh.ID, bcMesh.ID},
		{"mesh resolves to object parent", boxMesh.ID, box.ID},
		{"untagged parent is ambiguous", strayMesh.ID, scene.Nil},
		{"unknown node is ambiguous", scene.NodeID(9999), scene.Nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Target(Intersection{Object: tt.hit}))
		})
	}
}

func TestIntersectables(t *testing.T) {
	g := scene.NewGraph()
	obj, _ := addObject(t, g, "box", mgl32.Vec3{})
	plain := g.Create(scene.FormGroup, "plain")
	require.NoError(t, g.Add(g.Root(), plain.ID))
	cam := g.Create(scene.FormCamera, "cam")
	require.NoError(t, g.Add(g.Root(), cam.ID))
	vol := g.Create(scene.FormGroup, "fog")
	vol.Tag = scene.TagVolume
	require.NoError(t, g.Add(g.Root(), vol.ID))

	r := NewResolver(g, nil, zap.NewNop())
	assert.Equal(t, []scene.NodeID{obj.ID, vol.ID}, r.Intersectables(false))
	assert.Equal(t, []scene.NodeID{obj.ID, cam.ID, vol.ID}, r.Intersectables(true))
}

func TestIconObjects(t *testing.T) {
	g := scene.NewGraph()
	obj, objMesh := addObject(t, g, "box", mgl32.Vec3{})
	hidden, _ := addObject(t, g, "hidden", mgl32.Vec3{})
	hidden.Visible = false

	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	icon, err := g.AddIcon(hero.ID, 1)
	require.NoError(t, err)
	ghost := addCharacter(t, g, "ghost", mgl32.Vec3{})
	_, err = g.AddIcon(ghost.ID, 1)
	require.NoError(t, err)
	ghost.Visible = false

	r := NewResolver(g, nil, zap.NewNop())
	got := r.IconObjects([]scene.NodeID{obj.ID, hidden.ID, hero.ID, ghost.ID})
	assert.Equal(t, []scene.NodeID{icon, objMesh.ID}, got)
}

// iconScene places three characters whose icons all cover the screen
// center, at ground distances 0.2, 0.5 and 0.1 from it.
func iconScene(t *testing.T) (*scene.Graph, []*scene.Node, *camera.Ortho) {
	g := scene.NewGraph()
	var chars []*scene.Node
	for i, x := range []float32{0.2, 0.5, 0.1} {
		c := addCharacter(t, g, []string{"c1", "c2", "c3"}[i], mgl32.Vec3{x, 0, 0})
		_, err := g.AddIcon(c.ID, 2)
		require.NoError(t, err)
		chars = append(chars, c)
	}
	return g, chars, camera.NewTopDown(mgl32.Vec3{}, 20, 10, 1)
}

func TestPreferNearestCharacterOnGround(t *testing.T) {
	g, chars, cam := iconScene(t)
	r := NewResolver(g, nil, zap.NewNop())

	hits, err := r.GetIntersects(Pointer{X: 50, Y: 50, Width: 100, Height: 100}, cam, ModeIcons)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	best := r.PreferCharacter(hits)
	assert.Equal(t, chars[2].ID, r.Target(best))
}

func TestPreferCharacterFallbacks(t *testing.T) {
	g := scene.NewGraph()
	box, boxMesh := addObject(t, g, "box", mgl32.Vec3{})
	_, err := g.AddIcon(box.ID, 1)
	require.NoError(t, err)
	hero := addCharacter(t, g, "hero", mgl32.Vec3{3, 0, 0})
	heroIcon, err := g.AddIcon(hero.ID, 1)
	require.NoError(t, err)
	r := NewResolver(g, nil, zap.NewNop())

	boxHit := Intersection{Object: boxMesh.ID, Distance: 1}
	heroHit := Intersection{Object: heroIcon, Distance: 2, Point: mgl32.Vec3{0, 0, 0}}
	assert.Equal(t, heroHit, r.PreferCharacter([]Intersection{boxHit, heroHit}))
	assert.Equal(t, boxHit, r.PreferCharacter([]Intersection{boxHit}))
}

func TestBoneHits(t *testing.T) {
	g := scene.NewGraph()
	hero := addCharacter(t, g, "hero", mgl32.Vec3{})
	r := NewResolver(g, nil, zap.NewNop())

	rr := ray.Ray{Origin: mgl32.Vec3{0, 1.26, 5}, Direction: mgl32.Vec3{0, 0, -1}}
	hits := r.BoneHits(hero.ID, rr)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Spine", g.Node(hits[0].Bone).Name)
	assert.Equal(t, hero.ID, hits[0].Object)
	assert.InDelta(t, 5, hits[0].Distance, 1e-3)

	miss := ray.Ray{Origin: mgl32.Vec3{3, 1.26, 5}, Direction: mgl32.Vec3{0, 0, -1}}
	assert.Empty(t, r.BoneHits(hero.ID, miss))
	assert.Empty(t, r.BoneHits(scene.NodeID(9999), rr))
}

func TestGetIntersectsSkipsVolumes(t *testing.T) {
	g := scene.NewGraph()
	vol, _ := addObject(t, g, "fog", mgl32.Vec3{})
	vol.Tag = scene.TagVolume
	r := newTestResolver(g)
	p := Pointer{X: 50, Y: 50, Width: 100, Height: 100}

	hits, err := r.GetIntersects(p, frontCamera(0), Mode3D)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, behind := addObject(t, g, "wall", mgl32.Vec3{0, 0, -3})
	hits, err = r.GetIntersects(p, frontCamera(0), Mode3D)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, behind.ID, hits[0].Object)
}
