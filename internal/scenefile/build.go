package scenefile

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/scene"
	"github.com/Faultbox/shotgen/internal/store"
)

// DefaultFOV is the vertical field of view of cameras that do not set one.
const DefaultFOV = 50

// IconSize is the world size of orthographic icons.
const IconSize = 0.8

// Entity types as recorded in the store.
const (
	TypeCamera    = "camera"
	TypeObject    = "object"
	TypeCharacter = "character"
	TypeLight     = "light"
	TypeVolume    = "volume"
)

var (
	lightColor  = mgl32.Vec4{1, 0.9, 0.4, 1}
	volumeColor = mgl32.Vec4{0.6, 0.7, 0.9, 0.3}
	cameraColor = mgl32.Vec4{0.3, 0.3, 0.3, 1}
	objectColor = mgl32.Vec4{0.7, 0.7, 0.75, 1}
)

// Perspective returns the camera's view at the given aspect ratio.
func (c Camera) Perspective(aspect float32) *camera.Perspective {
	fov := c.FOV
	if fov == 0 {
		fov = DefaultFOV
	}
	return camera.NewPerspective(c.Position.Vec(), c.Target.Vec(), fov, aspect)
}

// Camera looks up a camera by id.
func (f *File) Camera(id string) (Camera, bool) {
	for _, c := range f.Cameras {
		if c.ID == id {
			return c, true
		}
	}
	return Camera{}, false
}

// Active returns the camera to start with: the active one, else the first.
func (f *File) Active() (Camera, bool) {
	if c, ok := f.Camera(f.ActiveCamera); ok {
		return c, true
	}
	if len(f.Cameras) > 0 {
		return f.Cameras[0], true
	}
	return Camera{}, false
}

// Build adds every entity of f under the root of g, gives each an icon and
// records it in st. It returns the node of every entity by id.
func (f *File) Build(g *scene.Graph, st *store.Store) (map[string]scene.NodeID, error) {
	nodes := make(map[string]scene.NodeID)
	add := func(n *scene.Node, typ string) error {
		if err := g.Add(g.Root(), n.ID); err != nil {
			return fmt.Errorf("adding %s %q: %w", typ, n.EntityID, err)
		}
		return record(g, st, nodes, n, typ)
	}

	for _, c := range f.Cameras {
		n := g.Create(scene.FormCamera, nameOr(c.Name, c.ID))
		n.EntityID = c.ID
		n.Position = c.Position.Vec()
		n.Color = cameraColor
		if err := add(n, TypeCamera); err != nil {
			return nil, err
		}
	}

	for _, o := range f.Objects {
		n := g.Create(scene.FormGroup, nameOr(o.Name, o.ID))
		n.Tag = scene.TagObject
		n.EntityID = o.ID
		n.Position = o.Position.Vec()
		n.Visible = !o.Hidden
		n.Color = color(o.Color, objectColor)

		mesh := g.Create(scene.FormMesh, n.Name+"_mesh")
		size := o.Size.Vec()
		if size == (mgl32.Vec3{}) {
			size = mgl32.Vec3{1, 1, 1}
		}
		if o.Shape == "sphere" {
			mesh.Mesh = scene.Sphere(0.5, 16, 12)
		} else {
			mesh.Mesh = scene.Box(1, 1, 1)
		}
		// Props stand on the ground.
		mesh.Position = mgl32.Vec3{0, size.Y() / 2, 0}
		mesh.Scale = size
		mesh.Color = n.Color
		if err := g.Add(n.ID, mesh.ID); err != nil {
			return nil, err
		}
		if err := add(n, TypeObject); err != nil {
			return nil, err
		}
	}

	for _, c := range f.Characters {
		n, err := g.AddCharacter(scene.CharacterOptions{
			EntityID:      c.ID,
			Name:          nameOr(c.Name, c.ID),
			Position:      c.Position.Vec(),
			Height:        c.Height,
			LOD:           c.LOD,
			Attachments:   c.Attachments,
			ControlPoints: c.ControlPoints,
			Color:         color(c.Color, mgl32.Vec4{}),
		})
		if err != nil {
			return nil, fmt.Errorf("adding character %q: %w", c.ID, err)
		}
		if err := record(g, st, nodes, n, TypeCharacter); err != nil {
			return nil, err
		}
	}

	for _, l := range f.Lights {
		n := g.Create(scene.FormGroup, nameOr(l.Name, l.ID))
		n.Tag = scene.TagLight
		n.EntityID = l.ID
		n.Position = l.Position.Vec()
		n.Color = lightColor

		hitter := g.Create(scene.FormMesh, "hitter")
		hitter.Tag = scene.TagLightHitter
		hitter.Mesh = scene.Sphere(0.15, 10, 8)
		hitter.Color = lightColor
		if err := g.Add(n.ID, hitter.ID); err != nil {
			return nil, err
		}
		if err := add(n, TypeLight); err != nil {
			return nil, err
		}
	}

	for _, v := range f.Volumes {
		n := g.Create(scene.FormGroup, nameOr(v.Name, v.ID))
		n.Tag = scene.TagVolume
		n.EntityID = v.ID
		n.Position = v.Position.Vec()
		n.Color = volumeColor

		box := g.Create(scene.FormMesh, n.Name+"_volume")
		box.Mesh = scene.Box(1, 1, 1)
		if size := v.Size.Vec(); size != (mgl32.Vec3{}) {
			box.Scale = size
		}
		box.Color = volumeColor
		if err := g.Add(n.ID, box.ID); err != nil {
			return nil, err
		}
		if err := add(n, TypeVolume); err != nil {
			return nil, err
		}
	}

	if c, ok := f.Active(); ok {
		st.SetActiveCamera(c.ID)
	}
	return nodes, nil
}

// record gives an attached entity its icon and adds it to the store.
func record(g *scene.Graph, st *store.Store, nodes map[string]scene.NodeID, n *scene.Node, typ string) error {
	if _, err := g.AddIcon(n.ID, IconSize); err != nil {
		return fmt.Errorf("icon of %s %q: %w", typ, n.EntityID, err)
	}
	nodes[n.EntityID] = n.ID
	st.AddObject(store.Object{
		ID:      n.EntityID,
		Type:    typ,
		Name:    n.Name,
		X:       n.Position.X(),
		Y:       n.Position.Y(),
		Z:       n.Position.Z(),
		Visible: n.Visible,
	})
	return nil
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

// Sync moves entity nodes to the positions held in state. Icons and
// control points follow their entities.
func Sync(g *scene.Graph, nodes map[string]scene.NodeID, state store.State) {
	for id, o := range state.Objects {
		n := g.Node(nodes[id])
		if n == nil {
			continue
		}
		pos := mgl32.Vec3{o.X, o.Y, o.Z}
		delta := pos.Sub(n.Position)
		if delta == (mgl32.Vec3{}) {
			continue
		}
		n.Position = pos
		if icon := g.Parent(n.Links.Icon); icon != scene.Nil {
			g.Node(icon).Position = g.WorldPosition(n.ID)
		}
		if n.Tag != scene.TagCharacter {
			continue
		}
		for _, c := range g.Children(g.Root()) {
			if cp := g.Node(c); cp.Tag == scene.TagControlPoint && cp.Links.Character == n.ID {
				cp.Position = cp.Position.Add(delta)
			}
		}
	}
}
