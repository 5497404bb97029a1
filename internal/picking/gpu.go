package picking

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/engine/camera"
	"github.com/Faultbox/shotgen/internal/logger"
	"github.com/Faultbox/shotgen/internal/scene"
)

// Pixel is one texel read back from the ID target.
type Pixel struct {
	Color [3]uint8
	// Depth is the window-space depth in [0,1].
	Depth float32
}

// IDTarget is the off-screen render target of the ID pass.
type IDTarget interface {
	// Rebuild recreates the target at the given size, dropping any previous one.
	Rebuild(width, height int) error
	// Render clears to the background ID and draws items with their ID colors.
	Render(viewProj mgl32.Mat4, items []Item) error
	// ReadPixel reads one pixel, top-left origin.
	ReadPixel(x, y int) (Pixel, error)
	Destroy()
}

// Hit is one intersection candidate.
type Hit struct {
	// Object is the raw live node that was hit.
	Object scene.NodeID
	// PickableID is the color ID of the picked proxy, zero for ray cast hits.
	PickableID uint32
	Point      mgl32.Vec3
	Distance   float32
	// Bone is set for hits on a character's bone helper.
	Bone scene.NodeID
}

// GPUPicker resolves the node under a pixel by rendering Pickables with
// their ID colors and reading the color back.
type GPUPicker struct {
	registry *Registry
	target   IDTarget
	log      *zap.Logger

	x, y          int
	width, height int
	built         bool
	dirty         bool
	items         []Item
}

// NewGPUPicker creates a picker rendering the registry's proxies into target.
func NewGPUPicker(registry *Registry, target IDTarget, log *zap.Logger) *GPUPicker {
	if log == nil {
		log = logger.Named("picking")
	}
	return &GPUPicker{registry: registry, target: target, log: log}
}

// Registry returns the picker's Pickable registry.
func (p *GPUPicker) Registry() *Registry {
	return p.registry
}

// SetupScene makes the registered Pickables match candidates. A character
// candidate becomes one Pickable; any other candidate contributes one
// Pickable per visible mesh in its subtree. Volumes are never pickable.
func (p *GPUPicker) SetupScene(candidates []scene.NodeID) {
	g := p.registry.Live()
	var sources []scene.NodeID
	for _, c := range candidates {
		n := g.Node(c)
		if n == nil || n.Tag == scene.TagVolume || !g.VisibleInWorld(c) {
			continue
		}
		if n.Tag == scene.TagCharacter {
			sources = append(sources, c)
			continue
		}
		g.Traverse(c, func(child *scene.Node) bool {
			if !child.Visible || child.Tag == scene.TagVolume {
				return false
			}
			if child.Mesh != nil && child.Form.HasGeometry() && child.Form != scene.FormSprite {
				sources = append(sources, child.ID)
			}
			return true
		})
	}
	if p.registry.Sync(sources) {
		p.dirty = true
	}
}

// SetPickingPosition sets the pixel to read, top-left origin.
func (p *GPUPicker) SetPickingPosition(x, y int) {
	p.x, p.y = x, y
}

// PickWithCamera renders the ID pass from cam into a width x height target
// and returns the hit under the picking position, if any. Errors are only
// returned for render target failures; the background is an empty result.
func (p *GPUPicker) PickWithCamera(cam camera.Camera, width, height int) ([]Hit, error) {
	if p.registry.Update() > 0 {
		p.dirty = true
	}
	if width <= 0 || height <= 0 || p.x < 0 || p.y < 0 || p.x >= width || p.y >= height {
		return nil, nil
	}
	if !p.built || p.dirty || width != p.width || height != p.height {
		if err := p.target.Rebuild(width, height); err != nil {
			p.built = false
			return nil, fmt.Errorf("rebuild picking target %dx%d: %w", width, height, err)
		}
		p.log.Debug("picking target rebuilt",
			zap.Int("width", width),
			zap.Int("height", height),
			zap.Int("pickables", p.registry.Len()))
		p.built, p.dirty = true, false
		p.width, p.height = width, height
	}

	p.items = p.items[:0]
	for _, pk := range p.registry.Pickables() {
		p.items = pk.AppendItems(p.items)
	}
	if err := p.target.Render(camera.ViewProjection(cam), p.items); err != nil {
		return nil, fmt.Errorf("render picking pass: %w", err)
	}
	px, err := p.target.ReadPixel(p.x, p.y)
	if err != nil {
		return nil, fmt.Errorf("read picking pixel (%d,%d): %w", p.x, p.y, err)
	}

	id := DecodeID(px.Color)
	if id == Background {
		return nil, nil
	}
	pk := p.registry.Lookup(id)
	if pk == nil {
		p.log.Debug("picked unknown id", zap.Uint32("id", id))
		return nil, nil
	}
	point := camera.Unproject(cam, float32(p.x)+0.5, float32(p.y)+0.5, px.Depth, width, height)
	return []Hit{{
		Object:     pk.HitObject(),
		PickableID: id,
		Point:      point,
		Distance:   point.Sub(cam.Position()).Len(),
	}}, nil
}

// Dispose releases the render target and every Pickable.
func (p *GPUPicker) Dispose() {
	p.registry.Clear()
	p.target.Destroy()
	p.built = false
}
