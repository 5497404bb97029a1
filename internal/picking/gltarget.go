package picking

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shotgen/internal/engine/framebuffer"
	"github.com/Faultbox/shotgen/internal/engine/renderer"
)

// GLTarget is the OpenGL IDTarget: an offscreen framebuffer drawn into by
// the shared mesh renderer. It leaves the previously bound framebuffer and
// viewport in place after every call.
type GLTarget struct {
	fb       *framebuffer.Framebuffer
	renderer *renderer.Renderer
	draws    []renderer.DrawItem
}

// NewGLTarget creates a target drawing with r. The framebuffer is created on
// the first Rebuild.
func NewGLTarget(r *renderer.Renderer) *GLTarget {
	return &GLTarget{renderer: r}
}

func (t *GLTarget) Rebuild(width, height int) error {
	t.Destroy()
	fb, err := framebuffer.New(int32(width), int32(height))
	if err != nil {
		return err
	}
	t.fb = fb
	return nil
}

func (t *GLTarget) Render(viewProj mgl32.Mat4, items []Item) error {
	if t.fb == nil {
		return fmt.Errorf("picking target not built")
	}
	t.draws = t.draws[:0]
	for _, it := range items {
		t.draws = append(t.draws, renderer.DrawItem{
			Mesh:  it.Mesh,
			Model: it.Model,
			Bones: it.Bones,
			Morph: it.Morph,
			Color: IDColor(it.ID),
		})
	}

	restore := t.fb.BindWithViewport()
	defer restore()
	t.fb.Clear(0, 0, 0, 0)
	t.renderer.Draw(viewProj, t.draws, true)
	return nil
}

func (t *GLTarget) ReadPixel(x, y int) (Pixel, error) {
	if t.fb == nil {
		return Pixel{}, fmt.Errorf("picking target not built")
	}
	rgba, depth, err := t.fb.ReadPixel(int32(x), int32(y))
	if err != nil {
		return Pixel{}, err
	}
	return Pixel{Color: [3]uint8{rgba[0], rgba[1], rgba[2]}, Depth: depth}, nil
}

func (t *GLTarget) Destroy() {
	if t.fb != nil {
		t.fb.Destroy()
		t.fb = nil
	}
}
