// Package renderer draws scene meshes with OpenGL, both for the on-screen
// preview and for offscreen flat-color passes such as picking.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/engine/renderer/shaders"
	"github.com/Faultbox/shotgen/internal/engine/shader"
	"github.com/Faultbox/shotgen/internal/logger"
	"github.com/Faultbox/shotgen/internal/scene"
)

const (
	// MaxBones is the size of the skinning palette in the vertex shader.
	MaxBones = 64
	// MaxMorphs is the number of morph targets the vertex shader blends.
	MaxMorphs = 4

	floatsPerVertex = 3 + 4 + 4 + 3*MaxMorphs
)

// DrawItem is one mesh draw.
type DrawItem struct {
	Mesh  *scene.Mesh
	Model mgl32.Mat4
	// Bones are world skinning matrices. When set, Model is ignored.
	Bones []mgl32.Mat4
	Morph []float32
	Color mgl32.Vec4
}

type gpuMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

// Renderer owns the mesh program and the GPU copies of uploaded meshes.
type Renderer struct {
	program uint32

	locViewProj     int32
	locModel        int32
	locSkinned      int32
	locBones        int32
	locMorphWeights int32
	locColor        int32
	locUnlit        int32
	locLightDir     int32

	meshes map[*scene.Mesh]*gpuMesh
	log    *zap.Logger
}

// New initializes OpenGL function pointers and creates the renderer.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New(log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = logger.Named("renderer")
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.CompileProgram(shaders.MeshVertexShader, shaders.MeshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	r := &Renderer{
		program: program,
		meshes:  make(map[*scene.Mesh]*gpuMesh),
		log:     log,
	}
	r.locViewProj = shader.GetUniform(program, "uViewProj")
	r.locModel = shader.GetUniform(program, "uModel")
	r.locSkinned = shader.GetUniform(program, "uSkinned")
	r.locBones = shader.GetUniform(program, "uBones")
	r.locMorphWeights = shader.GetUniform(program, "uMorphWeights")
	r.locColor = shader.GetUniform(program, "uColor")
	r.locUnlit = shader.GetUniform(program, "uUnlit")
	r.locLightDir = shader.GetUniform(program, "uLightDir")

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return r, nil
}

// Close releases the program and every uploaded mesh.
func (r *Renderer) Close() {
	for m := range r.meshes {
		r.Release(m)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
}

// Begin clears the bound framebuffer and sets the viewport.
func (r *Renderer) Begin(width, height int, clear mgl32.Vec4) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(clear[0], clear[1], clear[2], clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ClearDepth clears the depth buffer so later draws land on top.
func (r *Renderer) ClearDepth() {
	gl.Clear(gl.DEPTH_BUFFER_BIT)
}

// ReadPixels reads the bound framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Draw renders items with the given view-projection. Unlit draws write each
// item's color as is, with blending and dithering off.
func (r *Renderer) Draw(viewProj mgl32.Mat4, items []DrawItem, unlit bool) {
	gl.UseProgram(r.program)
	shader.SetMat4(r.locViewProj, viewProj)
	gl.Uniform3f(r.locLightDir, -0.4, -1, -0.3)
	if unlit {
		gl.Disable(gl.BLEND)
		gl.Disable(gl.DITHER)
		gl.Uniform1i(r.locUnlit, 1)
	} else {
		gl.Uniform1i(r.locUnlit, 0)
	}
	gl.Disable(gl.CULL_FACE)

	for _, it := range items {
		if it.Mesh == nil || len(it.Mesh.Indices) == 0 {
			continue
		}
		gm, err := r.upload(it.Mesh)
		if err != nil {
			r.log.Warn("skipping mesh", zap.Error(err))
			continue
		}
		if it.Bones != nil {
			gl.Uniform1i(r.locSkinned, 1)
			shader.SetMat4Array(r.locBones, it.Bones[:min(len(it.Bones), MaxBones)])
		} else {
			gl.Uniform1i(r.locSkinned, 0)
			shader.SetMat4(r.locModel, it.Model)
		}
		shader.SetVec4(r.locMorphWeights, morphWeights(it.Morph))
		shader.SetVec4(r.locColor, it.Color)

		gl.BindVertexArray(gm.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, gm.indexCount, gl.UNSIGNED_INT, 0)
	}
	gl.BindVertexArray(0)
	gl.Enable(gl.DITHER)
}

// Release frees the GPU copy of a mesh.
func (r *Renderer) Release(m *scene.Mesh) {
	gm, ok := r.meshes[m]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gm.vao)
	gl.DeleteBuffers(1, &gm.vbo)
	gl.DeleteBuffers(1, &gm.ebo)
	delete(r.meshes, m)
}

func (r *Renderer) upload(m *scene.Mesh) (*gpuMesh, error) {
	if gm, ok := r.meshes[m]; ok {
		return gm, nil
	}
	vertices := packVertices(m)
	if len(vertices) == 0 {
		return nil, fmt.Errorf("mesh has no vertices")
	}
	gm := &gpuMesh{indexCount: int32(len(m.Indices))}

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	// Joints, as floats
	gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	// Weights
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride, 7*4)
	gl.EnableVertexAttribArray(2)
	// Morph deltas
	for t := 0; t < MaxMorphs; t++ {
		gl.VertexAttribPointerWithOffset(uint32(3+t), 3, gl.FLOAT, false, stride, uintptr((11+3*t)*4))
		gl.EnableVertexAttribArray(uint32(3 + t))
	}

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	r.meshes[m] = gm
	return gm, nil
}

// packVertices interleaves position, joints, weights and morph deltas.
// Unskinned vertices get full weight on joint 0, which the shader ignores.
func packVertices(m *scene.Mesh) []float32 {
	out := make([]float32, 0, len(m.Positions)*floatsPerVertex)
	skinned := m.Skinned()
	for i, p := range m.Positions {
		out = append(out, p[0], p[1], p[2])
		if skinned {
			j := m.Joints[i]
			out = append(out, float32(j[0]), float32(j[1]), float32(j[2]), float32(j[3]))
			w := m.Weights[i]
			out = append(out, w[0], w[1], w[2], w[3])
		} else {
			out = append(out, 0, 0, 0, 0, 1, 0, 0, 0)
		}
		for t := 0; t < MaxMorphs; t++ {
			var d mgl32.Vec3
			if t < len(m.MorphTargets) && i < len(m.MorphTargets[t]) {
				d = m.MorphTargets[t][i]
			}
			out = append(out, d[0], d[1], d[2])
		}
	}
	return out
}

func morphWeights(influences []float32) mgl32.Vec4 {
	var w mgl32.Vec4
	copy(w[:], influences)
	return w
}
