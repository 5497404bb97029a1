// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MeshVertexShader transforms rigid, skinned and morphed meshes.
//
//go:embed mesh.vert
var MeshVertexShader string

// MeshFragmentShader writes either a flat-shaded preview color or an unlit ID color.
//
//go:embed mesh.frag
var MeshFragmentShader string
