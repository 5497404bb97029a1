package picking

import "github.com/go-gl/mathgl/mgl32"

// MaxID is the largest ID representable in a 24-bit RGB color.
const MaxID = 1<<24 - 1

// Background is the ID of the clear color. No Pickable is ever assigned it.
const Background uint32 = 0

// EncodeID packs an ID into 8-bit RGB channels, red most significant.
func EncodeID(id uint32) [3]uint8 {
	return [3]uint8{uint8(id >> 16), uint8(id >> 8), uint8(id)}
}

// DecodeID unpacks an RGB pixel read back from the ID target.
func DecodeID(rgb [3]uint8) uint32 {
	return uint32(rgb[0])<<16 | uint32(rgb[1])<<8 | uint32(rgb[2])
}

// IDColor returns the normalized shader color for an ID. Each channel is an
// exact multiple of 1/255 so that the framebuffer's round(f*255) conversion
// gives back the encoded byte.
func IDColor(id uint32) mgl32.Vec4 {
	c := EncodeID(id)
	return mgl32.Vec4{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, 1}
}

// Quantize converts a normalized color the way a UNORM8 render target stores it.
func Quantize(c mgl32.Vec4) [3]uint8 {
	var out [3]uint8
	for i := 0; i < 3; i++ {
		out[i] = uint8(mgl32.Clamp(c[i], 0, 1)*255 + 0.5)
	}
	return out
}
