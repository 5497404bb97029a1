package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
)

func TestTranslateMouseButtons(t *testing.T) {
	shift := sdl.Keymod(sdl.KMOD_LSHIFT)

	ev, ok := Translate(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT, X: 10, Y: 20}, shift)
	require.True(t, ok)
	assert.Equal(t, EventPointerDown, ev.Type)
	assert.Equal(t, 10, ev.MouseX)
	assert.Equal(t, 20, ev.MouseY)
	assert.Equal(t, uint8(sdl.BUTTON_LEFT), ev.Button)
	assert.True(t, ev.Shift)

	ev, ok = Translate(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_RIGHT, X: 3, Y: 4}, 0)
	require.True(t, ok)
	assert.Equal(t, EventPointerUp, ev.Type)
	assert.Equal(t, uint8(sdl.BUTTON_RIGHT), ev.Button)
	assert.False(t, ev.Shift)
}

func TestTranslateMotion(t *testing.T) {
	ev, ok := Translate(&sdl.MouseMotionEvent{X: 5, Y: 6, XRel: 2, YRel: -1, State: sdl.ButtonRMask()}, 0)
	require.True(t, ok)
	assert.Equal(t, EventPointerMove, ev.Type)
	assert.Equal(t, 2, ev.DeltaX)
	assert.Equal(t, -1, ev.DeltaY)
	assert.Equal(t, uint8(sdl.BUTTON_RIGHT), ev.Button)

	ev, _ = Translate(&sdl.MouseMotionEvent{X: 5, Y: 6}, 0)
	assert.Zero(t, ev.Button)
}

func TestTranslateWheelAndWindow(t *testing.T) {
	ev, ok := Translate(&sdl.MouseWheelEvent{Y: 1, Direction: uint32(sdl.MOUSEWHEEL_FLIPPED)}, 0)
	require.True(t, ok)
	assert.Equal(t, EventWheel, ev.Type)
	assert.Equal(t, -1, ev.DeltaY)

	ev, ok = Translate(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600}, 0)
	require.True(t, ok)
	assert.Equal(t, EventWindowResize, ev.Type)
	assert.Equal(t, 800, ev.Width)
	assert.Equal(t, 600, ev.Height)

	_, ok = Translate(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_FOCUS_GAINED}, 0)
	assert.False(t, ok)

	ev, ok = Translate(&sdl.QuitEvent{}, 0)
	require.True(t, ok)
	assert.Equal(t, EventQuit, ev.Type)
}

func TestTranslateIgnoresKeyRepeat(t *testing.T) {
	_, ok := Translate(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1}, 0)
	assert.False(t, ok)

	ev, ok := Translate(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.Scancode(sdl.SCANCODE_Z)}}, sdl.Keymod(sdl.KMOD_LCTRL))
	require.True(t, ok)
	assert.Equal(t, EventKeyDown, ev.Type)
	assert.Equal(t, sdl.Scancode(sdl.SCANCODE_Z), ev.Key)
	assert.True(t, ev.Ctrl)
	assert.False(t, ev.Shift)
}

func TestPointerScalesAndBounds(t *testing.T) {
	p := Event{Type: EventPointerUp, MouseX: 50, MouseY: 40, Shift: true}.Pointer(2, 200, 100)
	assert.Equal(t, float32(100), p.X)
	assert.Equal(t, float32(80), p.Y)
	assert.True(t, p.Shift)
	assert.True(t, p.OnViewport)

	assert.False(t, Event{MouseX: 120, MouseY: 10}.Pointer(2, 200, 100).OnViewport)
	assert.False(t, Event{MouseX: -1, MouseY: 10}.Pointer(1, 200, 100).OnViewport)
}
