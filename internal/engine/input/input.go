// Package input turns SDL2 events into editor events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/shotgen/internal/editor"
)

// EventType classifies a translated event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventPointerDown
	EventPointerMove
	EventPointerUp
	EventWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	// DeltaX and DeltaY carry relative motion, or the wheel amount.
	DeltaX int
	DeltaY int
	Button uint8
	Shift  bool
	Ctrl   bool
}

// Pointer converts a pointer event to the editor's form. Coordinates are
// scaled by scale to framebuffer pixels and checked against the viewport.
func (e Event) Pointer(scale float32, width, height int) editor.PointerEvent {
	x := float32(e.MouseX) * scale
	y := float32(e.MouseY) * scale
	return editor.PointerEvent{
		X:          x,
		Y:          y,
		Shift:      e.Shift,
		OnViewport: x >= 0 && y >= 0 && x < float32(width) && y < float32(height),
	}
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them to editor events.
// Returns true if the editor should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	mods := sdl.GetModState()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		ev, ok := Translate(event, mods)
		if !ok {
			continue
		}
		i.events = append(i.events, ev)
		if ev.Type == EventQuit {
			return true
		}
	}

	return false
}

// Translate converts one SDL event. mods is the keyboard modifier state
// sampled for this frame. ok is false for events the editor ignores.
func Translate(event sdl.Event, mods sdl.Keymod) (ev Event, ok bool) {
	shift := mods&sdl.Keymod(sdl.KMOD_SHIFT) != 0
	ctrl := mods&sdl.Keymod(sdl.KMOD_CTRL) != 0

	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			}, true
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return Event{}, false
		}
		if e.Type == sdl.KEYDOWN {
			return Event{Type: EventKeyDown, Key: e.Keysym.Scancode, Shift: shift, Ctrl: ctrl}, true
		}
		if e.Type == sdl.KEYUP {
			return Event{Type: EventKeyUp, Key: e.Keysym.Scancode, Shift: shift, Ctrl: ctrl}, true
		}

	case *sdl.MouseMotionEvent:
		return Event{
			Type:   EventPointerMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
			Button: motionButton(e.State),
			Shift:  shift,
		}, true

	case *sdl.MouseButtonEvent:
		t := EventPointerDown
		if e.Type == sdl.MOUSEBUTTONUP {
			t = EventPointerUp
		} else if e.Type != sdl.MOUSEBUTTONDOWN {
			return Event{}, false
		}
		return Event{
			Type:   t,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
			Shift:  shift,
		}, true

	case *sdl.MouseWheelEvent:
		dy := int(e.Y)
		if e.Direction == uint32(sdl.MOUSEWHEEL_FLIPPED) {
			dy = -dy
		}
		return Event{Type: EventWheel, DeltaX: int(e.X), DeltaY: dy}, true
	}

	return Event{}, false
}

// motionButton reports the lowest held button of a motion event, or 0.
func motionButton(state uint32) uint8 {
	switch {
	case state&sdl.ButtonLMask() != 0:
		return sdl.BUTTON_LEFT
	case state&sdl.ButtonMMask() != 0:
		return sdl.BUTTON_MIDDLE
	case state&sdl.ButtonRMask() != 0:
		return sdl.BUTTON_RIGHT
	}
	return 0
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}
