// Package editor turns pointer events over the rendered scene into selection,
// drag and bone rotation requests against the editor store.
package editor

// Position is an entity's ground-plane position: X is world x, Y is world z.
type Position struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

// Store is the part of the editor state the pointer logic reads and mutates.
// Every side effect of the Arbiter is one of these calls.
type Store interface {
	SelectObject(id string)
	SelectObjectToggle(id string)
	// SelectBone selects a bone by key; the empty key clears the bone selection.
	SelectBone(id string)
	// UpdateObjects applies all changes as one state transition.
	UpdateObjects(changes map[string]Position)
	UndoGroupStart()
	UndoGroupEnd()

	Selections() []string
	ActiveCamera() string
}
