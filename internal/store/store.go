// Package store holds the editor state: scene entities, the selection and
// the selected bone. State only changes through dispatched actions, and
// listeners see every change after it is applied.
package store

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/editor"
	"github.com/Faultbox/shotgen/internal/logger"
)

// Object is one entity of the shot.
type Object struct {
	ID   string
	Type string
	Name string
	// X and Z are the ground-plane position, Y the elevation.
	X, Y, Z float32
	Visible bool
}

// State is a snapshot of the editor state.
type State struct {
	Objects      map[string]Object
	Selections   []string
	SelectedBone string
	ActiveCamera string
}

func (s State) clone() State {
	s.Objects = maps.Clone(s.Objects)
	s.Selections = slices.Clone(s.Selections)
	return s
}

// ActionType identifies an action.
type ActionType int

const (
	ActionSelectObject ActionType = iota
	ActionSelectObjectToggle
	ActionSelectBone
	ActionUpdateObjects
	ActionAddObject
	ActionRemoveObject
	ActionSetActiveCamera
	ActionUndo
)

var actionNames = [...]string{
	ActionSelectObject:       "SELECT_OBJECT",
	ActionSelectObjectToggle: "SELECT_OBJECT_TOGGLE",
	ActionSelectBone:         "SELECT_BONE",
	ActionUpdateObjects:      "UPDATE_OBJECTS",
	ActionAddObject:          "CREATE_OBJECT",
	ActionRemoveObject:       "DELETE_OBJECT",
	ActionSetActiveCamera:    "SET_ACTIVE_CAMERA",
	ActionUndo:               "UNDO",
}

func (t ActionType) String() string {
	if int(t) < len(actionNames) {
		return actionNames[t]
	}
	return "UNKNOWN"
}

// Action is a state change request.
type Action struct {
	Type    ActionType
	ID      string
	Object  Object
	Changes map[string]editor.Position
}

// Listener is called after every dispatched action.
type Listener func(state State, action Action)

// reduce applies an action to a state. The returned state shares nothing
// mutable with the input.
func reduce(s State, a Action) State {
	s = s.clone()
	switch a.Type {
	case ActionSelectObject:
		if a.ID == "" {
			s.Selections = nil
		} else {
			s.Selections = []string{a.ID}
		}
	case ActionSelectObjectToggle:
		if i := slices.Index(s.Selections, a.ID); i >= 0 {
			s.Selections = slices.Delete(s.Selections, i, i+1)
		} else {
			s.Selections = append(s.Selections, a.ID)
		}
	case ActionSelectBone:
		s.SelectedBone = a.ID
	case ActionUpdateObjects:
		for id, p := range a.Changes {
			o, ok := s.Objects[id]
			if !ok {
				continue
			}
			o.X, o.Z = p.X, p.Y
			s.Objects[id] = o
		}
	case ActionAddObject:
		if s.Objects == nil {
			s.Objects = make(map[string]Object)
		}
		s.Objects[a.Object.ID] = a.Object
	case ActionRemoveObject:
		delete(s.Objects, a.ID)
		if i := slices.Index(s.Selections, a.ID); i >= 0 {
			s.Selections = slices.Delete(s.Selections, i, i+1)
		}
	case ActionSetActiveCamera:
		s.ActiveCamera = a.ID
	}
	return s
}

// Store is an in-memory editor store. It is not safe for concurrent use.
type Store struct {
	state     State
	listeners map[int]Listener
	nextID    int

	// history holds object snapshots taken before each undoable change.
	history    []map[string]Object
	groupDepth int
	log        *zap.Logger
}

var _ editor.Store = (*Store)(nil)

// New creates a store with an initial state.
func New(initial State, log *zap.Logger) *Store {
	if log == nil {
		log = logger.Named("store")
	}
	if initial.Objects == nil {
		initial.Objects = make(map[string]Object)
	}
	return &Store{state: initial.clone(), listeners: make(map[int]Listener), log: log}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	return s.state.clone()
}

// Object returns one entity.
func (s *Store) Object(id string) (Object, bool) {
	o, ok := s.state.Objects[id]
	return o, ok
}

// Subscribe registers a listener and returns a function removing it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() { delete(s.listeners, id) }
}

// Dispatch applies an action and notifies listeners in subscription order.
func (s *Store) Dispatch(a Action) {
	if a.Type == ActionUpdateObjects && s.groupDepth == 0 {
		s.pushHistory()
	}
	s.state = reduce(s.state, a)
	s.log.Debug("dispatch", zap.Stringer("action", a.Type), zap.String("id", a.ID))
	s.notify(a)
}

func (s *Store) notify(a Action) {
	ids := slices.Sorted(maps.Keys(s.listeners))
	for _, id := range ids {
		if l, ok := s.listeners[id]; ok {
			l(s.State(), a)
		}
	}
}

func (s *Store) pushHistory() {
	s.history = append(s.history, maps.Clone(s.state.Objects))
}

// SelectObject replaces the selection. The empty id clears it.
func (s *Store) SelectObject(id string) {
	s.Dispatch(Action{Type: ActionSelectObject, ID: id})
}

// SelectObjectToggle adds id to the selection or removes it.
func (s *Store) SelectObjectToggle(id string) {
	s.Dispatch(Action{Type: ActionSelectObjectToggle, ID: id})
}

// SelectBone selects a bone; the empty id clears the bone selection.
func (s *Store) SelectBone(id string) {
	s.Dispatch(Action{Type: ActionSelectBone, ID: id})
}

// UpdateObjects moves entities on the ground plane in one state change.
// Unknown ids are ignored.
func (s *Store) UpdateObjects(changes map[string]editor.Position) {
	s.Dispatch(Action{Type: ActionUpdateObjects, Changes: maps.Clone(changes)})
}

// AddObject adds or replaces an entity.
func (s *Store) AddObject(o Object) {
	s.Dispatch(Action{Type: ActionAddObject, ID: o.ID, Object: o})
}

// RemoveObject deletes an entity and drops it from the selection.
func (s *Store) RemoveObject(id string) {
	s.Dispatch(Action{Type: ActionRemoveObject, ID: id})
}

// SetActiveCamera sets the camera entity the viewport looks through.
func (s *Store) SetActiveCamera(id string) {
	s.Dispatch(Action{Type: ActionSetActiveCamera, ID: id})
}

// UndoGroupStart opens an undo group. Object changes until the matching
// UndoGroupEnd undo as one step. Groups nest.
func (s *Store) UndoGroupStart() {
	if s.groupDepth == 0 {
		s.pushHistory()
	}
	s.groupDepth++
}

// UndoGroupEnd closes the innermost undo group. Unbalanced calls are ignored.
func (s *Store) UndoGroupEnd() {
	if s.groupDepth == 0 {
		s.log.Warn("undo group end without start")
		return
	}
	s.groupDepth--
}

// InUndoGroup reports whether an undo group is open.
func (s *Store) InUndoGroup() bool {
	return s.groupDepth > 0
}

// Undo restores entity positions from before the last undo step. It
// reports whether there was anything to undo. Undo inside an open group
// is refused.
func (s *Store) Undo() bool {
	if s.groupDepth > 0 || len(s.history) == 0 {
		return false
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.state.Objects = last
	s.notify(Action{Type: ActionUndo})
	return true
}

// Selections returns the selected entity ids in selection order.
func (s *Store) Selections() []string {
	return slices.Clone(s.state.Selections)
}

// SelectedBone returns the selected bone key, or "".
func (s *Store) SelectedBone() string {
	return s.state.SelectedBone
}

// ActiveCamera returns the active camera id.
func (s *Store) ActiveCamera() string {
	return s.state.ActiveCamera
}
