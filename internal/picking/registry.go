package picking

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/logger"
	"github.com/Faultbox/shotgen/internal/scene"
)

var (
	// ErrIDSpaceExhausted is returned when every color ID is in use.
	ErrIDSpaceExhausted = errors.New("picking: color id space exhausted")
	// ErrNoSkinnedMesh is returned when a character has no pickable skinned mesh.
	ErrNoSkinnedMesh = errors.New("picking: character has no skinned mesh")
	// ErrNoGeometry is returned when an object node carries no mesh.
	ErrNoGeometry = errors.New("picking: node has no geometry")
)

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// MaxPickables caps the ID space below MaxID. Zero means MaxID.
	MaxPickables int
	// Excluded names sub-meshes skipped when looking for a character's skinned mesh.
	Excluded []string
}

// Registry owns the Pickables and the proxy graph they render from.
type Registry struct {
	live    *scene.Graph
	proxies *scene.Graph

	byID     map[uint32]Pickable
	bySource map[scene.NodeID]Pickable
	free     []uint32 // released IDs, ascending
	next     uint32
	limit    uint32
	excluded []string

	log *zap.Logger
}

// changeable is implemented by Pickables whose source geometry can be swapped.
type changeable interface {
	ObjectChanged() bool
	ApplyObjectChanges() error
}

// NewRegistry creates a registry mirroring nodes of live. A nil log uses the
// global "picking" logger.
func NewRegistry(live *scene.Graph, cfg RegistryConfig, log *zap.Logger) *Registry {
	if log == nil {
		log = logger.Named("picking")
	}
	limit := uint32(MaxID)
	if cfg.MaxPickables > 0 && cfg.MaxPickables < MaxID {
		limit = uint32(cfg.MaxPickables)
	}
	return &Registry{
		live:     live,
		proxies:  scene.NewGraph(),
		byID:     make(map[uint32]Pickable),
		bySource: make(map[scene.NodeID]Pickable),
		next:     1,
		limit:    limit,
		excluded: slices.Clone(cfg.Excluded),
		log:      log,
	}
}

// Proxies returns the graph holding every proxy subtree.
func (r *Registry) Proxies() *scene.Graph {
	return r.proxies
}

// Live returns the mirrored scene graph.
func (r *Registry) Live() *scene.Graph {
	return r.live
}

// Register creates the Pickable for node. Skinned meshes and nodes tagged as
// characters become CharacterPickables, everything else an ObjectPickable.
// Registering an already mirrored source returns the existing Pickable.
func (r *Registry) Register(node scene.NodeID) (Pickable, error) {
	n := r.live.Node(node)
	if n == nil {
		return nil, fmt.Errorf("register %v: %w", node, scene.ErrNoNode)
	}
	character := n.Form == scene.FormSkinnedMesh || n.Tag == scene.TagCharacter
	source := node
	if n.Form == scene.FormSkinnedMesh {
		source = r.live.Parent(node)
	}
	if p, ok := r.bySource[source]; ok {
		return p, nil
	}

	id, err := r.allocID()
	if err != nil {
		return nil, fmt.Errorf("register %v: %w", node, err)
	}
	var p Pickable
	if character {
		p, err = newCharacterPickable(r.live, r.proxies, n, id, r.isExcluded)
	} else {
		p, err = newObjectPickable(r.live, r.proxies, n, id)
	}
	if err != nil {
		r.releaseID(id)
		return nil, fmt.Errorf("register %v (%s): %w", node, n.Name, err)
	}

	r.byID[id] = p
	r.bySource[p.SceneObject()] = p
	r.log.Debug("registered pickable",
		zap.Uint32("id", id),
		zap.Stringer("source", p.SceneObject()),
		zap.String("name", n.Name),
		zap.Bool("character", character))
	return p, nil
}

func (r *Registry) isExcluded(n *scene.Node) bool {
	return n != nil && slices.Contains(r.excluded, n.Name)
}

// Deregister drops the Pickable's proxy and frees its ID for reuse.
func (r *Registry) Deregister(p Pickable) {
	if p == nil || r.byID[p.ID()] != p {
		return
	}
	delete(r.byID, p.ID())
	if r.bySource[p.SceneObject()] == p {
		delete(r.bySource, p.SceneObject())
	}
	r.releaseID(p.ID())
	p.Dispose()
	r.log.Debug("deregistered pickable", zap.Uint32("id", p.ID()))
}

// Update mirrors every live entity onto its proxy. Pickables whose source
// left the scene are pruned, characters whose skinned mesh was swapped are
// rebuilt in place. It returns the number of pruned Pickables.
func (r *Registry) Update() int {
	pruned := 0
	for _, p := range r.Pickables() {
		if c, ok := p.(changeable); ok && r.live.Attached(p.SceneObject()) && c.ObjectChanged() {
			if err := c.ApplyObjectChanges(); err != nil {
				r.log.Warn("rebuild character proxy", zap.Uint32("id", p.ID()), zap.Error(err))
			}
		}
		if !p.NeedsRemoval() {
			p.Update()
		}
		if p.NeedsRemoval() {
			r.Deregister(p)
			pruned++
		}
	}
	return pruned
}

// Lookup returns the Pickable with the given ID, or nil.
func (r *Registry) Lookup(id uint32) Pickable {
	return r.byID[id]
}

// BySource returns the Pickable mirroring the given live node, or nil.
func (r *Registry) BySource(node scene.NodeID) Pickable {
	return r.bySource[node]
}

// Pickables returns all registered Pickables in ID order.
func (r *Registry) Pickables() []Pickable {
	ids := make([]uint32, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Pickable, len(ids))
	for i, id := range ids {
		out[i] = r.byID[id]
	}
	return out
}

// Len returns the number of registered Pickables.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Sync makes the registered set match sources: missing sources are
// registered and Pickables of any other source are dropped. Failed
// registrations are logged and skipped. It reports whether the set changed.
func (r *Registry) Sync(sources []scene.NodeID) bool {
	want := make(map[scene.NodeID]bool, len(sources))
	changed := false
	for _, src := range sources {
		key := src
		if n := r.live.Node(src); n != nil && n.Form == scene.FormSkinnedMesh {
			key = r.live.Parent(src)
		}
		want[key] = true
		if r.bySource[key] != nil {
			continue
		}
		if _, err := r.Register(src); err != nil {
			r.log.Warn("skipping unpickable node", zap.Stringer("node", src), zap.Error(err))
			continue
		}
		changed = true
	}
	for _, p := range r.Pickables() {
		if !want[p.SceneObject()] {
			r.Deregister(p)
			changed = true
		}
	}
	return changed
}

// Clear deregisters every Pickable.
func (r *Registry) Clear() {
	for _, p := range r.Pickables() {
		r.Deregister(p)
	}
}

func (r *Registry) allocID() (uint32, error) {
	if len(r.free) > 0 {
		id := r.free[0]
		r.free = r.free[1:]
		return id, nil
	}
	if r.next > r.limit {
		return 0, ErrIDSpaceExhausted
	}
	id := r.next
	r.next++
	return id, nil
}

func (r *Registry) releaseID(id uint32) {
	i, found := slices.BinarySearch(r.free, id)
	if !found {
		r.free = slices.Insert(r.free, i, id)
	}
}
