package world

import (
	"errors"
	"sort"
	"sync"

	"github.com/driftgate/server/internal/geom"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get for an unknown entity ID.
var ErrNotFound = errors.New("world: entity not found")

// ID allocation starts above the reserved range so generated IDs never
// collide with well-known fixed entities. Replication IDs key property
// collection sync and advance independently of entity identity.
const (
	firstEntityID      uint64 = 1000
	firstReplicationID uint64 = 50000
)

// Registry owns entity identity and storage. Create/Destroy and all
// lookups are serialized by one mutex: boot-time spawning runs off the
// game loop goroutine, and entity counts per region are small enough
// that sharding would buy nothing.
type Registry struct {
	mu       sync.Mutex
	entities map[uint64]*Entity

	nextEntityID      uint64
	nextReplicationID uint64

	log *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		entities:          make(map[uint64]*Entity),
		nextEntityID:      firstEntityID,
		nextReplicationID: firstReplicationID,
		log:               log,
	}
}

func (r *Registry) genEntityID() uint64 {
	id := r.nextEntityID
	r.nextEntityID++
	return id
}

func (r *Registry) genReplicationID() uint64 {
	id := r.nextReplicationID
	r.nextReplicationID++
	return id
}

// LastEntityID returns the next ID to be allocated. Diagnostic only.
func (r *Registry) LastEntityID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextEntityID
}

// Create allocates identity for a new entity of any kind and stores it.
func (r *Registry) Create(kind EntityKind, regionID, proto uint64, pos, orient geom.Vector3, cell *Cell, archive []byte) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entity{
		ID:            r.genEntityID(),
		ReplicationID: r.genReplicationID(),
		Kind:          kind,
		PrototypeRef:  proto,
		RegionID:      regionID,
		Cell:          cell,
		Position:      pos,
		Orientation:   orient,
		Archive:       archive,
	}
	r.entities[e.ID] = e
	return e
}

// CreateTransition spawns a teleporter with its landing destination.
// contextAreaRef names the area the transition belongs to, matched by
// destination lookups that specify an area.
func (r *Registry) CreateTransition(regionID, proto uint64, pos, orient geom.Vector3, cell *Cell, contextAreaRef uint64, dest *Destination, archive []byte) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entity{
		ID:             r.genEntityID(),
		ReplicationID:  r.genReplicationID(),
		Kind:           KindTransition,
		PrototypeRef:   proto,
		RegionID:       regionID,
		Cell:           cell,
		ContextAreaRef: contextAreaRef,
		Position:       pos,
		Orientation:    orient,
		Archive:        archive,
		Destination:    dest,
	}
	r.entities[e.ID] = e
	return e
}

// Destroy removes the entity if present. A missing ID is a warning, not
// an error: callers may race with other removers.
func (r *Registry) Destroy(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[id]; !ok {
		r.log.Warn("destroy of unknown entity", zap.Uint64("entity_id", id))
		return false
	}
	delete(r.entities, id)
	return true
}

// Get returns the entity or ErrNotFound.
func (r *Registry) Get(id uint64) (*Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// TryGet returns the entity and whether it exists; it never fails.
func (r *Registry) TryGet(id uint64) (*Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	return e, ok
}

// FindByPrototype returns the first entity with the given prototype ref,
// or nil. Linear scan: populations are bounded and this is a cold path.
func (r *Registry) FindByPrototype(proto uint64) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entities {
		if e.PrototypeRef == proto {
			return e
		}
	}
	return nil
}

// FindByPrototypeInRegion restricts FindByPrototype to one region.
func (r *Registry) FindByPrototypeInRegion(proto, regionID uint64) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entities {
		if e.PrototypeRef == proto && e.RegionID == regionID {
			return e
		}
	}
	return nil
}

// FindByDestination resolves a transition target to its landing entity:
// the entity in regionID whose prototype matches the destination's
// entity ref, additionally matching the destination's area when one is
// specified.
func (r *Registry) FindByDestination(dest *Destination, regionID uint64) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entities {
		if e.PrototypeRef != dest.EntityProto || e.RegionID != regionID {
			continue
		}
		if dest.AreaProto == 0 || e.ContextAreaRef == dest.AreaProto {
			return e
		}
	}
	return nil
}

// EntitiesInRegion returns a snapshot of the region's entities in
// ascending ID order, so downstream message emission is deterministic.
func (r *Registry) EntitiesInRegion(regionID uint64) []*Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Entity
	for _, e := range r.entities {
		if e.RegionID == regionID {
			out = append(out, e)
		}
	}
	sortByID(out)
	return out
}

// EntitiesInCell returns a snapshot of the cell's entities in ascending
// ID order.
func (r *Registry) EntitiesInCell(cell *Cell) []*Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Entity
	for _, e := range r.entities {
		if e.Cell == cell {
			out = append(out, e)
		}
	}
	sortByID(out)
	return out
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entities)
}

func sortByID(entities []*Entity) {
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].ID < entities[j].ID
	})
}
