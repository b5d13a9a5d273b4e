package world

import (
	"github.com/driftgate/server/internal/geom"
)

// EntityKind is the closed set of entity variants. The streaming layer
// only ever branches on the tag; everything kind-specific lives in the
// opaque archive payload.
type EntityKind uint8

const (
	KindWorld EntityKind = iota
	KindTransition
	KindItem
	KindPlayer
	KindAvatar
)

func (k EntityKind) String() string {
	switch k {
	case KindWorld:
		return "world"
	case KindTransition:
		return "transition"
	case KindItem:
		return "item"
	case KindPlayer:
		return "player"
	case KindAvatar:
		return "avatar"
	default:
		return "unknown"
	}
}

// Destination describes where a transition leads. Area and Cell are
// optional refinements (zero = unspecified); EntityProto names the
// landing entity's prototype inside the target region.
type Destination struct {
	Type        int32 // 1 = in-region teleport, 2 = region change
	RegionProto uint64
	AreaProto   uint64
	CellProto   uint64
	EntityProto uint64
	Position    geom.Vector3
}

// Entity is one live world object. The registry stores all variants
// uniformly; Cell is nil while the entity is pending placement.
type Entity struct {
	ID            uint64
	ReplicationID uint64
	Kind          EntityKind
	PrototypeRef  uint64

	RegionID       uint64
	Cell           *Cell
	ContextAreaRef uint64

	Position    geom.Vector3
	Orientation geom.Vector3

	// Archive is the serialized type-specific payload, produced by the
	// content pipeline and passed through to create messages untouched.
	Archive []byte

	// Destination is set only for KindTransition.
	Destination *Destination
}

// IsTransition reports whether the entity is a teleporter. Transitions
// are exempt from staleness eviction while tracked.
func (e *Entity) IsTransition() bool {
	return e.Kind == KindTransition
}
