package system

import (
	"time"

	"github.com/driftgate/server/internal/core/event"
	coresys "github.com/driftgate/server/internal/core/system"
)

// EventDispatchSystem swaps the event bus buffers and dispatches all
// events emitted during the previous tick. Phase 1 (PreUpdate), so
// handlers see a stable snapshot.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
