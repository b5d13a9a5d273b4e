package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/driftgate/server/internal/core/system"
	"github.com/driftgate/server/internal/handler"
	"github.com/driftgate/server/internal/world"
)

// InterestSystem recomputes each player's area-of-interest and streams
// cell and entity updates. Phase 3 (PostUpdate), so it sees positions
// from this tick's input.
type InterestSystem struct {
	worldState *world.State
	deps       *handler.Deps
	interval   int
	tickCount  int
	log        *zap.Logger
}

func NewInterestSystem(worldState *world.State, deps *handler.Deps, interval int, log *zap.Logger) *InterestSystem {
	if interval < 1 {
		interval = 1
	}
	return &InterestSystem{
		worldState: worldState,
		deps:       deps,
		interval:   interval,
		log:        log,
	}
}

func (s *InterestSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *InterestSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount%s.interval != 0 {
		return
	}

	s.worldState.AllPlayers(func(p *world.PlayerInfo) {
		if p.Session == nil || p.Session.IsClosed() {
			return
		}

		// The entry position mapped to no cell at enter-world time;
		// keep retrying until the region resolves a start cell.
		if p.FirstLoadPending {
			handler.SendFirstLoad(p, s.deps)
			return
		}

		if !p.Tracker.ShouldUpdate(p.Position) {
			return
		}

		cellMsgs := p.Tracker.UpdateCells(p.Region, p.Position)
		p.Session.SendAll(cellMsgs)

		entityMsgs := p.Tracker.UpdateEntity(p.Region, s.deps.Entities, p.Position)
		p.Session.SendAll(entityMsgs)
	})
}
