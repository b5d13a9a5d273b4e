package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/driftgate/server/internal/core/system"
	"github.com/driftgate/server/internal/persist"
	"github.com/driftgate/server/internal/world"
)

// PersistenceSystem periodically saves every in-world player's region,
// position and heading. Phase 5 (Persist).
type PersistenceSystem struct {
	worldState *world.State
	playerRepo *persist.PlayerRepo
	interval   int // ticks between saves
	tickCount  int
	log        *zap.Logger
}

func NewPersistenceSystem(worldState *world.State, playerRepo *persist.PlayerRepo, interval int, log *zap.Logger) *PersistenceSystem {
	if interval < 1 {
		interval = 1
	}
	return &PersistenceSystem{
		worldState: worldState,
		playerRepo: playerRepo,
		interval:   interval,
		log:        log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount%s.interval != 0 {
		return
	}
	s.SaveAllPlayers()
}

// SaveAllPlayers writes every in-world player to the database. Also
// called directly during shutdown.
func (s *PersistenceSystem) SaveAllPlayers() {
	saved := 0
	s.worldState.AllPlayers(func(p *world.PlayerInfo) {
		if s.savePlayer(p) {
			saved++
		}
	})
	if saved > 0 {
		s.log.Debug("periodic player save", zap.Int("count", saved))
	}
}

func (s *PersistenceSystem) savePlayer(p *world.PlayerInfo) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := &persist.PlayerRow{
		Account:     p.Account,
		Name:        p.Name,
		RegionProto: p.Region.Proto,
		Position:    p.Position,
		Heading:     p.Heading,
	}
	if err := s.playerRepo.Save(ctx, row); err != nil {
		s.log.Error("player save failed",
			zap.String("account", p.Account),
			zap.Error(err))
		return false
	}
	return true
}
