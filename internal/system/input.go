package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/driftgate/server/internal/core/event"
	coresys "github.com/driftgate/server/internal/core/system"
	"github.com/driftgate/server/internal/handler"
	"github.com/driftgate/server/internal/net"
	"github.com/driftgate/server/internal/net/packet"
	"github.com/driftgate/server/internal/persist"
	"github.com/driftgate/server/internal/world"
)

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	netServer  *net.Server
	registry   *packet.Registry
	store      *net.SessionStore
	maxPerTick int
	deps       *handler.Deps
	log        *zap.Logger
}

func NewInputSystem(netServer *net.Server, registry *packet.Registry, store *net.SessionStore, maxPerTick int, deps *handler.Deps, log *zap.Logger) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		registry:   registry,
		store:      store,
		maxPerTick: maxPerTick,
		deps:       deps,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions reported by other systems
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			if sess := s.store.Get(id); sess != nil {
				s.handleDisconnect(sess)
			}
			s.store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain packets from each session (up to maxPerTick per session)
	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			// Drain remaining packets before cleanup so a final position
			// report still lands.
			s.drainSession(sess)
			sess.FlushOutput()
			s.handleDisconnect(sess)
			s.netServer.NotifyDead(sess.ID)
			s.store.Remove(sess.ID)
			return
		}
		s.drainSession(sess)
	})

	// Early flush: messages produced in this phase reach the writer
	// goroutines while the later phases run. The output phase flushes
	// whatever the remaining phases add.
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

func (s *InputSystem) drainSession(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("packet dispatch error",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect saves and removes the player behind a closed session,
// destroys their avatar, and marks the account offline.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	p := s.deps.World.RemovePlayer(sess.ID)
	if p != nil {
		s.savePlayer(p)
		s.deps.Entities.Destroy(p.EntityID)
		event.Emit(s.deps.Bus, event.PlayerDisconnected{
			SessionID: sess.ID,
			EntityID:  p.EntityID,
		})
	}

	if sess.AccountName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.AccountRepo.SetOnline(ctx, sess.AccountName, false); err != nil {
			s.log.Warn("set offline failed", zap.Error(err))
		}
	}

	s.log.Info("session closed",
		zap.Uint64("session", sess.ID),
		zap.String("account", sess.AccountName))
}

func (s *InputSystem) savePlayer(p *world.PlayerInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := &persist.PlayerRow{
		Account:     p.Account,
		Name:        p.Name,
		RegionProto: p.Region.Proto,
		Position:    p.Position,
		Heading:     p.Heading,
	}
	if err := s.deps.PlayerRepo.Save(ctx, row); err != nil {
		s.log.Error("player save on disconnect failed",
			zap.String("account", p.Account),
			zap.Error(err))
	}
}
