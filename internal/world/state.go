package world

import (
	"github.com/driftgate/server/internal/geom"
	"github.com/driftgate/server/internal/net"
)

// PlayerInfo holds in-memory data for a player currently in-world.
// Accessed only from the game loop goroutine — no locks needed.
type PlayerInfo struct {
	SessionID uint64
	Session   *net.Session
	Account   string
	Name      string

	EntityID uint64 // player entity in the registry
	Region   *Region
	Position geom.Vector3
	Heading  float32

	// Tracker is this connection's interest engine. Reset (not reused)
	// on region change so a teleport re-enters via first load.
	Tracker *InterestTracker

	// FirstLoadPending is set when the entry position mapped to no cell;
	// the interest system retries the first load next tick.
	FirstLoadPending bool
}

// State is the in-world player roster, keyed by session ID. Owned by
// the game loop goroutine.
type State struct {
	players map[uint64]*PlayerInfo
}

func NewState() *State {
	return &State{players: make(map[uint64]*PlayerInfo)}
}

func (s *State) AddPlayer(p *PlayerInfo) {
	s.players[p.SessionID] = p
}

func (s *State) RemovePlayer(sessionID uint64) *PlayerInfo {
	p := s.players[sessionID]
	delete(s.players, sessionID)
	return p
}

func (s *State) GetBySession(sessionID uint64) *PlayerInfo {
	return s.players[sessionID]
}

// AllPlayers iterates every in-world player. Safe to remove the current
// player during iteration.
func (s *State) AllPlayers(fn func(*PlayerInfo)) {
	for _, p := range s.players {
		fn(p)
	}
}

func (s *State) PlayerCount() int {
	return len(s.players)
}
