package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session queues, dispatch packets
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: game logic
	PhasePostUpdate              // 3: interest recompute, replication
	PhaseOutput                  // 4: flush session output buffers
	PhasePersist                 // 5: batch save
	PhaseCleanup                 // 6: drop disconnected sessions
)

// System is one unit of per-tick work, run by the game loop in phase order.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
