package handler

import (
	"go.uber.org/zap"

	"github.com/driftgate/server/internal/config"
	"github.com/driftgate/server/internal/core/event"
	"github.com/driftgate/server/internal/net"
	"github.com/driftgate/server/internal/net/packet"
	"github.com/driftgate/server/internal/persist"
	"github.com/driftgate/server/internal/world"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config      *config.Config
	Log         *zap.Logger
	Catalog     *world.Catalog
	Entities    *world.Registry
	World       *world.State
	AccountRepo *persist.AccountRepo
	PlayerRepo  *persist.PlayerRepo
	Bus         *event.Bus
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_LOGIN,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleLogin(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_ENTER_WORLD,
		[]packet.SessionState{packet.StateAuthenticated},
		func(sess any, r *packet.Reader) {
			HandleEnterWorld(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_MOVE,
		[]packet.SessionState{packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandleMove(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_CELL_LOADED,
		[]packet.SessionState{packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandleCellLoaded(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_USE_TRANSITION,
		[]packet.SessionState{packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandleUseTransition(sess.(*net.Session), r, deps)
		},
	)
}
