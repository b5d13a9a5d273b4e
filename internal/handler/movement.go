package handler

import (
	"github.com/driftgate/server/internal/geom"
	"github.com/driftgate/server/internal/net"
	"github.com/driftgate/server/internal/net/packet"
)

// HandleMove processes a position report.
// Format: [opcode][3×float32 position][float32 heading]
// The server trusts the client's position; interest recomputes are
// deferred to the interest system, which only acts once the player has
// moved far enough from the last recompute center.
func HandleMove(sess *net.Session, r *packet.Reader, deps *Deps) {
	x := r.ReadF()
	y := r.ReadF()
	z := r.ReadF()
	heading := r.ReadF()
	if r.Err() != nil {
		return
	}

	p := deps.World.GetBySession(sess.ID)
	if p == nil {
		return
	}

	pos := geom.NewVector3(x, y, z)
	if !p.Region.Bounds.Contains(pos) {
		return // reject positions outside the region envelope
	}

	p.Position = pos
	p.Heading = heading

	if avatar, ok := deps.Entities.TryGet(p.EntityID); ok {
		avatar.Position = pos
		avatar.Orientation = geom.NewVector3(heading, 0, 0)
		avatar.Cell = p.Region.CellAtPosition(pos)
	}
}
