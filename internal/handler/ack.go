package handler

import (
	"github.com/driftgate/server/internal/net"
	"github.com/driftgate/server/internal/net/packet"
)

// HandleCellLoaded records the client's ack that it finished loading a
// cell, then streams the cell's entities so they appear without waiting
// for the next interest pass.
func HandleCellLoaded(sess *net.Session, r *packet.Reader, deps *Deps) {
	cellID := uint32(r.ReadVarUint())
	if r.Err() != nil {
		return
	}

	p := deps.World.GetBySession(sess.ID)
	if p == nil {
		return
	}

	p.Tracker.OnCellLoaded(cellID)
	sess.SendAll(p.Tracker.EntitiesForCellID(p.Region, deps.Entities, cellID))
}
