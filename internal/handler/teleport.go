package handler

import (
	"go.uber.org/zap"

	"github.com/driftgate/server/internal/geom"
	"github.com/driftgate/server/internal/net"
	"github.com/driftgate/server/internal/net/packet"
	"github.com/driftgate/server/internal/world"
)

// HandleUseTransition processes a teleporter use.
// Format: [opcode][varint transition entity id]
// In-region teleports move the player and stream the landing cell; a
// destination naming another region tears down the tracker and re-enters
// through the first-load path.
func HandleUseTransition(sess *net.Session, r *packet.Reader, deps *Deps) {
	entityID := r.ReadVarUint()
	if r.Err() != nil {
		return
	}

	p := deps.World.GetBySession(sess.ID)
	if p == nil {
		return
	}

	trans, ok := deps.Entities.TryGet(entityID)
	if !ok || !trans.IsTransition() || trans.RegionID != p.Region.ID {
		deps.Log.Warn("invalid transition use",
			zap.Uint64("entity", entityID),
			zap.String("account", p.Account))
		return
	}
	dest := trans.Destination
	if dest == nil {
		return
	}

	if dest.RegionProto != 0 && dest.RegionProto != p.Region.Proto {
		teleportToRegion(p, dest, deps)
		return
	}
	teleportInRegion(p, dest, deps)
}

// teleportInRegion lands the player at the destination entity inside the
// current region. The landing cell streams through UpdateCells when it
// is not yet tracked; its entities follow either immediately (cell
// already acked) or on the client's cell-loaded ack.
func teleportInRegion(p *world.PlayerInfo, dest *world.Destination, deps *Deps) {
	target := deps.Entities.FindByDestination(dest, p.Region.ID)
	if target == nil {
		deps.Log.Warn("transition destination unresolved",
			zap.Uint64("entity_proto", dest.EntityProto),
			zap.Uint64("region", p.Region.Proto))
		return
	}

	pos := target.Position
	movePlayer(p, pos, deps)

	p.Session.Send(packet.BuildTeleport(p.Region.Proto, pos))
	p.Session.SendAll(p.Tracker.UpdateCells(p.Region, pos))

	if target.Cell != nil && !p.Tracker.CheckTargetCell(target) {
		p.Session.SendAll(p.Tracker.EntitiesForCellID(p.Region, deps.Entities, target.Cell.ID))
	}
	p.Session.SendAll(p.Tracker.UpdateEntity(p.Region, deps.Entities, pos))
}

// teleportToRegion switches regions: fresh tracker, entry through the
// first-load sequence, the avatar entity rehomed to the new region.
func teleportToRegion(p *world.PlayerInfo, dest *world.Destination, deps *Deps) {
	region := deps.Catalog.Get(dest.RegionProto)

	pos := region.EntryPosition
	if target := deps.Entities.FindByDestination(dest, region.ID); target != nil {
		pos = target.Position
	} else if dest.Position != (geom.Vector3{}) {
		pos = dest.Position
	}

	p.Region = region
	p.Tracker = world.NewInterestTracker()
	movePlayer(p, pos, deps)

	if avatar, ok := deps.Entities.TryGet(p.EntityID); ok {
		avatar.RegionID = region.ID
	}

	p.Session.Send(packet.BuildTeleport(region.Proto, pos))
	SendFirstLoad(p, deps)

	deps.Log.Info("player changed region",
		zap.String("account", p.Account),
		zap.Uint64("region", region.Proto))
}

func movePlayer(p *world.PlayerInfo, pos geom.Vector3, deps *Deps) {
	p.Position = pos
	if avatar, ok := deps.Entities.TryGet(p.EntityID); ok {
		avatar.Position = pos
		avatar.Cell = p.Region.CellAtPosition(pos)
	}
}
