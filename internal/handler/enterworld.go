package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/driftgate/server/internal/core/event"
	"github.com/driftgate/server/internal/geom"
	"github.com/driftgate/server/internal/net"
	"github.com/driftgate/server/internal/net/packet"
	"github.com/driftgate/server/internal/persist"
	"github.com/driftgate/server/internal/world"
)

// HandleEnterWorld puts an authenticated session into a region.
// Format: [opcode][varint region prototype] — 0 means "wherever the
// player last was", falling back to the configured default region.
func HandleEnterWorld(sess *net.Session, r *packet.Reader, deps *Deps) {
	requested := r.ReadVarUint()
	if r.Err() != nil {
		sess.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row, err := deps.PlayerRepo.Load(ctx, sess.AccountName)
	if err != nil {
		deps.Log.Error("player load failed", zap.Error(err))
		sess.Close()
		return
	}

	proto := requested
	if proto == 0 {
		proto = deps.Config.World.DefaultRegion
		if row != nil {
			proto = row.RegionProto
		}
	}
	region := deps.Catalog.Get(proto)

	pos := region.EntryPosition
	heading := float32(0)
	if row != nil && row.RegionProto == region.Proto {
		pos = row.Position
		heading = row.Heading
	}
	if row == nil {
		row = &persist.PlayerRow{
			Account:     sess.AccountName,
			Name:        sess.AccountName,
			RegionProto: region.Proto,
			Position:    pos,
			Heading:     heading,
		}
		if err := deps.PlayerRepo.Create(ctx, row); err != nil {
			deps.Log.Error("player create failed", zap.Error(err))
			sess.Close()
			return
		}
	}

	avatar := deps.Entities.Create(world.KindAvatar, region.ID, 0, pos,
		geom.NewVector3(heading, 0, 0), region.CellAtPosition(pos), nil)

	p := &world.PlayerInfo{
		SessionID: sess.ID,
		Session:   sess,
		Account:   sess.AccountName,
		Name:      row.Name,
		EntityID:  avatar.ID,
		Region:    region,
		Position:  pos,
		Heading:   heading,
		Tracker:   world.NewInterestTracker(),
	}
	deps.World.AddPlayer(p)

	sess.SetState(packet.StateInWorld)
	sess.Send(packet.BuildEnterWorldOK(region.Proto, pos))
	SendFirstLoad(p, deps)

	event.Emit(deps.Bus, event.PlayerEnteredWorld{
		SessionID:   sess.ID,
		EntityID:    avatar.ID,
		RegionProto: region.Proto,
	})

	deps.Log.Info("player entered world",
		zap.String("account", sess.AccountName),
		zap.Uint64("region", region.Proto))
}

// SendFirstLoad runs the initial cell load and entity stream for the
// player's current region and position. When the position maps to no
// cell yet, the load is deferred to the interest system's next pass.
func SendFirstLoad(p *world.PlayerInfo, deps *Deps) {
	msgs, loaded := p.Tracker.LoadCellMessages(p.Region, p.Position)
	if loaded == 0 {
		p.FirstLoadPending = true
		deps.Log.Warn("entry position outside any cell, deferring first load",
			zap.String("account", p.Account),
			zap.Uint64("region", p.Region.Proto))
		return
	}
	p.FirstLoadPending = false
	p.Session.SendAll(msgs)
	p.Session.SendAll(p.Tracker.EntitiesForRegion(p.Region, deps.Entities))
}
