package packet

import (
	"github.com/driftgate/server/internal/geom"
)

// Builders for the outgoing world-streaming messages. Each returns a
// complete payload ready for framing; the interest tracker composes
// them into the per-tick message list.

// BuildAddArea announces an area before any of its cells are created.
// isStart flags the area containing the player's entry cell.
func BuildAddArea(areaID uint32, areaProto uint64, isStart bool) []byte {
	w := NewWriterWithOpcode(S_OPCODE_ADD_AREA)
	w.WriteVarUint(uint64(areaID))
	w.WriteVarUint(areaProto)
	if isStart {
		w.WriteC(1)
	} else {
		w.WriteC(0)
	}
	return w.Bytes()
}

// BuildCellCreate carries the cell's geometry reference and bounds. The
// owning area must already have been announced via add-area.
func BuildCellCreate(cellID, areaID uint32, cellProto uint64, bounds geom.Aabb) []byte {
	w := NewWriterWithOpcode(S_OPCODE_CELL_CREATE)
	w.WriteVarUint(uint64(cellID))
	w.WriteVarUint(uint64(areaID))
	w.WriteQ(cellProto)
	w.WriteF(bounds.Min.X)
	w.WriteF(bounds.Min.Y)
	w.WriteF(bounds.Min.Z)
	w.WriteF(bounds.Max.X)
	w.WriteF(bounds.Max.Y)
	w.WriteF(bounds.Max.Z)
	return w.Bytes()
}

// BuildEntityCreate attaches the entity's opaque archive blob untouched;
// the streaming layer never interprets archive contents.
func BuildEntityCreate(entityID, replicationID, protoRef uint64, pos, orient geom.Vector3, archive []byte) []byte {
	w := NewWriterWithOpcode(S_OPCODE_ENTITY_CREATE)
	w.WriteVarUint(entityID)
	w.WriteVarUint(replicationID)
	w.WriteQ(protoRef)
	w.WriteF(pos.X)
	w.WriteF(pos.Y)
	w.WriteF(pos.Z)
	w.WriteF(orient.X)
	w.WriteF(orient.Y)
	w.WriteF(orient.Z)
	w.WriteBlob(archive)
	return w.Bytes()
}

func BuildEntityDestroy(entityID uint64) []byte {
	w := NewWriterWithOpcode(S_OPCODE_ENTITY_DESTROY)
	w.WriteVarUint(entityID)
	return w.Bytes()
}

func BuildEnvironmentUpdate(flags uint32) []byte {
	w := NewWriterWithOpcode(S_OPCODE_ENV_UPDATE)
	w.WriteVarUint(uint64(flags))
	return w.Bytes()
}

// MiniMapArchive is the archive payload of the minimap-update message.
// Hub regions send a full reveal with no tile data; everywhere else the
// client starts from an unexplored map.
type MiniMapArchive struct {
	RevealAll bool
	Map       []byte
}

func (a *MiniMapArchive) Encode() []byte {
	w := NewWriter()
	if a.RevealAll {
		w.WriteC(1)
	} else {
		w.WriteC(0)
	}
	w.WriteBlob(a.Map)
	return w.Bytes()
}

func DecodeMiniMapArchive(data []byte) (*MiniMapArchive, error) {
	r := NewRecordReader(data)
	a := &MiniMapArchive{}
	a.RevealAll = r.ReadC() == 1
	a.Map = r.ReadBlob()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

func BuildUpdateMiniMap(archive *MiniMapArchive) []byte {
	w := NewWriterWithOpcode(S_OPCODE_MINIMAP_UPDATE)
	w.WriteBlob(archive.Encode())
	return w.Bytes()
}

func BuildLoginOK() []byte {
	w := NewWriterWithOpcode(S_OPCODE_LOGIN_OK)
	return w.Bytes()
}

func BuildLoginFail(reason byte) []byte {
	w := NewWriterWithOpcode(S_OPCODE_LOGIN_FAIL)
	w.WriteC(reason)
	return w.Bytes()
}

func BuildEnterWorldOK(regionProto uint64, pos geom.Vector3) []byte {
	w := NewWriterWithOpcode(S_OPCODE_ENTER_WORLD_OK)
	w.WriteVarUint(regionProto)
	w.WriteF(pos.X)
	w.WriteF(pos.Y)
	w.WriteF(pos.Z)
	return w.Bytes()
}

func BuildTeleport(regionProto uint64, pos geom.Vector3) []byte {
	w := NewWriterWithOpcode(S_OPCODE_TELEPORT)
	w.WriteVarUint(regionProto)
	w.WriteF(pos.X)
	w.WriteF(pos.Y)
	w.WriteF(pos.Z)
	return w.Bytes()
}
