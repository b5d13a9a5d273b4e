package world

import (
	"testing"

	"github.com/driftgate/server/internal/geom"
	"github.com/driftgate/server/internal/net/packet"
	"go.uber.org/zap"
)

// threeAreaRegion extends the 2x2 grid with area 3 east of area 1:
// cell 5 at x 4608..6912 and cell 6 at x 6912..9216, both reachable
// from the start area.
func threeAreaRegion() *Region {
	r := twoAreaRegion(true)

	a3 := &Area{ID: 3, PrototypeRef: 103}
	a3.AddCell(&Cell{ID: 5, PrototypeRef: 1005, Bounds: geom.NewAabb(
		geom.NewVector3(4608, 0, -2048), geom.NewVector3(6912, 2304, 2048))})
	a3.AddCell(&Cell{ID: 6, PrototypeRef: 1006, Bounds: geom.NewAabb(
		geom.NewVector3(6912, 0, -2048), geom.NewVector3(9216, 2304, 2048))})
	r.AddArea(a3)
	r.AreaByID(1).Connect(a3)
	return r
}

func msgOpcode(t *testing.T, msg []byte) byte {
	t.Helper()
	if len(msg) == 0 {
		t.Fatalf("empty message")
	}
	return msg[0]
}

// readAddArea decodes areaID and start flag from an add-area message.
func readAddArea(t *testing.T, msg []byte) (uint32, bool) {
	t.Helper()
	if msgOpcode(t, msg) != packet.S_OPCODE_ADD_AREA {
		t.Fatalf("opcode = %#x, want add-area", msg[0])
	}
	r := packet.NewReader(msg)
	areaID := uint32(r.ReadVarUint())
	r.ReadVarUint() // prototype
	start := r.ReadC() == 1
	if err := r.Err(); err != nil {
		t.Fatalf("decode add-area: %v", err)
	}
	return areaID, start
}

func readCellCreate(t *testing.T, msg []byte) (cellID, areaID uint32) {
	t.Helper()
	if msgOpcode(t, msg) != packet.S_OPCODE_CELL_CREATE {
		t.Fatalf("opcode = %#x, want cell-create", msg[0])
	}
	r := packet.NewReader(msg)
	cellID = uint32(r.ReadVarUint())
	areaID = uint32(r.ReadVarUint())
	if err := r.Err(); err != nil {
		t.Fatalf("decode cell-create: %v", err)
	}
	return cellID, areaID
}

func readEntityID(t *testing.T, msg []byte) uint64 {
	t.Helper()
	r := packet.NewReader(msg)
	id := r.ReadVarUint()
	if err := r.Err(); err != nil {
		t.Fatalf("decode entity message: %v", err)
	}
	return id
}

func TestLoadCellMessagesOrdering(t *testing.T) {
	region := twoAreaRegion(true)
	tracker := NewInterestTracker()

	msgs, loaded := tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))
	if loaded != 4 {
		t.Fatalf("loaded = %d, want 4", loaded)
	}
	if len(msgs) != 6 {
		t.Fatalf("got %d messages, want 6", len(msgs))
	}

	wantOps := []byte{
		packet.S_OPCODE_ADD_AREA,
		packet.S_OPCODE_CELL_CREATE,
		packet.S_OPCODE_CELL_CREATE,
		packet.S_OPCODE_ADD_AREA,
		packet.S_OPCODE_CELL_CREATE,
		packet.S_OPCODE_CELL_CREATE,
	}
	for i, op := range wantOps {
		if got := msgOpcode(t, msgs[i]); got != op {
			t.Fatalf("message %d opcode = %#x, want %#x", i, got, op)
		}
	}

	if areaID, start := readAddArea(t, msgs[0]); areaID != 1 || !start {
		t.Fatalf("first add-area = (%d, %v), want (1, start)", areaID, start)
	}
	if areaID, start := readAddArea(t, msgs[3]); areaID != 2 || start {
		t.Fatalf("second add-area = (%d, %v), want (2, non-start)", areaID, start)
	}

	wantCells := [][2]uint32{{1, 1}, {2, 1}, {3, 2}, {4, 2}}
	for i, idx := range []int{1, 2, 4, 5} {
		cellID, areaID := readCellCreate(t, msgs[idx])
		if cellID != wantCells[i][0] || areaID != wantCells[i][1] {
			t.Fatalf("cell-create %d = (%d, %d), want %v", idx, cellID, areaID, wantCells[i])
		}
	}

	for id, status := range tracker.LoadedCells {
		if !status.Loaded {
			t.Fatalf("cell %d not marked loaded after first load", id)
		}
	}
}

func TestLoadCellMessagesNoStartCell(t *testing.T) {
	region := twoAreaRegion(true)
	tracker := NewInterestTracker()

	msgs, loaded := tracker.LoadCellMessages(region, geom.NewVector3(-5000, -5000, 0))
	if msgs != nil || loaded != 0 {
		t.Fatalf("expected no messages off the map, got %d messages, %d loaded", len(msgs), loaded)
	}
}

func TestLoadCellMessagesSkipsUnconnectedArea(t *testing.T) {
	region := twoAreaRegion(false)
	tracker := NewInterestTracker()

	msgs, loaded := tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))
	if loaded != 2 {
		t.Fatalf("loaded = %d, want 2 (start area only)", loaded)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for _, msg := range msgs[1:] {
		if _, areaID := readCellCreate(t, msg); areaID != 1 {
			t.Fatalf("streamed a cell of unconnected area %d", areaID)
		}
	}
}

func TestEntitiesForRegionOnlyLoadedCells(t *testing.T) {
	region := twoAreaRegion(false) // area 2 stays unloaded
	reg := NewRegistry(zap.NewNop())
	tracker := NewInterestTracker()

	cell1 := region.CellByID(1)
	cell3 := region.CellByID(3)
	worldE := reg.Create(KindWorld, region.ID, 7001, geom.NewVector3(500, 500, 0), geom.Vector3{}, cell1, nil)
	trans := reg.CreateTransition(region.ID, 7002, geom.NewVector3(600, 600, 0), geom.Vector3{}, cell1, 101, &Destination{}, nil)
	reg.Create(KindWorld, region.ID, 7003, geom.NewVector3(500, 3000, 0), geom.Vector3{}, cell3, nil)

	tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))
	msgs := tracker.EntitiesForRegion(region, reg)
	if len(msgs) != 2 {
		t.Fatalf("got %d entity creates, want 2", len(msgs))
	}
	if readEntityID(t, msgs[0]) != worldE.ID || readEntityID(t, msgs[1]) != trans.ID {
		t.Fatalf("creates out of ID order")
	}

	if !tracker.LoadedEntities[trans.ID].InterestToPlayer {
		t.Fatalf("transition not flagged interesting")
	}
	if tracker.LoadedEntities[worldE.ID].InterestToPlayer {
		t.Fatalf("plain entity wrongly flagged interesting")
	}
}

func TestUpdateCellsStreamsNewArea(t *testing.T) {
	region := threeAreaRegion()
	tracker := NewInterestTracker()

	tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))
	if len(tracker.LoadedCells) != 4 {
		t.Fatalf("first load tracked %d cells, want 4", len(tracker.LoadedCells))
	}

	msgs := tracker.UpdateCells(region, geom.NewVector3(3000, 1000, 0))
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want add-area + cell-create + env + minimap", len(msgs))
	}
	if areaID, start := readAddArea(t, msgs[0]); areaID != 3 || start {
		t.Fatalf("add-area = (%d, %v), want (3, non-start)", areaID, start)
	}
	if cellID, areaID := readCellCreate(t, msgs[1]); cellID != 5 || areaID != 3 {
		t.Fatalf("cell-create = (%d, %d), want (5, 3)", cellID, areaID)
	}
	if msgOpcode(t, msgs[2]) != packet.S_OPCODE_ENV_UPDATE {
		t.Fatalf("message 2 opcode = %#x, want env-update", msgs[2][0])
	}
	if msgOpcode(t, msgs[3]) != packet.S_OPCODE_MINIMAP_UPDATE {
		t.Fatalf("message 3 opcode = %#x, want minimap-update", msgs[3][0])
	}

	if tracker.LoadedCells[5].Loaded {
		t.Fatalf("streamed cell must await client ack")
	}
	if tracker.CellsInRegion != 5 {
		t.Fatalf("CellsInRegion = %d, want 5", tracker.CellsInRegion)
	}

	// Nothing new in the volume: no traffic at all, not even env/minimap.
	if msgs := tracker.UpdateCells(region, geom.NewVector3(3000, 1000, 0)); len(msgs) != 0 {
		t.Fatalf("repeat update emitted %d messages, want 0", len(msgs))
	}
}

func TestUpdateCellsAnnouncesAreaOnce(t *testing.T) {
	region := threeAreaRegion()
	tracker := NewInterestTracker()

	tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))
	tracker.UpdateCells(region, geom.NewVector3(3000, 1000, 0)) // streams cell 5, announces area 3

	msgs := tracker.UpdateCells(region, geom.NewVector3(5500, 1000, 0)) // streams cell 6
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want cell-create + env + minimap", len(msgs))
	}
	if cellID, areaID := readCellCreate(t, msgs[0]); cellID != 6 || areaID != 3 {
		t.Fatalf("cell-create = (%d, %d), want (6, 3)", cellID, areaID)
	}
}

func TestUpdateCellsNeverEvicts(t *testing.T) {
	region := threeAreaRegion()
	tracker := NewInterestTracker()

	tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))
	tracker.UpdateCells(region, geom.NewVector3(3000, 1000, 0))
	tracker.UpdateCells(region, geom.NewVector3(5500, 1000, 0))
	// Walk back: cells far behind stay tracked.
	tracker.UpdateCells(region, geom.NewVector3(1000, 1000, 0))

	if len(tracker.LoadedCells) != 6 {
		t.Fatalf("tracked %d cells after walking back, want 6", len(tracker.LoadedCells))
	}
}

func TestUpdateEntityEvictionAndAckGating(t *testing.T) {
	region := threeAreaRegion()
	reg := NewRegistry(zap.NewNop())
	tracker := NewInterestTracker()

	cell1 := region.CellByID(1)
	cell5 := region.CellByID(5)
	worldE := reg.Create(KindWorld, region.ID, 7001, geom.NewVector3(500, 500, 0), geom.Vector3{}, cell1, nil)
	trans := reg.CreateTransition(region.ID, 7002, geom.NewVector3(600, 600, 0), geom.Vector3{}, cell1, 101, &Destination{}, nil)
	farE := reg.Create(KindWorld, region.ID, 7003, geom.NewVector3(6000, 1000, 0), geom.Vector3{}, cell5, nil)

	tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))
	tracker.EntitiesForRegion(region, reg)
	if len(tracker.LoadedEntities) != 2 {
		t.Fatalf("tracked %d entities after first load, want 2", len(tracker.LoadedEntities))
	}

	// Move east; cell 5 streams but is not yet acked.
	far := geom.NewVector3(6000, 1000, 0)
	tracker.UpdateCells(region, far)

	msgs := tracker.UpdateEntity(region, reg, far)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 destroy", len(msgs))
	}
	if msgOpcode(t, msgs[0]) != packet.S_OPCODE_ENTITY_DESTROY {
		t.Fatalf("opcode = %#x, want entity-destroy", msgs[0][0])
	}
	if readEntityID(t, msgs[0]) != worldE.ID {
		t.Fatalf("destroyed entity %d, want %d", readEntityID(t, msgs[0]), worldE.ID)
	}
	if _, ok := tracker.LoadedEntities[trans.ID]; !ok {
		t.Fatalf("transition evicted despite interest flag")
	}
	if _, ok := tracker.LoadedEntities[farE.ID]; ok {
		t.Fatalf("entity in unacked cell must not be tracked yet")
	}

	// Client acks the cell; the entity streams on the next pass.
	tracker.OnCellLoaded(5)
	msgs = tracker.UpdateEntity(region, reg, far)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages after ack, want 1 create", len(msgs))
	}
	if msgOpcode(t, msgs[0]) != packet.S_OPCODE_ENTITY_CREATE {
		t.Fatalf("opcode = %#x, want entity-create", msgs[0][0])
	}
	if readEntityID(t, msgs[0]) != farE.ID {
		t.Fatalf("created entity %d, want %d", readEntityID(t, msgs[0]), farE.ID)
	}
}

func TestUpdateEntityDestroysAfterCreates(t *testing.T) {
	region := threeAreaRegion()
	reg := NewRegistry(zap.NewNop())
	tracker := NewInterestTracker()

	cell1 := region.CellByID(1)
	cell5 := region.CellByID(5)
	nearE := reg.Create(KindWorld, region.ID, 7001, geom.NewVector3(500, 500, 0), geom.Vector3{}, cell1, nil)
	farE := reg.Create(KindWorld, region.ID, 7002, geom.NewVector3(6000, 1000, 0), geom.Vector3{}, cell5, nil)

	tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))
	tracker.EntitiesForRegion(region, reg)

	far := geom.NewVector3(6000, 1000, 0)
	tracker.UpdateCells(region, far)
	tracker.OnCellLoaded(5)

	msgs := tracker.UpdateEntity(region, reg, far)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want create then destroy", len(msgs))
	}
	if msgOpcode(t, msgs[0]) != packet.S_OPCODE_ENTITY_CREATE || readEntityID(t, msgs[0]) != farE.ID {
		t.Fatalf("first message must create entity %d", farE.ID)
	}
	if msgOpcode(t, msgs[1]) != packet.S_OPCODE_ENTITY_DESTROY || readEntityID(t, msgs[1]) != nearE.ID {
		t.Fatalf("second message must destroy entity %d", nearE.ID)
	}
}

func TestShouldUpdateThreshold(t *testing.T) {
	region := twoAreaRegion(true)
	tracker := NewInterestTracker()

	center := geom.NewVector3(1000, 1000, 0)
	tracker.LoadCellMessages(region, center)

	if tracker.ShouldUpdate(geom.NewVector3(1199, 1000, 0)) {
		t.Fatalf("moved 199 units, must not trigger recompute")
	}
	if !tracker.ShouldUpdate(geom.NewVector3(1200, 1000, 0)) {
		t.Fatalf("moved 200 units, must trigger recompute")
	}
	// Vertical movement alone never triggers.
	if tracker.ShouldUpdate(geom.NewVector3(1000, 1000, 50000)) {
		t.Fatalf("pure Z movement must not trigger recompute")
	}
}

func TestCheckTargetCell(t *testing.T) {
	region := twoAreaRegion(true)
	tracker := NewInterestTracker()
	tracker.LoadCellMessages(region, geom.NewVector3(1000, 1000, 0))

	target := &Entity{Kind: KindTransition, Cell: region.CellByID(1)}
	if tracker.CheckTargetCell(target) {
		t.Fatalf("acked cell must not hold the teleport")
	}

	tracker.LoadedCells[1].Loaded = false
	if !tracker.CheckTargetCell(target) {
		t.Fatalf("unacked cell must hold the teleport")
	}

	if !tracker.CheckTargetCell(&Entity{Cell: nil}) {
		t.Fatalf("placeless target must hold the teleport")
	}

	untracked := &Entity{Cell: &Cell{ID: 99}}
	if !tracker.CheckTargetCell(untracked) {
		t.Fatalf("untracked cell must hold the teleport")
	}
}

func TestEntitiesForCellID(t *testing.T) {
	region := threeAreaRegion()
	reg := NewRegistry(zap.NewNop())
	tracker := NewInterestTracker()

	cell5 := region.CellByID(5)
	a := reg.Create(KindWorld, region.ID, 7001, geom.NewVector3(5000, 500, 0), geom.Vector3{}, cell5, nil)
	b := reg.Create(KindWorld, region.ID, 7002, geom.NewVector3(5100, 500, 0), geom.Vector3{}, cell5, nil)

	msgs := tracker.EntitiesForCellID(region, reg, 5)
	if len(msgs) != 2 {
		t.Fatalf("got %d creates, want 2", len(msgs))
	}
	if readEntityID(t, msgs[0]) != a.ID || readEntityID(t, msgs[1]) != b.ID {
		t.Fatalf("creates out of ID order")
	}

	if msgs := tracker.EntitiesForCellID(region, reg, 5); len(msgs) != 0 {
		t.Fatalf("repeat call emitted %d creates, want 0", len(msgs))
	}
	if msgs := tracker.EntitiesForCellID(region, reg, 99); msgs != nil {
		t.Fatalf("unknown cell must yield nil")
	}

	region.AreaByID(3).Dynamic = true
	tracker2 := NewInterestTracker()
	if msgs := tracker2.EntitiesForCellID(region, reg, 5); msgs != nil {
		t.Fatalf("dynamic-area cell must yield nil")
	}
}

func TestCalcAOIVolumeNonStandardCellWidth(t *testing.T) {
	tracker := NewInterestTracker()
	tracker.CalcPlayerVolume(1536)

	// distance = 1536/1.5 = 1024, offset 400, expand 800.
	v := tracker.CalcAOIVolume(geom.Vector3{})
	if v.Min.X != -1424 || v.Max.X != 2224 {
		t.Fatalf("volume X = [%v, %v], want [-1424, 2224]", v.Min.X, v.Max.X)
	}
	if v.Min.Z != -MaxZ-ExpandDistance || v.Max.Z != MaxZ+ExpandDistance {
		t.Fatalf("volume Z = [%v, %v]", v.Min.Z, v.Max.Z)
	}
}
