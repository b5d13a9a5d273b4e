package world

import (
	"sort"

	"github.com/driftgate/server/internal/geom"
	"github.com/driftgate/server/internal/net/packet"
)

// Interest tuning. The view box derives from the entry cell's width and
// is expanded by a fixed margin so cells don't flicker in and out at the
// boundary; recomputes are gated on planar movement past UpdateDistance
// from the last recompute center.
const (
	DefaultCellWidth float32 = 2304.0
	UpdateDistance   float32 = 200.0
	ViewOffset       float32 = 400.0
	ExpandDistance   float32 = 800.0
	DefaultDistance  float32 = 800.0
	MaxZ             float32 = 100000.0
)

// LoadStatus tracks one cell or entity the client has been told about.
// Frame is the tick the entry was last confirmed visible. Loaded is
// false between sending the create message and the client's ack.
// InterestToPlayer exempts the entry from staleness eviction.
type LoadStatus struct {
	Frame            uint64
	Loaded           bool
	InterestToPlayer bool
}

// InterestTracker is the per-connection interest engine. It diffs the
// player's visibility volume against what was previously sent and emits
// the minimal create/destroy message set to converge the client's view.
// Owned by the game loop goroutine; never shared.
type InterestTracker struct {
	LoadedCells    map[uint32]*LoadStatus
	LoadedEntities map[uint64]*LoadStatus
	CellsInRegion  int

	frame            uint64
	lastUpdateCenter geom.Vector3
	playerView       geom.Aabb
}

func NewInterestTracker() *InterestTracker {
	return &InterestTracker{
		LoadedCells:    make(map[uint32]*LoadStatus),
		LoadedEntities: make(map[uint64]*LoadStatus),
	}
}

// Frame returns the current logical tick counter.
func (t *InterestTracker) Frame() uint64 {
	return t.frame
}

// CalcPlayerVolume derives the base view box from the entry cell width.
// Regions built from non-standard cells get a proportional view.
func (t *InterestTracker) CalcPlayerVolume(cellWidth float32) {
	distance := DefaultDistance
	if cellWidth != DefaultCellWidth {
		distance = cellWidth / 1.5
	}
	offset := geom.NewVector3(ViewOffset, ViewOffset, 0)
	t.playerView = geom.NewAabb(
		geom.NewVector3(-distance, -distance, -MaxZ),
		geom.NewVector3(distance, distance, MaxZ),
	).Translate(offset)
}

// CalcAOIVolume centers the view box on the player and expands it by the
// anti-flicker margin.
func (t *InterestTracker) CalcAOIVolume(pos geom.Vector3) geom.Aabb {
	return t.playerView.Translate(pos).Expand(ExpandDistance)
}

// newCells collects eligible untracked cells in the volume, grouped by
// area ID. Cells already tracked get their frame refreshed instead.
func (t *InterestTracker) newCells(region *Region, pos geom.Vector3, startArea *Area) map[uint32][]*Cell {
	cellsByArea := make(map[uint32][]*Cell)
	volume := t.CalcAOIVolume(pos)

	for _, cell := range region.CellsInVolume(volume) {
		if status, ok := t.LoadedCells[cell.ID]; ok {
			status.Frame = t.frame
			continue
		}
		if cell.Area.AdmittedFrom(startArea) {
			cellsByArea[cell.Area.ID] = append(cellsByArea[cell.Area.ID], cell)
		}
	}
	return cellsByArea
}

func sortedAreaIDs(cellsByArea map[uint32][]*Cell) []uint32 {
	ids := make([]uint32, 0, len(cellsByArea))
	for id := range cellsByArea {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortCellsByID(cells []*Cell) {
	sort.Slice(cells, func(i, j int) bool { return cells[i].ID < cells[j].ID })
}

// LoadCellMessages performs the first cell load after entering a region.
// It emits one add-area per area (the start area flagged) followed by
// that area's cell-creates, areas and cells ascending by ID. Returns the
// messages and the number of cells loaded; zero cells means the spawn
// position mapped to no cell and the caller should retry next tick.
func (t *InterestTracker) LoadCellMessages(region *Region, pos geom.Vector3) ([][]byte, int) {
	t.LoadedCells = make(map[uint32]*LoadStatus)

	startCell := region.CellAtPosition(pos)
	if startCell == nil {
		return nil, 0
	}
	startArea := startCell.Area
	t.CalcPlayerVolume(startCell.Bounds.Width())
	t.frame++

	var messages [][]byte
	cellsByArea := t.newCells(region, pos, startArea)

	for _, areaID := range sortedAreaIDs(cellsByArea) {
		area := region.AreaByID(areaID)
		messages = append(messages, packet.BuildAddArea(areaID, area.PrototypeRef, areaID == startArea.ID))

		cells := cellsByArea[areaID]
		sortCellsByID(cells)
		for _, cell := range cells {
			messages = append(messages, packet.BuildCellCreate(cell.ID, areaID, cell.PrototypeRef, cell.Bounds))
			t.LoadedCells[cell.ID] = &LoadStatus{Frame: t.frame, Loaded: true}
		}
	}

	t.lastUpdateCenter = pos
	return messages, len(t.LoadedCells)
}

// EntitiesForRegion completes the first load: a create message for every
// region entity whose cell was just loaded. Transitions are marked
// permanently interesting so teleporters never blink out of the world.
func (t *InterestTracker) EntitiesForRegion(region *Region, reg *Registry) [][]byte {
	t.LoadedEntities = make(map[uint64]*LoadStatus)
	t.frame++

	var messages [][]byte
	for _, e := range reg.EntitiesInRegion(region.ID) {
		if e.Cell == nil {
			continue
		}
		if _, ok := t.LoadedCells[e.Cell.ID]; !ok {
			continue
		}
		t.LoadedEntities[e.ID] = &LoadStatus{
			Frame:            t.frame,
			Loaded:           true,
			InterestToPlayer: e.IsTransition(),
		}
		messages = append(messages, entityCreateMessage(e))
	}
	return messages
}

// UpdateCells is the incremental cell pass: refresh tracked cells still
// in the volume, stream newly eligible ones. Areas are announced at most
// once per connection — only when no currently-loaded cell references
// them. If anything new was streamed, an environment refresh and a
// minimap update ride along. Cells are never evicted; the loaded set
// grows monotonically for the connection's lifetime.
func (t *InterestTracker) UpdateCells(region *Region, pos geom.Vector3) [][]byte {
	var messages [][]byte

	t.frame++
	startCell := region.CellAtPosition(pos)
	if startCell == nil {
		return messages
	}
	startArea := startCell.Area

	cellsByArea := t.newCells(region, pos, startArea)
	if len(cellsByArea) == 0 {
		return messages
	}

	usedAreas := make(map[uint32]struct{})
	for cellID := range t.LoadedCells {
		cell := region.CellByID(cellID)
		if cell == nil {
			continue
		}
		usedAreas[cell.Area.ID] = struct{}{}
	}

	for _, areaID := range sortedAreaIDs(cellsByArea) {
		if _, ok := usedAreas[areaID]; !ok {
			area := region.AreaByID(areaID)
			messages = append(messages, packet.BuildAddArea(areaID, area.PrototypeRef, false))
		}

		cells := cellsByArea[areaID]
		sortCellsByID(cells)
		for _, cell := range cells {
			messages = append(messages, packet.BuildCellCreate(cell.ID, areaID, cell.PrototypeRef, cell.Bounds))
			t.LoadedCells[cell.ID] = &LoadStatus{Frame: t.frame, Loaded: false}
		}
	}

	t.CellsInRegion = len(t.LoadedCells)

	if len(messages) > 0 {
		messages = append(messages, packet.BuildEnvironmentUpdate(1))

		miniMap := &packet.MiniMapArchive{RevealAll: region.Hub}
		messages = append(messages, packet.BuildUpdateMiniMap(miniMap))
	}

	t.lastUpdateCenter = pos
	return messages
}

// UpdateEntity is the incremental entity pass: scan entities in the
// volume (restricted to cells the client has confirmed loaded), refresh
// or create, then evict by staleness. An entity survives only if it was
// refreshed in this scan or is flagged permanently interesting; destroy
// messages always follow the full create/refresh pass.
func (t *InterestTracker) UpdateEntity(region *Region, reg *Registry, pos geom.Vector3) [][]byte {
	var messages [][]byte
	volume := t.CalcAOIVolume(pos)
	t.frame++

	for _, e := range reg.EntitiesInRegion(region.ID) {
		if e.Cell == nil || !volume.Contains(e.Position) {
			continue
		}
		if status, ok := t.LoadedCells[e.Cell.ID]; ok && !status.Loaded {
			continue // cell create sent but not yet acked
		}

		if status, ok := t.LoadedEntities[e.ID]; ok {
			status.Frame = t.frame
			continue
		}
		t.LoadedEntities[e.ID] = &LoadStatus{
			Frame:            t.frame,
			Loaded:           true,
			InterestToPlayer: e.IsTransition(),
		}
		messages = append(messages, entityCreateMessage(e))
	}

	var toDelete []uint64
	for id, status := range t.LoadedEntities {
		if status.Frame < t.frame && !status.InterestToPlayer {
			toDelete = append(toDelete, id)
		}
	}
	sort.Slice(toDelete, func(i, j int) bool { return toDelete[i] < toDelete[j] })
	for _, id := range toDelete {
		messages = append(messages, packet.BuildEntityDestroy(id))
		delete(t.LoadedEntities, id)
	}

	t.lastUpdateCenter = pos
	return messages
}

// EntitiesForCellID streams the untracked entities of one concrete cell,
// e.g. right after a teleport lands in it. Dynamic-area cells are
// handled by the regular volume scan and are skipped here. Other cells'
// staleness counters are untouched.
func (t *InterestTracker) EntitiesForCellID(region *Region, reg *Registry, cellID uint32) [][]byte {
	cell := region.CellByID(cellID)
	if cell == nil || cell.Area.Dynamic {
		return nil
	}

	var messages [][]byte
	t.frame++
	for _, e := range reg.EntitiesInCell(cell) {
		if _, ok := t.LoadedEntities[e.ID]; ok {
			continue
		}
		t.LoadedEntities[e.ID] = &LoadStatus{Frame: t.frame, Loaded: true}
		messages = append(messages, entityCreateMessage(e))
	}
	return messages
}

// ShouldUpdate reports whether the player has moved far enough from the
// last recompute center to warrant a full recompute. Callers must not
// run the recompute paths every tick regardless of movement.
func (t *InterestTracker) ShouldUpdate(pos geom.Vector3) bool {
	return geom.DistanceSquared2D(t.lastUpdateCenter, pos) >= UpdateDistance*UpdateDistance
}

// OnCellLoaded records the client's ack that a cell finished loading.
func (t *InterestTracker) OnCellLoaded(cellID uint32) {
	if status, ok := t.LoadedCells[cellID]; ok {
		status.Loaded = true
	}
}

// CheckTargetCell reports whether a teleport to target must wait: true
// while the landing cell is tracked but not yet acked, and true when the
// cell is not tracked at all (the caller must trigger a load first).
func (t *InterestTracker) CheckTargetCell(target *Entity) bool {
	if target.Cell == nil {
		return true
	}
	if status, ok := t.LoadedCells[target.Cell.ID]; ok {
		return !status.Loaded
	}
	return true
}

func entityCreateMessage(e *Entity) []byte {
	return packet.BuildEntityCreate(e.ID, e.ReplicationID, e.PrototypeRef, e.Position, e.Orientation, e.Archive)
}
