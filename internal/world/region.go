package world

import (
	"github.com/driftgate/server/internal/geom"
)

// Cell is the smallest spatial unit: a fixed axis-aligned box owned by
// exactly one area. Cell IDs are unique within a region.
type Cell struct {
	ID           uint32
	PrototypeRef uint64
	Bounds       geom.Aabb
	Area         *Area
}

// Area groups cells within a region. Dynamic areas are procedurally
// instantiated and always pass the interest admission test. Connections
// are directed: A listing B does not imply B listing A.
type Area struct {
	ID           uint32
	PrototypeRef uint64
	Origin       geom.Vector3
	Dynamic      bool
	Cells        []*Cell
	Connections  []*Area
	Region       *Region
}

// AddCell attaches a cell to the area and indexes it in the owning
// region. Declaration order is preserved; lookups go through the region.
func (a *Area) AddCell(c *Cell) {
	c.Area = a
	a.Cells = append(a.Cells, c)
	if a.Region != nil {
		a.Region.indexCell(c)
	}
}

// Connect declares a directed connection from a to other.
func (a *Area) Connect(other *Area) {
	a.Connections = append(a.Connections, other)
}

// AdmittedFrom is the streaming admission test: a cell is eligible only
// if its area is dynamic, is the start area itself, or is linked from
// the start area via a declared connection.
func (a *Area) AdmittedFrom(start *Area) bool {
	if a.Dynamic || a == start {
		return true
	}
	for _, conn := range start.Connections {
		if conn == a {
			return true
		}
	}
	return false
}

// Region is the top-level spatial container. The area/cell topology is
// authored at load time and immutable afterwards; all lookups are safe
// for concurrent readers.
type Region struct {
	Proto uint64 // prototype ref, the catalog key
	ID    uint64 // instance id, the entity registry key
	Name  string
	Hub   bool // hubs get a fully revealed minimap

	Bounds        geom.Aabb
	EntryPosition geom.Vector3
	ArchiveData   []byte

	Areas []*Area

	areasByID map[uint32]*Area
	cellsByID map[uint32]*Cell
}

func NewRegion(proto, id uint64, name string, hub bool, bounds geom.Aabb) *Region {
	return &Region{
		Proto:     proto,
		ID:        id,
		Name:      name,
		Hub:       hub,
		Bounds:    bounds,
		areasByID: make(map[uint32]*Area),
		cellsByID: make(map[uint32]*Cell),
	}
}

// AddArea attaches an area and indexes it and any cells it already owns.
func (r *Region) AddArea(a *Area) {
	a.Region = r
	r.Areas = append(r.Areas, a)
	r.areasByID[a.ID] = a
	for _, c := range a.Cells {
		r.indexCell(c)
	}
}

func (r *Region) indexCell(c *Cell) {
	r.cellsByID[c.ID] = c
}

// AreaByID returns the area or nil; callers check.
func (r *Region) AreaByID(id uint32) *Area {
	return r.areasByID[id]
}

// CellByID returns the cell or nil; callers check.
func (r *Region) CellByID(id uint32) *Cell {
	return r.cellsByID[id]
}

// CellAtPosition returns the cell whose bounds contain p, or nil if p is
// outside every cell. A nil result is a benign miss during transitions.
func (r *Region) CellAtPosition(p geom.Vector3) *Cell {
	for _, a := range r.Areas {
		for _, c := range a.Cells {
			if c.Bounds.Contains(p) {
				return c
			}
		}
	}
	return nil
}

// CellsInVolume returns every cell whose bounds intersect v, in area and
// cell declaration order. The order is stable for a fixed topology.
func (r *Region) CellsInVolume(v geom.Aabb) []*Cell {
	var out []*Cell
	for _, a := range r.Areas {
		for _, c := range a.Cells {
			if c.Bounds.Intersects(v) {
				out = append(out, c)
			}
		}
	}
	return out
}

// CellCount returns the total number of cells across all areas.
func (r *Region) CellCount() int {
	return len(r.cellsByID)
}
