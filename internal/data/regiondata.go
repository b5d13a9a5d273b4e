package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/driftgate/server/internal/geom"
	"github.com/driftgate/server/internal/world"
)

// Region definition files. One YAML file per region; the loader walks a
// directory and builds the live topology, resolving area connections
// after every area exists.

type vecDef struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

func (v vecDef) vector() geom.Vector3 {
	return geom.NewVector3(v.X, v.Y, v.Z)
}

type cellDef struct {
	ID        uint32 `yaml:"id"`
	Prototype uint64 `yaml:"prototype"`
	Min       vecDef `yaml:"min"`
	Max       vecDef `yaml:"max"`
}

type areaDef struct {
	ID          uint32    `yaml:"id"`
	Prototype   uint64    `yaml:"prototype"`
	Dynamic     bool      `yaml:"dynamic"`
	Origin      vecDef    `yaml:"origin"`
	Connections []uint32  `yaml:"connections"`
	Cells       []cellDef `yaml:"cells"`
}

type regionDef struct {
	Proto uint64    `yaml:"proto"`
	ID    uint64    `yaml:"id"`
	Name  string    `yaml:"name"`
	Hub   bool      `yaml:"hub"`
	Entry vecDef    `yaml:"entry"`
	Areas []areaDef `yaml:"areas"`
}

// LoadRegions reads every *.yaml file under dir and registers the
// resulting regions in the catalog. File order does not matter; each
// file is one self-contained region.
func LoadRegions(dir string, catalog *world.Catalog) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read region dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		region, err := loadRegionFile(path)
		if err != nil {
			return err
		}
		catalog.Add(region)
	}
	return nil
}

func loadRegionFile(path string) (*world.Region, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region %s: %w", path, err)
	}
	var def regionDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse region %s: %w", path, err)
	}
	return buildRegion(&def, path)
}

func buildRegion(def *regionDef, path string) (*world.Region, error) {
	if def.Proto == 0 {
		return nil, fmt.Errorf("region %s: proto must be non-zero", path)
	}
	if len(def.Areas) == 0 {
		return nil, fmt.Errorf("region %s: no areas", path)
	}

	bounds, err := regionBounds(def)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", path, err)
	}

	region := world.NewRegion(def.Proto, def.ID, def.Name, def.Hub, bounds)
	region.EntryPosition = def.Entry.vector()

	areas := make(map[uint32]*world.Area, len(def.Areas))
	cellOwner := make(map[uint32]uint32) // cell ID → area ID, IDs are region-scoped
	for _, ad := range def.Areas {
		if _, dup := areas[ad.ID]; dup {
			return nil, fmt.Errorf("region %s: duplicate area %d", path, ad.ID)
		}
		area := &world.Area{
			ID:           ad.ID,
			PrototypeRef: ad.Prototype,
			Dynamic:      ad.Dynamic,
			Origin:       ad.Origin.vector(),
		}
		for _, cd := range ad.Cells {
			if owner, dup := cellOwner[cd.ID]; dup {
				return nil, fmt.Errorf("region %s: duplicate cell %d in area %d (already in area %d)", path, cd.ID, ad.ID, owner)
			}
			cellOwner[cd.ID] = ad.ID
			area.AddCell(&world.Cell{
				ID:           cd.ID,
				PrototypeRef: cd.Prototype,
				Bounds:       geom.NewAabb(cd.Min.vector(), cd.Max.vector()),
			})
		}
		areas[ad.ID] = area
		region.AddArea(area)
	}

	// Connections resolve only after every area is built.
	for _, ad := range def.Areas {
		from := areas[ad.ID]
		for _, targetID := range ad.Connections {
			to, ok := areas[targetID]
			if !ok {
				return nil, fmt.Errorf("region %s: area %d connects to unknown area %d", path, ad.ID, targetID)
			}
			from.Connect(to)
		}
	}

	return region, nil
}

// regionBounds is the union of every cell box.
func regionBounds(def *regionDef) (geom.Aabb, error) {
	var bounds geom.Aabb
	first := true
	for _, ad := range def.Areas {
		for _, cd := range ad.Cells {
			box := geom.NewAabb(cd.Min.vector(), cd.Max.vector())
			if first {
				bounds = box
				first = false
				continue
			}
			bounds = union(bounds, box)
		}
	}
	if first {
		return bounds, fmt.Errorf("no cells")
	}
	return bounds, nil
}

func union(a, b geom.Aabb) geom.Aabb {
	return geom.NewAabb(
		geom.NewVector3(min32(a.Min.X, b.Min.X), min32(a.Min.Y, b.Min.Y), min32(a.Min.Z, b.Min.Z)),
		geom.NewVector3(max32(a.Max.X, b.Max.X), max32(a.Max.Y, b.Max.Y), max32(a.Max.Z, b.Max.Z)),
	)
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
