package world

import (
	"errors"
	"testing"

	"github.com/driftgate/server/internal/geom"
	"go.uber.org/zap"
)

func TestRegistryIDAllocation(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	a := reg.Create(KindWorld, 1, 100, geom.Vector3{}, geom.Vector3{}, nil, nil)
	b := reg.Create(KindItem, 1, 101, geom.Vector3{}, geom.Vector3{}, nil, nil)

	if a.ID != 1000 || b.ID != 1001 {
		t.Fatalf("entity IDs = %d, %d, want 1000, 1001", a.ID, b.ID)
	}
	if a.ReplicationID != 50000 || b.ReplicationID != 50001 {
		t.Fatalf("replication IDs = %d, %d, want 50000, 50001", a.ReplicationID, b.ReplicationID)
	}

	// IDs are never reused after destroy.
	reg.Destroy(a.ID)
	c := reg.Create(KindWorld, 1, 102, geom.Vector3{}, geom.Vector3{}, nil, nil)
	if c.ID != 1002 {
		t.Fatalf("ID after destroy = %d, want 1002", c.ID)
	}
}

func TestRegistryGetDestroy(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	e := reg.Create(KindWorld, 1, 100, geom.Vector3{}, geom.Vector3{}, nil, nil)

	got, err := reg.Get(e.ID)
	if err != nil || got != e {
		t.Fatalf("Get(%d) = %v, %v", e.ID, got, err)
	}
	if _, ok := reg.TryGet(e.ID); !ok {
		t.Fatalf("TryGet must find a live entity")
	}

	if !reg.Destroy(e.ID) {
		t.Fatalf("Destroy of live entity must report true")
	}
	if reg.Destroy(e.ID) {
		t.Fatalf("Destroy of missing entity must report false")
	}
	if _, err := reg.Get(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after destroy = %v, want ErrNotFound", err)
	}
	if reg.Count() != 0 {
		t.Fatalf("Count = %d, want 0", reg.Count())
	}
}

func TestRegistryFindByDestination(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	inA := reg.CreateTransition(1, 200, geom.Vector3{}, geom.Vector3{}, nil, 101, &Destination{}, nil)
	inB := reg.CreateTransition(1, 200, geom.Vector3{}, geom.Vector3{}, nil, 102, &Destination{}, nil)
	reg.CreateTransition(2, 200, geom.Vector3{}, geom.Vector3{}, nil, 101, &Destination{}, nil)

	got := reg.FindByDestination(&Destination{EntityProto: 200, AreaProto: 102}, 1)
	if got != inB {
		t.Fatalf("area-qualified lookup returned %+v, want entity %d", got, inB.ID)
	}
	if got := reg.FindByDestination(&Destination{EntityProto: 200, AreaProto: 101}, 1); got != inA {
		t.Fatalf("area-qualified lookup returned %+v, want entity %d", got, inA.ID)
	}

	// Unspecified area matches any candidate in the region.
	got = reg.FindByDestination(&Destination{EntityProto: 200}, 1)
	if got == nil || got.RegionID != 1 || got.PrototypeRef != 200 {
		t.Fatalf("unqualified lookup returned %+v", got)
	}

	if got := reg.FindByDestination(&Destination{EntityProto: 999}, 1); got != nil {
		t.Fatalf("unknown prototype returned %+v, want nil", got)
	}
	if got := reg.FindByDestination(&Destination{EntityProto: 200, AreaProto: 103}, 1); got != nil {
		t.Fatalf("unmatched area returned %+v, want nil", got)
	}
}

func TestRegistryRegionAndCellSnapshots(t *testing.T) {
	region := twoAreaRegion(true)
	reg := NewRegistry(zap.NewNop())
	cell1 := region.CellByID(1)
	cell3 := region.CellByID(3)

	b := make([]*Entity, 0, 3)
	b = append(b, reg.Create(KindWorld, region.ID, 100, geom.Vector3{}, geom.Vector3{}, cell1, nil))
	b = append(b, reg.Create(KindWorld, region.ID, 101, geom.Vector3{}, geom.Vector3{}, cell3, nil))
	b = append(b, reg.Create(KindWorld, region.ID, 102, geom.Vector3{}, geom.Vector3{}, cell1, nil))
	reg.Create(KindWorld, 999, 103, geom.Vector3{}, geom.Vector3{}, nil, nil)

	inRegion := reg.EntitiesInRegion(region.ID)
	if len(inRegion) != 3 {
		t.Fatalf("EntitiesInRegion returned %d, want 3", len(inRegion))
	}
	for i := 1; i < len(inRegion); i++ {
		if inRegion[i-1].ID >= inRegion[i].ID {
			t.Fatalf("region snapshot not in ascending ID order")
		}
	}

	inCell := reg.EntitiesInCell(cell1)
	if len(inCell) != 2 {
		t.Fatalf("EntitiesInCell returned %d, want 2", len(inCell))
	}
	if inCell[0] != b[0] || inCell[1] != b[2] {
		t.Fatalf("cell snapshot wrong or out of order")
	}
}

func TestRegistryFindByPrototype(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Create(KindWorld, 1, 300, geom.Vector3{}, geom.Vector3{}, nil, nil)
	inTwo := reg.Create(KindWorld, 2, 300, geom.Vector3{}, geom.Vector3{}, nil, nil)

	if got := reg.FindByPrototype(300); got == nil {
		t.Fatalf("FindByPrototype missed a live entity")
	}
	if got := reg.FindByPrototypeInRegion(300, 2); got != inTwo {
		t.Fatalf("FindByPrototypeInRegion returned %+v, want entity %d", got, inTwo.ID)
	}
	if got := reg.FindByPrototypeInRegion(300, 3); got != nil {
		t.Fatalf("lookup in empty region returned %+v, want nil", got)
	}
}
