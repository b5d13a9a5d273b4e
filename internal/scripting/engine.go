package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/driftgate/server/internal/geom"
	"github.com/driftgate/server/internal/world"
)

// Engine wraps a single gopher-lua VM for content scripts. Scripts run
// once per region at boot, on the boot goroutine; the VM is never
// touched during ticks.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every .lua file from the
// scripts directory. Scripts define spawn_region(region) and drive the
// spawn bindings registered by RunRegionSpawns.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, err
	}
	return e, nil
}

// loadDir loads all .lua files in a directory. A missing directory is
// not an error; the server can run without content scripts.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// RunRegionSpawns calls the script global spawn_region once for the
// given region, with spawn and spawn_transition bound to the entity
// registry for the duration of the call. Entities land in the cell
// covering their position; a position outside every cell leaves the
// entity placeless and is logged.
func (e *Engine) RunRegionSpawns(region *world.Region, reg *world.Registry) error {
	fn := e.vm.GetGlobal("spawn_region")
	if fn == lua.LNil {
		return nil // no spawn content loaded
	}

	e.vm.SetGlobal("spawn", e.vm.NewFunction(func(L *lua.LState) int {
		kind := kindFromName(L.CheckString(1))
		proto := uint64(L.CheckNumber(2))
		pos := geom.NewVector3(
			float32(L.CheckNumber(3)),
			float32(L.CheckNumber(4)),
			float32(L.CheckNumber(5)),
		)
		heading := geom.NewVector3(float32(L.OptNumber(6, 0)), float32(L.OptNumber(7, 0)), 0)

		cell := region.CellAtPosition(pos)
		if cell == nil {
			e.log.Warn("spawn outside any cell",
				zap.Uint64("prototype", proto),
				zap.Uint64("region", region.Proto))
		}
		ent := reg.Create(kind, region.ID, proto, pos, heading, cell, nil)
		L.Push(lua.LNumber(ent.ID))
		return 1
	}))

	e.vm.SetGlobal("spawn_transition", e.vm.NewFunction(func(L *lua.LState) int {
		proto := uint64(L.CheckNumber(1))
		pos := geom.NewVector3(
			float32(L.CheckNumber(2)),
			float32(L.CheckNumber(3)),
			float32(L.CheckNumber(4)),
		)
		areaRef := uint64(L.CheckNumber(5))
		destTbl := L.CheckTable(6)

		dest := &world.Destination{
			Type:        int32(lInt(destTbl, "type")),
			RegionProto: uint64(lInt(destTbl, "region")),
			AreaProto:   uint64(lInt(destTbl, "area")),
			CellProto:   uint64(lInt(destTbl, "cell")),
			EntityProto: uint64(lInt(destTbl, "entity")),
			Position: geom.NewVector3(
				float32(lua.LVAsNumber(destTbl.RawGetString("x"))),
				float32(lua.LVAsNumber(destTbl.RawGetString("y"))),
				float32(lua.LVAsNumber(destTbl.RawGetString("z"))),
			),
		}

		cell := region.CellAtPosition(pos)
		if cell == nil {
			e.log.Warn("transition spawn outside any cell",
				zap.Uint64("prototype", proto),
				zap.Uint64("region", region.Proto))
		}
		ent := reg.CreateTransition(region.ID, proto, pos, geom.Vector3{}, cell, areaRef, dest, nil)
		L.Push(lua.LNumber(ent.ID))
		return 1
	}))

	t := e.vm.NewTable()
	t.RawSetString("proto", lua.LNumber(region.Proto))
	t.RawSetString("id", lua.LNumber(region.ID))
	t.RawSetString("name", lua.LString(region.Name))
	if region.Hub {
		t.RawSetString("hub", lua.LTrue)
	} else {
		t.RawSetString("hub", lua.LFalse)
	}
	t.RawSetString("entry_x", lua.LNumber(region.EntryPosition.X))
	t.RawSetString("entry_y", lua.LNumber(region.EntryPosition.Y))
	t.RawSetString("entry_z", lua.LNumber(region.EntryPosition.Z))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, t); err != nil {
		return fmt.Errorf("spawn_region for %d: %w", region.Proto, err)
	}
	return nil
}

func kindFromName(name string) world.EntityKind {
	switch name {
	case "transition":
		return world.KindTransition
	case "item":
		return world.KindItem
	default:
		return world.KindWorld
	}
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
