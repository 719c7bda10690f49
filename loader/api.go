package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// rawCommand holds a Command declaration before compilation.
type rawCommand struct {
	name  string
	table *lua.LTable
}

// rawEntity holds an entity table before compilation.
type rawEntity struct {
	id    string
	table *lua.LTable
}

// registerAPI registers all Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerHooks(L, coll)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Command "name" { "alias", "other alias" }, curried.
	L.SetGlobal("Command", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.commands = append(coll.commands, rawCommand{name: name, table: tbl})
			return 0
		}))
		return 1
	}))

	// Entity "id" { ... }, curried.
	L.SetGlobal("Entity", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.entities = append(coll.entities, rawEntity{id: id, table: tbl})
			return 0
		}))
		return 1
	}))
}

func registerHooks(L *lua.LState, coll *collector) {
	set := func(name string, dst **lua.LFunction) {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			if *dst != nil {
				L.RaiseError("%s may only be declared once", name)
			}
			*dst = L.CheckFunction(1)
			return 0
		}))
	}
	set("OnCommand", &coll.onCommand)
	set("OnGoTo", &coll.onGoTo)
	set("OnTurn", &coll.onTurn)
	set("OnLook", &coll.onLook)
}
