package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/njmcode/nidc2021-textadv/types"
)

var gameFields = map[string]bool{
	"title": true, "author": true, "start": true, "inventory": true, "commands": true,
}

var entityFields = map[string]bool{
	"nouns": true, "tags": true, "things": true, "to": true, "data": true,
	"description": true, "summary": true, "initial": true,
	"on_goto": true, "on_look": true,
}

// compile converts collected Lua tables into a game definition.
func compile(coll *collector, rt *runtime) (types.Config, error) {
	ve := &ValidationError{}
	var cfg types.Config

	if coll.game == nil {
		ve.Errors = append(ve.Errors, "Game { ... } declaration is required")
	} else {
		checkFields(ve, "Game", coll.game, gameFields)
		cfg.Title = getString(coll.game, "title")
		if cfg.Title == "" {
			ve.Errors = append(ve.Errors, "Game.title is required")
		}
		cfg.Author = getString(coll.game, "author")
		cfg.StartLocation = getString(coll.game, "start")
		cfg.StartInventory = stringList(ve, "Game.inventory", coll.game.RawGetString("inventory"))

		if cmds := getTable(coll.game, "commands"); cmds != nil {
			var names []string
			cmds.ForEach(func(k, _ lua.LValue) {
				if ks, ok := k.(lua.LString); ok {
					names = append(names, string(ks))
				}
			})
			sort.Strings(names)
			for _, name := range names {
				aliases := stringList(ve, "Game.commands."+name, cmds.RawGetString(name))
				cfg.Commands = append(cfg.Commands, types.CommandDef{Name: name, Aliases: aliases})
			}
		}
	}

	for _, c := range coll.commands {
		aliases := stringList(ve, fmt.Sprintf("Command %q", c.name), c.table)
		cfg.Commands = append(cfg.Commands, types.CommandDef{Name: c.name, Aliases: aliases})
	}

	seen := map[string]bool{}
	for _, re := range coll.entities {
		where := fmt.Sprintf("Entity %q", re.id)
		if re.id == "" {
			ve.Errors = append(ve.Errors, "Entity declared with an empty id")
			continue
		}
		if seen[re.id] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate entity id %q", re.id))
			continue
		}
		seen[re.id] = true

		checkFields(ve, where, re.table, entityFields)
		for _, key := range []string{"nouns", "tags", "things"} {
			stringList(ve, where+"."+key, re.table.RawGetString(key))
		}
		checkStringMap(ve, where+".to", re.table.RawGetString("to"))
		checkTable(ve, where+".data", re.table.RawGetString("data"))
		for _, key := range []string{"description", "summary", "initial"} {
			checkText(ve, where+"."+key, re.table.RawGetString(key))
		}
		for _, key := range []string{"on_goto", "on_look"} {
			checkFunction(ve, where+"."+key, re.table.RawGetString(key))
		}

		cfg.Entities = append(cfg.Entities, rt.factory(re))
	}
	if len(coll.entities) == 0 {
		ve.Errors = append(ve.Errors, "at least one Entity is required")
	}

	if coll.onCommand != nil {
		cfg.OnCommand = rt.commandHook("OnCommand", coll.onCommand)
	}
	if coll.onGoTo != nil {
		cfg.OnGoTo = rt.goToHook("OnGoTo", coll.onGoTo)
	}
	if coll.onTurn != nil {
		cfg.OnTurn = rt.turnHook("OnTurn", coll.onTurn)
	}
	if coll.onLook != nil {
		cfg.OnLook = rt.lookHook("OnLook", coll.onLook)
	}

	ve.warn(rt.log)
	if len(ve.Errors) > 0 {
		return types.Config{}, ve
	}
	return cfg, nil
}

// factory builds an entity from its table on every call, so a restarted
// game gets fresh data.
func (rt *runtime) factory(re rawEntity) types.Factory {
	return func(self types.Ref) types.EntityDef {
		t := re.table
		def := types.EntityDef{
			ID:          re.id,
			Nouns:       toStrings(t.RawGetString("nouns")),
			Tags:        toStrings(t.RawGetString("tags")),
			Things:      toStrings(t.RawGetString("things")),
			To:          tableToStringMap(getTable(t, "to")),
			Data:        tableToAnyMap(getTable(t, "data")),
			Description: rt.text(re.id+".description", t.RawGetString("description"), self),
			Summary:     rt.text(re.id+".summary", t.RawGetString("summary"), self),
			Initial:     rt.text(re.id+".initial", t.RawGetString("initial"), self),
		}
		if fn, ok := t.RawGetString("on_goto").(*lua.LFunction); ok {
			def.OnGoTo = rt.goToHook(re.id+".on_goto", fn)
		}
		if fn, ok := t.RawGetString("on_look").(*lua.LFunction); ok {
			def.OnLook = rt.lookHook(re.id+".on_look", fn)
		}
		return def
	}
}

// text converts a string, function or list of either into Text.
func (rt *runtime) text(name string, v lua.LValue, self types.Ref) types.Text {
	switch val := v.(type) {
	case lua.LString:
		return types.Lit(string(val))
	case *lua.LFunction:
		return types.Computed(rt.computed(name, val, self))
	case *lua.LTable:
		var t types.Text
		for i := 1; i <= val.MaxN(); i++ {
			t = append(t, rt.text(name, val.RawGetInt(i), self)...)
		}
		return t
	default:
		return nil
	}
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// toStrings converts a Lua array of strings, skipping anything else.
func toStrings(v lua.LValue) []string {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]string, 0, tbl.MaxN())
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Check if it's an array (sequential integer keys starting at 1).
		maxN := val.MaxN()
		if maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		// Otherwise treat as map.
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// toLuaValue converts a Go value produced by toGoValue (or set from Go
// code) back into a Lua value.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		tbl := L.NewTable()
		for _, s := range val {
			tbl.Append(lua.LString(s))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(toLuaValue(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLuaValue(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// tableToStringMap converts a Lua table to a map[string]string.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if vs, ok := v.(lua.LString); ok {
				m[string(ks)] = string(vs)
			}
		}
	})
	return m
}

// tableToAnyMap converts a Lua table to a map[string]any.
func tableToAnyMap(tbl *lua.LTable) map[string]any {
	if tbl == nil {
		return nil
	}
	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			m[string(ks)] = toGoValue(v)
		}
	})
	return m
}
