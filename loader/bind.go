package loader

import (
	"fmt"
	"log/slog"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/njmcode/nidc2021-textadv/engine/idset"
	"github.com/njmcode/nidc2021-textadv/types"
)

const (
	gameType   = "textadv.game"
	entityType = "textadv.entity"
	dataType   = "textadv.data"
	setType    = "textadv.set"
)

// ScriptError is a Lua error raised while running a hook or computed text.
type ScriptError struct {
	Hook string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("lua %s: %v", e.Hook, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// runtime exposes the running game to Lua. It caches one userdata per
// entity and set so that == works on values handed to scripts.
type runtime struct {
	L      *lua.LState
	log    *slog.Logger
	game   types.Game
	gameUD *lua.LUserData
	ents   map[*types.Entity]*lua.LUserData
	sets   map[*idset.Set]*lua.LUserData
}

func newRuntime(L *lua.LState, log *slog.Logger) *runtime {
	rt := &runtime{L: L, log: log}
	rt.reset()
	rt.registerTypes()
	return rt
}

func (rt *runtime) reset() {
	rt.ents = map[*types.Entity]*lua.LUserData{}
	rt.sets = map[*idset.Set]*lua.LUserData{}
}

func (rt *runtime) registerTypes() {
	L := rt.L

	gmt := L.NewTypeMetatable(gameType)
	L.SetField(gmt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"location":   rt.gameLocation,
		"inventory":  rt.gameInventory,
		"entity":     rt.gameEntity,
		"say":        rt.gameSay,
		"print":      rt.gamePrint,
		"pause":      rt.gamePause,
		"go_to":      rt.gameGoTo,
		"look":       rt.gameLook,
		"finish":     rt.gameFinish,
		"is_active":  rt.gameIsActive,
		"turn_count": rt.gameTurnCount,
		"dyntext":    rt.gameDyntext,
		"roll":       rt.gameRoll,
	}))

	emt := L.NewTypeMetatable(entityType)
	L.SetField(emt, "__index", L.NewFunction(rt.entityIndex))
	L.SetField(emt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("entity fields are read-only; store state in data")
		return 0
	}))
	L.SetField(emt, "__eq", L.NewFunction(func(L *lua.LState) int {
		a, b := L.CheckUserData(1), L.CheckUserData(2)
		L.Push(lua.LBool(a.Value == b.Value))
		return 1
	}))
	L.SetField(emt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString("entity(" + checkEntity(L, 1).ID + ")"))
		return 1
	}))

	dmt := L.NewTypeMetatable(dataType)
	L.SetField(dmt, "__index", L.NewFunction(func(L *lua.LState) int {
		ent := checkEntity(L, 1)
		L.Push(toLuaValue(L, ent.Data[L.CheckString(2)]))
		return 1
	}))
	L.SetField(dmt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		ent := checkEntity(L, 1)
		key := L.CheckString(2)
		if v := L.Get(3); v == lua.LNil {
			delete(ent.Data, key)
		} else {
			ent.Data[key] = toGoValue(v)
		}
		return 0
	}))

	smt := L.NewTypeMetatable(setType)
	L.SetField(smt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"has": func(L *lua.LState) int {
			L.Push(lua.LBool(checkSet(L).Has(L.CheckString(2))))
			return 1
		},
		"add": func(L *lua.LState) int {
			checkSet(L).Add(L.CheckString(2))
			return 0
		},
		"remove": func(L *lua.LState) int {
			checkSet(L).Delete(L.CheckString(2))
			return 0
		},
		"items": func(L *lua.LState) int {
			L.Push(toLuaValue(L, checkSet(L).Items()))
			return 1
		},
		"size": func(L *lua.LState) int {
			L.Push(lua.LNumber(checkSet(L).Len()))
			return 1
		},
	}))
}

// bind points the runtime at g. A new game drops the userdata caches.
func (rt *runtime) bind(g types.Game) {
	if rt.game == g && rt.gameUD != nil {
		return
	}
	rt.game = g
	rt.reset()
	ud := rt.L.NewUserData()
	ud.Value = g
	rt.L.SetMetatable(ud, rt.L.GetTypeMetatable(gameType))
	rt.gameUD = ud
}

func (rt *runtime) entity(e *types.Entity) lua.LValue {
	if e == nil {
		return lua.LNil
	}
	if ud, ok := rt.ents[e]; ok {
		return ud
	}
	ud := rt.L.NewUserData()
	ud.Value = e
	rt.L.SetMetatable(ud, rt.L.GetTypeMetatable(entityType))
	rt.ents[e] = ud
	return ud
}

func (rt *runtime) set(s *idset.Set) lua.LValue {
	if ud, ok := rt.sets[s]; ok {
		return ud
	}
	ud := rt.L.NewUserData()
	ud.Value = s
	rt.L.SetMetatable(ud, rt.L.GetTypeMetatable(setType))
	rt.sets[s] = ud
	return ud
}

func checkEntity(L *lua.LState, n int) *types.Entity {
	ud := L.CheckUserData(n)
	if e, ok := ud.Value.(*types.Entity); ok {
		return e
	}
	L.ArgError(n, "entity expected")
	return nil
}

func checkSet(L *lua.LState) *idset.Set {
	ud := L.CheckUserData(1)
	if s, ok := ud.Value.(*idset.Set); ok {
		return s
	}
	L.ArgError(1, "set expected")
	return nil
}

func checkGame(L *lua.LState) types.Game {
	ud := L.CheckUserData(1)
	if g, ok := ud.Value.(types.Game); ok {
		return g
	}
	L.ArgError(1, "game expected (use game:method())")
	return nil
}

// guard turns an authoring-error panic from the engine into a Lua error,
// so the script sees it with a line number.
func guard(L *lua.LState, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				L.RaiseError("%s", err.Error())
			}
			panic(r)
		}
	}()
	fn()
}

func (rt *runtime) entityIndex(L *lua.LState) int {
	ud := L.CheckUserData(1)
	e := checkEntity(L, 1)
	switch key := L.CheckString(2); key {
	case "id":
		L.Push(lua.LString(e.ID))
	case "nouns":
		L.Push(toLuaValue(L, e.Nouns))
	case "tags":
		L.Push(rt.set(e.Tags))
	case "things":
		L.Push(rt.set(e.Things))
	case "to":
		to := L.NewTable()
		for cmd, dest := range e.To {
			to.RawSetString(cmd, lua.LString(dest))
		}
		L.Push(to)
	case "data":
		d := L.NewUserData()
		d.Value = ud.Value
		L.SetMetatable(d, L.GetTypeMetatable(dataType))
		L.Push(d)
	case "meta":
		m := L.NewTable()
		m.RawSetString("visit_count", lua.LNumber(e.Meta.VisitCount))
		m.RawSetString("is_initial_state", lua.LBool(e.Meta.IsInitialState))
		m.RawSetString("is_examined", lua.LBool(e.Meta.IsExamined))
		L.Push(m)
	case "is":
		L.Push(L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LBool(checkEntity(L, 1).Is(L.CheckString(2))))
			return 1
		}))
	case "exists":
		L.Push(L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LBool(checkEntity(L, 1).Exists()))
			return 1
		}))
	default:
		L.Push(lua.LNil)
	}
	return 1
}

func (rt *runtime) gameLocation(L *lua.LState) int {
	L.Push(rt.entity(checkGame(L).Location()))
	return 1
}

func (rt *runtime) gameInventory(L *lua.LState) int {
	L.Push(rt.set(checkGame(L).Inventory()))
	return 1
}

func (rt *runtime) gameEntity(L *lua.LState) int {
	g := checkGame(L)
	id := L.CheckString(2)
	var e *types.Entity
	guard(L, func() { e = g.Entity(id) })
	L.Push(rt.entity(e))
	return 1
}

func (rt *runtime) gameSay(L *lua.LState) int {
	g := checkGame(L)
	lines := make([]string, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		lines = append(lines, L.CheckString(i))
	}
	g.Say(lines...)
	return 0
}

func (rt *runtime) gamePrint(L *lua.LState) int {
	g := checkGame(L)
	t := rt.text("print", L.CheckAny(2), nil)
	class := L.OptString(3, "")
	guard(L, func() { g.Print(t, class) })
	return 0
}

func (rt *runtime) gamePause(L *lua.LState) int {
	g := checkGame(L)
	ms := L.CheckNumber(2)
	g.Pause(time.Duration(float64(ms) * float64(time.Millisecond)))
	return 0
}

func (rt *runtime) gameGoTo(L *lua.LState) int {
	g := checkGame(L)
	id := L.CheckString(2)
	guard(L, func() { g.GoTo(id) })
	return 0
}

func (rt *runtime) gameLook(L *lua.LState) int {
	g := checkGame(L)
	full := L.OptBool(2, false)
	guard(L, func() { g.Look(full) })
	return 0
}

func (rt *runtime) gameFinish(L *lua.LState) int {
	checkGame(L).End()
	return 0
}

func (rt *runtime) gameIsActive(L *lua.LState) int {
	L.Push(lua.LBool(checkGame(L).IsActive()))
	return 1
}

func (rt *runtime) gameTurnCount(L *lua.LState) int {
	L.Push(lua.LNumber(checkGame(L).TurnCount()))
	return 1
}

func (rt *runtime) gameDyntext(L *lua.LState) int {
	g := checkGame(L)
	t := rt.text("dyntext", L.CheckAny(2), nil)
	var out string
	guard(L, func() { out = g.Dyntext(t) })
	L.Push(lua.LString(out))
	return 1
}

func (rt *runtime) gameRoll(L *lua.LState) int {
	L.Push(lua.LNumber(checkGame(L).Roll(L.OptInt(2, 6))))
	return 1
}

// call runs fn in protected mode. A Lua error becomes a *ScriptError panic
// for the engine to recover.
func (rt *runtime) call(name string, fn *lua.LFunction, args ...lua.LValue) lua.LValue {
	L := rt.L
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		panic(&ScriptError{Hook: name, Err: err})
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret
}

// thunk wraps a Lua function as a Go continuation.
func (rt *runtime) thunk(name string, fn *lua.LFunction) func() {
	return func() { rt.call(name, fn) }
}

// result maps a hook's return value: false vetoes, a function runs once
// processing completes, anything else continues.
func (rt *runtime) result(name string, v lua.LValue) types.HookResult {
	switch val := v.(type) {
	case lua.LBool:
		if !bool(val) {
			return types.Stop()
		}
	case *lua.LFunction:
		return types.Then(rt.thunk(name+" continuation", val))
	}
	return types.Continue()
}

// computed wraps fn(game, self) as a text producer.
func (rt *runtime) computed(name string, fn *lua.LFunction, self types.Ref) types.TextFunc {
	return func(g types.Game) string {
		rt.bind(g)
		var selfV lua.LValue = lua.LNil
		if self != nil {
			selfV = rt.entity(self())
		}
		v := rt.call(name, fn, rt.gameUD, selfV)
		if v == lua.LNil {
			return ""
		}
		return rt.L.ToStringMeta(v).String()
	}
}

func (rt *runtime) commandHook(name string, fn *lua.LFunction) types.CommandHook {
	return func(ctx *types.CommandContext) types.HookResult {
		rt.bind(ctx.Game)
		L := rt.L
		cmd := L.NewTable()
		for k, v := range ctx.Command.Flags {
			cmd.RawSetString(k, lua.LBool(v))
		}
		cmd.RawSetString("_base", lua.LString(ctx.Command.Base))

		t := L.NewTable()
		t.RawSetString("game", rt.gameUD)
		t.RawSetString("command", cmd)
		t.RawSetString("subject", rt.entity(ctx.Subject))
		t.RawSetString("stop", L.NewFunction(func(L *lua.LState) int {
			ctx.StopCommand(L.OptBool(1, false))
			return 0
		}))
		t.RawSetString("after", L.NewFunction(func(L *lua.LState) int {
			ctx.AfterCommand(rt.thunk(name+" after", L.CheckFunction(1)))
			return 0
		}))
		t.RawSetString("no_turn", L.NewFunction(func(L *lua.LState) int {
			ctx.NoTurn()
			return 0
		}))
		return rt.result(name, rt.call(name, fn, t))
	}
}

func (rt *runtime) goToHook(name string, fn *lua.LFunction) types.GoToHook {
	return func(ctx *types.GoToContext) types.HookResult {
		rt.bind(ctx.Game)
		L := rt.L
		t := L.NewTable()
		t.RawSetString("game", rt.gameUD)
		t.RawSetString("destination", rt.entity(ctx.Destination))
		t.RawSetString("stop", L.NewFunction(func(L *lua.LState) int {
			ctx.StopGoTo()
			return 0
		}))
		return rt.result(name, rt.call(name, fn, t))
	}
}

func (rt *runtime) lookHook(name string, fn *lua.LFunction) types.LookHook {
	return func(ctx *types.LookContext) types.HookResult {
		rt.bind(ctx.Game)
		L := rt.L
		t := L.NewTable()
		t.RawSetString("game", rt.gameUD)
		t.RawSetString("location", rt.entity(ctx.Location))
		t.RawSetString("full", lua.LBool(ctx.Full))
		t.RawSetString("stop", L.NewFunction(func(L *lua.LState) int {
			ctx.StopLook()
			return 0
		}))
		return rt.result(name, rt.call(name, fn, t))
	}
}

func (rt *runtime) turnHook(name string, fn *lua.LFunction) types.TurnHook {
	return func(ctx *types.TurnContext) {
		rt.bind(ctx.Game)
		t := rt.L.NewTable()
		t.RawSetString("game", rt.gameUD)
		t.RawSetString("turn", lua.LNumber(ctx.TurnCount))
		rt.call(name, fn, t)
	}
}
