package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njmcode/nidc2021-textadv/engine/queue"
	"github.com/njmcode/nidc2021-textadv/engine/vocab"
	"github.com/njmcode/nidc2021-textadv/types"
)

// twoRooms is a hall and a garden joined north/south.
func twoRooms() types.Config {
	return types.Config{
		Title: "Two Rooms",
		Entities: []types.Factory{
			fixed(types.EntityDef{
				ID:          "hall",
				Summary:     types.Lit("The hall."),
				Description: types.Lit("A grand hall with stone walls."),
				To:          map[string]string{vocab.North: "garden"},
			}),
			fixed(types.EntityDef{
				ID:          "garden",
				Summary:     types.Lit("The garden."),
				Description: types.Lit("A garden full of flowers."),
				To:          map[string]string{vocab.South: "hall"},
			}),
		},
	}
}

func TestGoTo_GlobalVeto(t *testing.T) {
	cfg := twoRooms()
	cfg.OnGoTo = func(ctx *types.GoToContext) types.HookResult {
		if ctx.Destination.Is("garden") {
			ctx.StopGoTo()
		}
		return types.Continue()
	}
	e, _ := newTestEngine(t, cfg)

	submit(t, e, "n")
	assert.Equal(t, "hall", e.Location().ID)
	assert.Zero(t, e.Entity("garden").Meta.VisitCount)
}

func TestGoTo_DestinationVeto(t *testing.T) {
	cfg := twoRooms()
	cfg.Entities[1] = fixed(types.EntityDef{
		ID: "garden",
		OnGoTo: func(*types.GoToContext) types.HookResult {
			return types.Stop()
		},
	})
	e, _ := newTestEngine(t, cfg)

	submit(t, e, "north")
	assert.Equal(t, "hall", e.Location().ID)
	assert.Zero(t, e.Entity("garden").Meta.VisitCount)
}

func TestGoTo_GlobalVetoSkipsDestinationHook(t *testing.T) {
	called := false
	cfg := twoRooms()
	cfg.Entities[1] = fixed(types.EntityDef{
		ID: "garden",
		OnGoTo: func(*types.GoToContext) types.HookResult {
			called = true
			return types.Continue()
		},
	})
	cfg.OnGoTo = func(ctx *types.GoToContext) types.HookResult {
		if ctx.Destination.Is("garden") {
			return types.Stop()
		}
		return types.Continue()
	}
	e, _ := newTestEngine(t, cfg)

	submit(t, e, "n")
	assert.False(t, called)
}

func TestGoTo_ContinuationsRunAfterMove(t *testing.T) {
	var order []string
	cfg := twoRooms()
	cfg.OnGoTo = func(ctx *types.GoToContext) types.HookResult {
		if !ctx.Destination.Is("garden") {
			return types.Continue()
		}
		order = append(order, "global")
		return types.Then(func() {
			order = append(order, "global-then:"+ctx.Game.Location().ID)
		})
	}
	cfg.Entities[1] = fixed(types.EntityDef{
		ID:          "garden",
		Description: types.Lit("A garden."),
		OnGoTo: func(ctx *types.GoToContext) types.HookResult {
			order = append(order, "dest")
			return types.Then(func() { order = append(order, "dest-then") })
		},
	})
	e, sink := newTestEngine(t, cfg)
	sink.take()

	submit(t, e, "n")
	assert.Equal(t, "global,dest,global-then:garden,dest-then", strings.Join(order, ","))
	assert.True(t, outputContains(sink.take(), "A garden."))
}

func TestGoTo_FromHookSpendsExtraTurn(t *testing.T) {
	turns := 0
	cfg := twoRooms()
	cfg.OnTurn = func(*types.TurnContext) { turns++ }
	cfg.OnCommand = func(ctx *types.CommandContext) types.HookResult {
		if ctx.Command.Is(vocab.Up) {
			ctx.Game.GoTo("garden")
			return types.Stop()
		}
		return types.Continue()
	}
	e, _ := newTestEngine(t, cfg)

	submit(t, e, "up")
	assert.Equal(t, "garden", e.Location().ID)
	assert.Equal(t, 2, e.TurnCount())
	assert.Equal(t, 1, turns, "turn hook only fires on the input path")
}

func TestGoTo_UnknownDestinationIsAuthoringError(t *testing.T) {
	cfg := twoRooms()
	cfg.OnCommand = func(ctx *types.CommandContext) types.HookResult {
		ctx.Game.GoTo("attic")
		return types.Continue()
	}
	e, _ := newTestEngine(t, cfg)

	_, err := e.Submit("look")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attic")
	assert.False(t, e.IsActive())
}

func TestGoTo_StartLocationOverride(t *testing.T) {
	cfg := twoRooms()
	cfg.StartLocation = "garden"
	e, sink := newTestEngine(t, cfg)

	assert.Equal(t, "garden", e.Location().ID)
	assert.True(t, outputContains(sink.take(), "A garden full of flowers."))
}

func TestLookHooks(t *testing.T) {
	cfg := twoRooms()
	cfg.OnLook = func(ctx *types.LookContext) types.HookResult {
		if ctx.Location.Is("garden") {
			ctx.StopLook()
			ctx.Game.Say("Too dark to see.")
		}
		return types.Continue()
	}
	cfg.Entities[0] = fixed(types.EntityDef{
		ID:          "hall",
		Description: types.Lit("A grand hall."),
		To:          map[string]string{vocab.North: "garden"},
		OnLook: func(ctx *types.LookContext) types.HookResult {
			full := ctx.Full
			return types.Then(func() {
				if full {
					ctx.Game.Say("The hall clock ticks.")
				}
			})
		},
	})
	e, sink := newTestEngine(t, cfg)
	out := sink.take()
	require.Len(t, out, 2)
	assert.Equal(t, "A grand hall.", out[0])
	assert.Equal(t, "The hall clock ticks.", out[1])

	submit(t, e, "n")
	out = sink.take()
	assert.True(t, outputContains(out, "Too dark to see."))
	assert.False(t, outputContains(out, "flowers"))
}

func TestPause_DefersOutputAndHidesInput(t *testing.T) {
	clock := queue.NewManualClock()
	cfg := twoRooms()
	cfg.Commands = []types.CommandDef{{Name: "wait", Aliases: []string{"z"}}}
	cfg.OnCommand = func(ctx *types.CommandContext) types.HookResult {
		if ctx.Command.Is("wait") {
			ctx.Game.Say("You wait.")
			ctx.Game.Pause(2 * time.Second)
			ctx.Game.Say("Nothing happens.")
			return types.Stop()
		}
		return types.Continue()
	}
	e, sink := newTestEngine(t, cfg, WithClock(clock), WithPauseScale(1))
	sink.take()

	submit(t, e, "z")
	out := sink.take()
	assert.True(t, outputContains(out, "You wait."))
	assert.False(t, outputContains(out, "Nothing happens."))
	assert.True(t, sink.hidden)
	assert.True(t, e.Busy())

	clock.Advance(2 * time.Second)
	assert.Equal(t, []string{"Nothing happens."}, sink.take())
	assert.False(t, sink.hidden)
	assert.False(t, e.Busy())
}

func TestPause_EndKeepsInputHidden(t *testing.T) {
	clock := queue.NewManualClock()
	cfg := twoRooms()
	cfg.Commands = []types.CommandDef{{Name: "cut"}}
	cfg.OnCommand = func(ctx *types.CommandContext) types.HookResult {
		if ctx.Command.Is("cut") {
			ctx.Game.Say("You snip the wire.")
			ctx.Game.Pause(time.Second)
			ctx.Game.Say("Well done!")
			ctx.Game.End()
			return types.Stop()
		}
		return types.Continue()
	}
	e, sink := newTestEngine(t, cfg, WithClock(clock), WithPauseScale(1))
	sink.take()

	submit(t, e, "cut")
	clock.Advance(time.Second)
	assert.True(t, outputContains(sink.take(), "Well done!"), "in-flight narration still drains")
	assert.True(t, sink.hidden)
	assert.False(t, e.IsActive())
}
