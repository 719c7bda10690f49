// Package bomb is "Seconds To Live", a short escape game authored in Go.
// The player has fourteen turns to find a way to stop a time bomb.
package bomb

import (
	"fmt"
	"time"

	"github.com/njmcode/nidc2021-textadv/types"
)

// Countdown is the number of turns before the bomb goes off.
const Countdown = 14

// Config returns a fresh game definition.
func Config() types.Config {
	return types.Config{
		Title:  "Seconds To Live",
		Author: "njmcode",
		Entities: []types.Factory{
			basement, door, bomb, wire, debris, crowbar, storage, toolbox, wirecutters,
		},
		Commands: []types.CommandDef{
			{Name: "pull", Aliases: []string{"pull out", "remove", "tamper with", "disconnect", "yank", "tear"}},
			{Name: "defuse", Aliases: []string{"stop", "disarm", "disable"}},
			{Name: "cut", Aliases: []string{"snip", "sever"}},
			{Name: "force", Aliases: []string{"open", "force open", "pry open", "pry", "jam", "hit", "kick", "kick down", "break", "break down", "smash"}},
		},
		StartLocation: "basement",
		OnTurn:        onTurn,
		OnCommand:     onCommand,
	}
}

func basement(types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:      "basement",
		Summary: types.Lit("A dingy basement with no way up. Oh, and a ticking bomb."),
		Description: types.Lit(
			"You are trapped in a dank basement with no visible means to get to the surface.",
			"Debris and rubbish is strewn about the floor, and a sturdy wooden door sits in the east wall.",
			"In the corner, you can see a ticking time bomb!",
		),
		Things: []string{"bomb", "debris", "wire", "door"},
		To:     map[string]string{"e": "storage", "in": "storage"},
		OnGoTo: func(ctx *types.GoToContext) types.HookResult {
			if ctx.Destination.Meta.VisitCount == 0 {
				ctx.Game.Print(types.Lit("SECONDS TO LIVE", "by njmcode", "---"), "info")
			}
			return types.Continue()
		},
		OnLook: func(ctx *types.LookContext) types.HookResult {
			return types.Then(func() {
				ctx.Game.Say("The bomb counter is active.")
			})
		},
	}
}

func door(self types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:    "door",
		Nouns: []string{"door", "sturdy door", "east door"},
		Tags:  []string{types.TagScenery},
		Data:  map[string]any{"isSealed": true},
		Description: types.Computed(func(types.Game) string {
			if sealed(self()) {
				return "It's sealed shut. The timbers seem a little rotten. With the right help, you could probably get it open."
			}
			return "It has been forced open."
		}),
	}
}

func bomb(self types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:    "bomb",
		Nouns: []string{"bomb", "time bomb", "explosives", "counter"},
		Tags:  []string{types.TagScenery},
		Data:  map[string]any{"remaining": Countdown},
		Description: types.Text{
			{Literal: "A large pack of explosives with a wire attached to a timer. It is counting down!"},
			{Computed: func(types.Game) string {
				return fmt.Sprintf("The counter shows the number %d...", remaining(self()))
			}},
		},
	}
}

func wire(types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:          "wire",
		Nouns:       []string{"wire", "wires", "bomb wire", "red wire", "red", "timer"},
		Tags:        []string{types.TagScenery},
		Description: types.Lit("A single red wire runs between the timer and the explosive. Amateur stuff, but effective."),
	}
}

func debris(types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:          "debris",
		Nouns:       []string{"debris", "rubbish", "rubble", "stuff", "floor"},
		Tags:        []string{types.TagScenery},
		Description: types.Lit("Broken glass, twisted rebar, smashed concrete, dust and other detritus."),
	}
}

func crowbar(types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:          "crowbar",
		Nouns:       []string{"crowbar", "bar", "rusty crowbar"},
		Summary:     types.Lit("a crowbar"),
		Initial:     types.Lit("There is a crowbar sticking up from amongst the debris on the floor."),
		Description: types.Lit("Rusted, but still sturdy."),
	}
}

func storage(types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:          "storage",
		Summary:     types.Lit("A cramped old storage room."),
		Description: types.Lit("This claustrophobic storage room smells of must. Bits of broken timber lie strewn about. The west door leads out to the basement."),
		Things:      []string{"toolbox"},
		To:          map[string]string{"w": "basement", "out": "basement"},
		OnGoTo: func(ctx *types.GoToContext) types.HookResult {
			if sealed(ctx.Game.Entity("door")) {
				ctx.Game.Say("The door won't budge!")
				return types.Stop()
			}
			return types.Continue()
		},
	}
}

func toolbox(types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:          "toolbox",
		Nouns:       []string{"toolbox", "tool box", "box", "toolkit", "tool case"},
		Summary:     types.Lit("a toolbox"),
		Description: types.Lit("A small metal case with a carry-handle. It is unlocked."),
	}
}

func wirecutters(types.Ref) types.EntityDef {
	return types.EntityDef{
		ID:          "wirecutters",
		Nouns:       []string{"wire cutters", "wirecutters", "cutters", "pliers"},
		Summary:     types.Lit("a pair of wire cutters"),
		Description: types.Lit("Probably from an electrician's tool box."),
	}
}

func onTurn(ctx *types.TurnContext) {
	g := ctx.Game
	b := g.Entity("bomb")
	n := remaining(b) - 1
	b.Data["remaining"] = n
	if n <= 0 {
		g.Print(types.Lit(
			"The bomb explodes, blowing you and the entire building to smithereens.",
			"Game Over.",
		), "danger")
		g.End()
		return
	}
	if n%2 == 1 {
		g.Print(types.Lit("Tick..."), "danger")
	} else {
		g.Print(types.Lit("Tock..."), "danger")
	}
}

func onCommand(ctx *types.CommandContext) types.HookResult {
	g, cmd, subject := ctx.Game, ctx.Command, ctx.Subject

	if cmd.Is("examine") {
		// Searching reveals a tool the first time only.
		if subject.Is("debris") && !subject.Meta.IsExamined {
			return types.Then(func() {
				g.Say("Sifting through the rubble, you uncover a rusty crowbar.")
				g.Location().Things.Add("crowbar")
			})
		}
		if subject.Is("toolbox") && !subject.Meta.IsExamined {
			return types.Then(func() {
				g.Say("As you inspect the tool case, something falls out to the floor.")
				g.Location().Things.Add("wirecutters")
			})
		}
	}

	if cmd.Is("defuse") && (subject.Is("bomb") || subject.Is("wire")) {
		g.Say("How are you going to do that?")
		return types.Stop()
	}

	if cmd.Is("pull") && subject.Is("wire") {
		g.Say("You pull out the wire.")
		g.Pause(2 * time.Second)
		g.Say("You breathe a sigh of relief.")
		g.Pause(2 * time.Second)
		g.Print(types.Lit(
			"...before the bomb explodes, obliterating everything around it... including you.",
			"Game Over.",
		), "danger")
		g.End()
		return types.Stop()
	}

	if cmd.Is("force") && subject.Is("door") {
		switch {
		case !sealed(subject):
			g.Say("It is already forced open.")
		case g.Inventory().Has("crowbar"):
			g.Say("You jam the crowbar between the door and frame, forcing it open with some effort.")
			subject.Data["isSealed"] = false
		default:
			g.Say("It's stuck. You'll need something to force it open with.")
		}
		return types.Stop()
	}

	if cmd.Is("cut") && subject.Is("wire") {
		if !g.Inventory().Has("wirecutters") {
			g.Say("You will need some kind of tool to cut it.")
			return types.Stop()
		}
		g.Say("You snip the wire.")
		g.Pause(time.Second + time.Duration(g.Roll(3000))*time.Millisecond)
		g.Print(types.Lit(fmt.Sprintf("...The timer stops at %d!", remaining(g.Entity("bomb")))), "")
		g.Print(types.Lit("Well done!"), "success")
		g.End()
		return types.Stop()
	}

	return types.Continue()
}

func sealed(door *types.Entity) bool {
	v, _ := door.Data["isSealed"].(bool)
	return v
}

func remaining(b *types.Entity) int {
	n, _ := b.Data["remaining"].(int)
	return n
}
