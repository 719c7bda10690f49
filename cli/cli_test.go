package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/njmcode/nidc2021-textadv/engine"
	"github.com/njmcode/nidc2021-textadv/types"
)

func fixed(def types.EntityDef) types.Factory {
	return func(types.Ref) types.EntityDef { return def }
}

// testConfig returns a minimal game for CLI testing.
func testConfig() types.Config {
	return types.Config{
		Title:  "Test Game",
		Author: "Test",
		Entities: []types.Factory{
			fixed(types.EntityDef{
				ID:          "hall",
				Summary:     types.Lit("The hall."),
				Description: types.Lit("A grand hall."),
				Things:      []string{"key"},
				To:          map[string]string{"n": "garden"},
			}),
			fixed(types.EntityDef{
				ID:          "garden",
				Description: types.Lit("A peaceful garden."),
				To:          map[string]string{"s": "hall"},
			}),
			fixed(types.EntityDef{
				ID:          "key",
				Nouns:       []string{"key", "rusty key"},
				Summary:     types.Lit("a rusty key"),
				Description: types.Lit("An old key."),
			}),
		},
		Commands: []types.CommandDef{
			{Name: "win", Aliases: []string{"triumph"}},
			{Name: "wait", Aliases: []string{"z"}},
		},
		OnCommand: func(ctx *types.CommandContext) types.HookResult {
			switch {
			case ctx.Command.Is("win"):
				ctx.Game.Say("You win!")
				ctx.Game.End()
				return types.Stop()
			case ctx.Command.Is("wait"):
				ctx.Game.Say("Time passes...")
				ctx.Game.Pause(time.Second)
				ctx.Game.Say("...slowly.")
				return types.Stop()
			}
			return types.Continue()
		},
	}
}

func newTestCLI(t *testing.T, input string, opts ...engine.Option) (*CLI, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := &CLI{
		In:   strings.NewReader(input),
		Out:  &out,
		Log:  log,
		Wrap: 0,
	}
	opts = append([]engine.Option{engine.WithLogger(log), engine.WithPauseScale(0)}, opts...)
	eng, err := engine.New(testConfig(), c, opts...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	c.Engine = eng
	return c, &out
}

func run(t *testing.T, c *CLI) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestCLI_BannerAndStartingRoom(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	run(t, c)

	output := out.String()
	if !strings.HasPrefix(output, "Test Game by Test\n=================\n") {
		t.Errorf("expected banner, got:\n%s", output)
	}
	if !strings.Contains(output, "A grand hall.") {
		t.Error("expected starting room description in output")
	}
	if !strings.Contains(output, "You can see a rusty key.") {
		t.Error("expected the key to be listed")
	}
	if !strings.Contains(output, "[Goodbye.]") {
		t.Error("expected goodbye message")
	}
}

func TestCLI_BasicGameplay(t *testing.T) {
	c, out := newTestCLI(t, "take key\nn\ninventory\n")
	run(t, c)

	output := out.String()
	for _, want := range []string{"Taken.", "A peaceful garden.", "You are carrying a rusty key."} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "> take key") {
		t.Error("input should not be echoed outside script mode")
	}
}

func TestCLI_ScriptEcho(t *testing.T) {
	c, out := newTestCLI(t, "# a comment\nlook\n")
	c.EchoInput = true
	run(t, c)

	output := out.String()
	if !strings.Contains(output, "> # a comment\n") {
		t.Errorf("expected echoed comment:\n%s", output)
	}
	if !strings.Contains(output, "> look\nA grand hall.") {
		t.Errorf("expected echoed command before its output:\n%s", output)
	}
}

func TestCLI_WaitsForPauses(t *testing.T) {
	c, out := newTestCLI(t, "z\n", engine.WithPauseScale(0.001))
	run(t, c)

	output := out.String()
	idx := strings.Index(output, "Time passes...\n...slowly.\n> ")
	if idx < 0 {
		t.Errorf("expected paused narration to finish before the next prompt:\n%s", output)
	}
}

func TestCLI_GameOver(t *testing.T) {
	c, out := newTestCLI(t, "win\nlook\n/restart\nlook\n")
	run(t, c)

	output := out.String()
	if !strings.Contains(output, "You win!") {
		t.Error("expected win message")
	}
	if !strings.Contains(output, "[The game is over. Type /restart to play again or /quit to leave.]") {
		t.Errorf("expected game over notice:\n%s", output)
	}
	if strings.Count(output, "A grand hall.") != 3 {
		t.Errorf("expected hall at start, after restart and on look:\n%s", output)
	}
	if !c.Engine.IsActive() {
		t.Error("restart should reactivate the game")
	}
}

func TestCLI_MetaState(t *testing.T) {
	c, out := newTestCLI(t, "take key\n/state\n")
	run(t, c)

	output := out.String()
	for _, want := range []string{"Field", "Location", "hall", "Inventory", "key", "Turn"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in state dump:\n%s", want, output)
		}
	}
}

func TestCLI_MetaTrace(t *testing.T) {
	c, out := newTestCLI(t, "/trace\nx rusty key\n/trace\nlook\n")
	run(t, c)

	output := out.String()
	if !strings.Contains(output, "[Trace output enabled.]") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, `[trace] verb="x" noun="rusty key" command="examine" subject="key"`) {
		t.Errorf("expected trace line:\n%s", output)
	}
	if strings.Count(output, "[trace] verb=") != 1 {
		t.Error("trace should be off again for the last command")
	}
}

func TestCLI_MetaUnknownAndHelp(t *testing.T) {
	c, out := newTestCLI(t, "/dance\n/help\n")
	run(t, c)

	output := out.String()
	if !strings.Contains(output, "[Unknown command: /dance. Type /help for available commands.]") {
		t.Error("expected unknown meta command message")
	}
	if !strings.Contains(output, "/restart") {
		t.Error("expected help text")
	}
}

func TestCLI_Wrap(t *testing.T) {
	c, out := newTestCLI(t, "")
	c.Wrap = 10
	c.Write("the quick brown fox jumps", "")

	if !strings.Contains(out.String(), "the quick\nbrown fox\njumps\n") {
		t.Errorf("unexpected wrap:\n%q", out.String())
	}
}
