// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for plain-terminal play.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/buildkite/shellwords"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rodaine/table"

	"github.com/njmcode/nidc2021-textadv/engine"
	"github.com/njmcode/nidc2021-textadv/engine/resolve"
	"github.com/njmcode/nidc2021-textadv/types"
)

// CLI handles terminal interaction with the player. It is also the engine's
// output sink, so narration released after a pause lands on Out.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	Log       *slog.Logger
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)
	Wrap      int  // wrap width; 0 disables wrapping

	mu sync.Mutex
}

// New creates a CLI on stdin/stdout. Set Engine before calling Run.
func New() *CLI {
	return &CLI{
		In:   os.Stdin,
		Out:  os.Stdout,
		Log:  slog.Default(),
		Wrap: 80,
	}
}

// Write prints one line of narration.
func (c *CLI) Write(text, class string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if class == "input" {
		// The terminal already shows what was typed.
		if c.EchoInput {
			fmt.Fprintln(c.Out, text)
		}
		return
	}
	fmt.Fprintln(c.Out, c.wrap(text))
}

// Clear separates a restarted game from the previous transcript.
func (c *CLI) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.Out)
}

// ShowInput is a no-op: Run prompts once the queue has drained.
func (c *CLI) ShowInput() {}

// HideInput is a no-op, see ShowInput.
func (c *CLI) HideInput() {}

// Run starts the game and loops: wait for narration to drain, prompt,
// read a line, dispatch it. It returns when input runs out, on /quit, or
// when a hook fails.
func (c *CLI) Run(ctx context.Context) error {
	c.banner()
	if err := c.Engine.Start(); err != nil {
		return err
	}

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	over := false
	for {
		if err := c.Engine.Queue().Wait(ctx); err != nil {
			return err
		}
		if !c.Engine.IsActive() && !over {
			over = true
			c.printSystem("The game is over. Type /restart to play again or /quit to leave.")
		}
		c.print("> ")

		var input string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				c.printLine("")
				return nil
			}
			input = strings.TrimSpace(line)
		}
		if input == "" {
			if c.EchoInput {
				c.printLine("")
			}
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			if c.EchoInput {
				c.printLine(input)
			}
			continue
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.EchoInput {
				c.printLine(input)
			}
			quit, err := c.handleMeta(input)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			if c.Engine.IsActive() {
				over = false
			}
			continue
		}

		if !c.Engine.IsActive() {
			if c.EchoInput {
				c.printLine(input)
			}
			continue
		}

		rep, err := c.Engine.Submit(input)
		if err != nil {
			c.Log.Error("game halted", "err", err)
			c.printSystem(fmt.Sprintf("Game halted: %v", err))
			return err
		}
		if c.Trace {
			c.printTrace(rep)
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) (bool, error) {
	parts, err := shellwords.SplitPosix(input)
	if err != nil || len(parts) == 0 {
		c.printSystem(fmt.Sprintf("Could not read command: %v", err))
		return false, nil
	}
	cmd := parts[0]

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true, nil

	case "/restart":
		if err := c.Engine.Start(); err != nil {
			return false, err
		}

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if len(parts) > 1 {
			c.Trace = parts[1] == "on"
		}
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false, nil
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /quit         Exit game",
		"  /restart      Start the game again",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"  /trace [on]   Toggle debug trace output",
		"",
		"Type \"help\" to list the game's commands.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	e := c.Engine
	loc := e.Location()

	var visible []string
	for _, id := range loc.Things.Items() {
		if resolve.NotInvisible(e.Entity(id)) {
			visible = append(visible, id)
		}
	}

	var buf bytes.Buffer
	tbl := table.New("Field", "Value").WithWriter(&buf)
	tbl.AddRow("Location", loc.ID)
	tbl.AddRow("Turn", e.TurnCount())
	tbl.AddRow("Active", e.IsActive())
	tbl.AddRow("Inventory", strings.Join(e.Inventory().Items(), ", "))
	tbl.AddRow("Things", strings.Join(visible, ", "))
	tbl.AddRow("Session", e.Session())
	tbl.Print()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Out.Write(buf.Bytes())
}

func (c *CLI) printTrace(rep types.Report) {
	c.printLine(fmt.Sprintf("[trace] verb=%q noun=%q command=%q subject=%q", rep.Verb, rep.Noun, rep.Command, rep.Subject))
	c.printLine(fmt.Sprintf("[trace] unknown=%t vetoed=%t turn_advanced=%t turn=%d",
		rep.Unknown, rep.Vetoed, rep.TurnAdvanced, rep.TurnCount))
}

func (c *CLI) banner() {
	title := c.Engine.Title()
	if author := c.Engine.Author(); author != "" {
		title += " by " + author
	}
	c.printLine(title)
	c.printLine(strings.Repeat("=", len(title)))
}

func (c *CLI) wrap(text string) string {
	if c.Wrap <= 0 {
		return text
	}
	return wordwrap.String(text, c.Wrap)
}

func (c *CLI) printLine(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
