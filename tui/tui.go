package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/njmcode/nidc2021-textadv/engine"
	"github.com/njmcode/nidc2021-textadv/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text string
	kind lineKind
}

// Model is the Bubble Tea model for the text adventure TUI.
type Model struct {
	engine *engine.Engine
	bridge *Bridge
	log    *slog.Logger

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines    []rawLine // accumulated narrative lines (unstyled, for re-wrapping)
	itemsPrefix string    // lead-in of item listings, from the game's messages

	width    int
	height   int
	ready    bool
	trace    bool
	hidden   bool // input hidden while a pause drains
	over     bool
	quitting bool
	err      error
}

// idleMsg arrives once the output queue has drained.
type idleMsg struct{}

// New creates a TUI model wired to the given engine. bridge must be the
// sink the engine was created with.
func New(eng *engine.Engine, bridge *Bridge, log *slog.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	if log == nil {
		log = slog.Default()
	}
	return Model{
		engine:      eng,
		bridge:      bridge,
		log:         log,
		input:       ti,
		history:     NewHistory(100),
		itemsPrefix: eng.Messages().LocationItemsPrefix,
	}
}

// Run starts the game and the Bubble Tea program. It returns the error
// that halted the game, if any.
func Run(eng *engine.Engine, bridge *Bridge, log *slog.Logger) error {
	m := New(eng, bridge, log)
	if err := eng.Start(); err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.err
	}
	return nil
}

func titleLine(e *engine.Engine) string {
	title := e.Title()
	if author := e.Author(); author != "" {
		title += " by " + author
	}
	return title
}

// Init starts listening for engine output.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.bridge.wait(), m.waitIdle())
}

func (m Model) waitIdle() tea.Cmd {
	idle := m.engine.Queue().Idle()
	return func() tea.Msg {
		<-idle
		return idleMsg{}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(m.input.Value()); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if !m.history.Navigating() {
				return m, nil
			}
			next, ok := m.history.Next()
			m.input.SetValue(next)
			m.input.CursorEnd()
			if !ok {
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case eventsMsg:
		m = m.apply(msg)
		cmds = append(cmds, m.bridge.wait())

	case idleMsg:
		m.hidden = m.engine.Busy()
		m.over = !m.engine.IsActive()
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// apply folds a batch of engine output into the transcript.
func (m Model) apply(evs eventsMsg) Model {
	for _, ev := range evs {
		switch ev.kind {
		case evWrite:
			kind := classifyLine(ev.class, ev.text)
			text := ev.text
			if kind == kindInput {
				// Blank line separator between turns.
				m.rawLines = append(m.rawLines, rawLine{})
				text = "> " + text
			}
			m.line(text, kind)
		case evClear:
			m.rawLines = m.rawLines[:0]
			m.line(titleLine(m.engine), kindInfo)
		case evShowInput:
			m.hidden = false
		case evHideInput:
			m.hidden = true
		}
	}
	m.over = !m.engine.IsActive()
	m.refreshViewport()
	return m
}

func (m *Model) line(text string, kind lineKind) {
	m.rawLines = append(m.rawLines, rawLine{text: text, kind: kind})
}

func (m *Model) system(lines ...string) {
	for _, l := range lines {
		m.line(l, kindSystem)
	}
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.hidden && !m.over {
		return m, nil
	}
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		m.line("> "+input, kindInput)
		quit := m.handleMeta(input)
		m.refreshViewport()
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.waitIdle()
	}

	if m.over {
		m.system("The game is over. Type /restart to play again or /quit to leave.")
		m.refreshViewport()
		return m, nil
	}

	rep, err := m.engine.Submit(input)
	if err != nil {
		m.log.Error("game halted", "err", err)
		m.err = err
		m.quitting = true
		return m, tea.Quit
	}
	if m.trace {
		m.traceLines(rep)
	}
	// Output written during Submit is waiting in the bridge.
	m = m.apply(eventsMsg(m.bridge.drain()))
	if m.engine.Busy() {
		m.hidden = true
	}
	return m, m.waitIdle()
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		styled = append(styled, renderLineKind(wordwrap.String(rl.text, width), rl.kind, m.itemsPrefix))
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	prompt := m.input.View()
	switch {
	case m.over:
		prompt = styleOverPrompt.Render("[game over] ") + prompt
	case m.hidden:
		prompt = styleWaiting.Render("...")
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + prompt
}

// handleMeta dispatches meta-commands. Returns the quit flag.
func (m *Model) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case "/quit", "/exit":
		m.system("Goodbye.")
		return true

	case "/restart":
		if err := m.engine.Start(); err != nil {
			m.err = err
			return true
		}
		*m = m.apply(eventsMsg(m.bridge.drain()))

	case "/copy":
		if err := clipboard.WriteAll(m.transcript()); err != nil {
			m.system(fmt.Sprintf("Copy failed: %v", err))
		} else {
			m.system("Transcript copied to the clipboard.")
		}

	case "/help":
		m.system(
			"System:",
			"  /quit         Exit game",
			"  /restart      Start the game again",
			"  /copy         Copy the transcript to the clipboard",
			"  /help         Show this help",
			"  /state        Debug: dump current state",
			"  /trace        Toggle debug trace output",
			"",
			"Type \"help\" to list the game's commands.",
			"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
		)

	case "/state":
		m.cmdState()

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			m.system("Trace output enabled.")
		} else {
			m.system("Trace output disabled.")
		}

	default:
		m.system(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
	return false
}

func (m *Model) cmdState() {
	e := m.engine
	m.system(
		fmt.Sprintf("Turn: %d", e.TurnCount()),
		fmt.Sprintf("Location: %s", e.Location().ID),
		fmt.Sprintf("Inventory: %s", strings.Join(e.Inventory().Items(), ", ")),
		fmt.Sprintf("Active: %t", e.IsActive()),
		fmt.Sprintf("Session: %s", e.Session()),
	)
}

func (m *Model) traceLines(rep types.Report) {
	m.line(fmt.Sprintf("[trace] verb=%q noun=%q command=%q subject=%q", rep.Verb, rep.Noun, rep.Command, rep.Subject), kindTrace)
	m.line(fmt.Sprintf("[trace] unknown=%t vetoed=%t turn_advanced=%t turn=%d",
		rep.Unknown, rep.Vetoed, rep.TurnAdvanced, rep.TurnCount), kindTrace)
}

// transcript returns the unstyled narrative.
func (m Model) transcript() string {
	lines := make([]string, len(m.rawLines))
	for i, rl := range m.rawLines {
		lines[i] = rl.text
	}
	return strings.Join(lines, "\n")
}

// Err reports the error that halted the game, if any.
func (m Model) Err() error { return m.err }

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
