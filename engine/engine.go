// Package engine runs a text adventure: it turns each input line into a
// canonical command and subject, gives the author's hooks first say, then
// applies the built-in semantics and advances the turn.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/njmcode/nidc2021-textadv/engine/idset"
	"github.com/njmcode/nidc2021-textadv/engine/parser"
	"github.com/njmcode/nidc2021-textadv/engine/queue"
	"github.com/njmcode/nidc2021-textadv/engine/resolve"
	"github.com/njmcode/nidc2021-textadv/engine/state"
	"github.com/njmcode/nidc2021-textadv/engine/vocab"
	"github.com/njmcode/nidc2021-textadv/types"
)

// Engine holds one running game. It is driven from a single goroutine;
// only the active flag is read by the output queue's timers.
type Engine struct {
	cfg      types.Config
	vocab    *vocab.Vocabulary
	lexicon  *parser.Lexicon
	store    *state.Store
	state    *state.GameState
	active   atomic.Bool
	queue    *queue.Queue
	msgs     types.Messages
	rng      *RNG
	log      *slog.Logger
	metrics  *Metrics
	suggest  bool
	session  string
	inert    *types.Entity
	pass     *pass
	qopts    []queue.Option
	lastRept types.Report
}

// pass is the per-input control state handed to hooks.
type pass struct {
	stopped bool
	noTurn  bool
	after   []func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The session id is attached to it.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMessages replaces the canned responses.
func WithMessages(m types.Messages) Option {
	return func(e *Engine) { e.msgs = m }
}

// WithSeed seeds the RNG exposed to hooks.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = NewRNG(seed) }
}

// WithSuggest enables "did you mean" hints for unknown verbs.
func WithSuggest(on bool) Option {
	return func(e *Engine) { e.suggest = on }
}

// WithMetrics records engine counters on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithPauseScale multiplies every author pause. Zero disables pauses.
func WithPauseScale(scale float64) Option {
	return func(e *Engine) { e.qopts = append(e.qopts, queue.WithScale(scale)) }
}

// WithClock drives pauses from c instead of the wall clock.
func WithClock(c queue.Clock) Option {
	return func(e *Engine) { e.qopts = append(e.qopts, queue.WithClock(c)) }
}

// WithSession overrides the generated session id.
func WithSession(id string) Option {
	return func(e *Engine) { e.session = id }
}

// New checks the game definition and prepares an engine writing to sink.
// Call Start to begin play.
func New(cfg types.Config, sink queue.Sink, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		msgs:    DefaultMessages(),
		rng:     NewRNG(time.Now().UnixNano()),
		log:     slog.Default(),
		session: uuid.NewString(),
		inert: &types.Entity{
			Tags:   idset.New(),
			Things: idset.New(),
			To:     map[string]string{},
			Data:   map[string]any{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = defaultMetrics()
	}
	e.log = e.log.With("session", e.session)
	e.queue = queue.New(sink, append([]queue.Option{queue.WithActive(e.IsActive)}, e.qopts...)...)
	e.vocab = vocab.Default(cfg.Commands)

	if _, err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// Check builds and validates a game definition without running it.
func Check(cfg types.Config) error {
	store, err := state.Materialize(cfg.Entities)
	if err != nil {
		return err
	}
	return state.Validate(store, store.StartID(cfg.StartLocation), idset.New(cfg.StartInventory...))
}

// load materializes a fresh world and fresh state.
func (e *Engine) load() (string, error) {
	store, err := state.Materialize(e.cfg.Entities)
	if err != nil {
		return "", errors.Wrap(err, "building entities")
	}
	start := store.StartID(e.cfg.StartLocation)
	inv := idset.New(e.cfg.StartInventory...)
	if err := state.Validate(store, start, inv); err != nil {
		return "", errors.WithStack(err)
	}

	e.store = store
	e.state = state.NewGameState(start, e.cfg.StartInventory)
	e.lexicon = parser.NewLexicon(e.vocab.Phrases(), store.NounPhrases())
	return start, nil
}

// Start resets the world, clears the output and moves to the start location.
func (e *Engine) Start() (err error) {
	start, err := e.load()
	if err != nil {
		return err
	}
	defer e.recoverAuthoring(&err)

	e.active.Store(true)
	e.queue.Clear()
	e.metrics.game("start")
	e.log.Info("game started", "title", e.cfg.Title, "start", start, "entities", e.store.Len(), "seed", e.rng.Seed())

	e.goTo(start, true)
	return nil
}

// Submit processes one line of player input.
func (e *Engine) Submit(input string) (rep types.Report, err error) {
	input = strings.TrimSpace(input)
	rep.Input = input
	if !e.IsActive() || input == "" {
		rep.TurnCount = e.TurnCount()
		return rep, nil
	}

	defer func() {
		rep.TurnCount = e.state.TurnCount
		e.lastRept = rep
		e.pass = nil
	}()
	defer e.recoverAuthoring(&err)

	p := &pass{}
	e.pass = p

	// 1. Echo the input.
	e.Print(types.Lit(input), "input")

	// 2. Interpret: parse, resolve, hook, exit or built-in.
	e.interpret(input, p, &rep)

	// 3. Deferred after-command callback.
	if !e.IsActive() {
		return rep, nil
	}
	// Callbacks run in registration order while the game lasts.
	afters := p.after
	p.after = nil
	for _, fn := range afters {
		if !e.IsActive() {
			break
		}
		fn()
	}

	// 4. Turn advance and turn hook.
	if !e.IsActive() || p.noTurn {
		return rep, nil
	}
	e.advanceTurn()
	rep.TurnAdvanced = true
	if e.cfg.OnTurn != nil {
		e.cfg.OnTurn(&types.TurnContext{Game: e, TurnCount: e.state.TurnCount})
	}
	return rep, nil
}

func (e *Engine) interpret(input string, p *pass, rep *types.Report) {
	// 1. Parse.
	tok := e.lexicon.Extract(input)
	rep.Verb, rep.Noun = tok.Verb, tok.Noun

	base, ok := e.vocab.Lookup(tok.Verb)
	if !ok {
		rep.Unknown = true
		p.noTurn = true
		e.metrics.unknown()
		e.log.Debug("unknown verb", "input", input, "noun", tok.Noun)
		e.Say(e.msgs.FailUnknown)
		if e.suggest {
			if word := parser.FirstWord(input); word != "" {
				if s, ok := e.lexicon.Suggest(word); ok {
					e.Print(types.Lit(fmt.Sprintf(e.msgs.DidYouMean, s)), "info")
				}
			}
		}
		return
	}
	rep.Command = base
	e.metrics.command(base)

	// 2. Resolve the subject.
	loc := e.Location()
	subject := resolve.Subject(e.store, tok.Noun,
		[]*idset.Set{loc.Things, e.state.Inventory}, resolve.NotInvisible)
	if subject != nil {
		rep.Subject = subject.ID
	}
	e.log.Debug("command", "verb", tok.Verb, "noun", tok.Noun, "command", base, "subject", rep.Subject)

	// 3. Author command hook.
	if e.cfg.OnCommand != nil {
		target := subject
		if target == nil {
			target = e.inert
		}
		ctx := &types.CommandContext{
			Game:    e,
			Command: e.vocab.Flags(base),
			Subject: target,
			StopCommand: func(suppressTurn bool) {
				p.stopped = true
				if suppressTurn {
					p.noTurn = true
				}
			},
			AfterCommand: func(fn func()) {
				if fn != nil {
					p.after = append(p.after, fn)
				}
			},
			NoTurn: func() { p.noTurn = true },
		}
		switch res := e.cfg.OnCommand(ctx); res.Outcome {
		case types.Veto:
			p.stopped = true
		case types.ProceedThen:
			if res.Then != nil {
				p.after = append(p.after, res.Then)
			}
		}
		if p.stopped {
			rep.Vetoed = true
			e.log.Debug("command vetoed by hook", "command", base)
			return
		}
	}
	if !e.IsActive() {
		return
	}

	// 4. Location exits win over built-ins.
	loc = e.Location()
	if dest, ok := loc.To[base]; ok {
		e.goTo(dest, true)
		return
	}

	// 5. Built-in semantics.
	e.builtin(base, subject, p)
}

func (e *Engine) builtin(base string, subject *types.Entity, p *pass) {
	loc := e.Location()
	inv := e.state.Inventory

	switch {
	case vocab.IsMovement(base):
		e.Say(e.msgs.FailNoExit)

	case base == vocab.Look:
		e.look(true)
		p.noTurn = true

	case base == vocab.Examine:
		if subject == nil {
			e.Say(e.msgs.FailExamine)
			p.noTurn = true
			return
		}
		if len(subject.Description) == 0 {
			e.Say(e.msgs.NothingSpecial)
		} else {
			e.Print(subject.Description, "")
		}
		subject.Meta.IsExamined = true

	case base == vocab.Get:
		if subject == nil || subject.Tags.Has(types.TagScenery) || subject.Tags.Has(types.TagFixed) {
			e.Say(e.msgs.FailGet)
			p.noTurn = true
			return
		}
		if inv.Has(subject.ID) {
			e.Say(e.msgs.FailGetOwned)
			p.noTurn = true
			return
		}
		state.Move(subject.ID, loc.Things, inv)
		subject.Meta.IsInitialState = false
		e.Say(e.msgs.OKGet)

	case base == vocab.Drop:
		if subject == nil || !inv.Has(subject.ID) {
			e.Say(e.msgs.FailDropOwned)
			p.noTurn = true
			return
		}
		if subject.Tags.Has(types.TagFixed) {
			e.Say(e.msgs.FailDrop)
			p.noTurn = true
			return
		}
		state.Move(subject.ID, inv, loc.Things)
		subject.Meta.IsInitialState = false
		e.Say(e.msgs.OKDrop)

	case base == vocab.Inventory:
		p.noTurn = true
		var names []string
		for _, id := range inv.Items() {
			if ent := e.store.MustGet(id); resolve.Carried(ent) {
				names = append(names, e.name(ent))
			}
		}
		if len(names) == 0 {
			e.Say(e.msgs.InvNone)
			return
		}
		e.Say(e.msgs.InvPrefix + strings.Join(names, ", ") + ".")

	case base == vocab.Help:
		p.noTurn = true
		e.Print(types.Lit("Basic commands: "+strings.Join(e.vocab.Commands, ", ")+". Try other words too!"), "info")

	default:
		e.Say(e.msgs.FailUnhandled)
		p.noTurn = true
	}
}

func (e *Engine) advanceTurn() {
	e.state.TurnCount++
	e.metrics.turn()
	e.log.Debug("turn", "count", e.state.TurnCount)
}

// recoverAuthoring turns an authoring-error panic into a returned error and
// ends the game. Anything that is not an error is re-raised.
func (e *Engine) recoverAuthoring(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		panic(r)
	}
	e.log.Error("authoring error, game halted", "err", err)
	e.End()
	*errp = err
}

// Report returns the report for the most recent input.
func (e *Engine) Report() types.Report {
	return e.lastRept
}

// Session returns the engine's session id.
func (e *Engine) Session() string {
	return e.session
}

// Title returns the game title.
func (e *Engine) Title() string {
	return e.cfg.Title
}

// Author returns the game author.
func (e *Engine) Author() string {
	return e.cfg.Author
}

// Busy reports whether narration is still pending behind a pause.
func (e *Engine) Busy() bool {
	return e.queue.Busy()
}

// Queue exposes the output queue so front-ends can wait for it to drain.
func (e *Engine) Queue() *queue.Queue {
	return e.queue
}

// Messages returns the canned responses in use.
func (e *Engine) Messages() types.Messages {
	return e.msgs
}

// Vocabulary returns the command vocabulary.
func (e *Engine) Vocabulary() *vocab.Vocabulary {
	return e.vocab
}
