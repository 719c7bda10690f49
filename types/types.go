// Package types defines the shared data structures for the text adventure engine.
// This package holds type definitions, the hook contract and a handful of
// literal constructors. No engine logic lives here.
package types

import (
	"time"

	"github.com/njmcode/nidc2021-textadv/engine/idset"
)

// Well-known tags.
const (
	TagScenery   = "scenery"
	TagFixed     = "fixed"
	TagInvisible = "invisible"
	TagSilent    = "silent"
)

// ClassItems marks the "You can see ..." line printed by a look.
const ClassItems = "items"

// TextFunc computes text at print time from the live game.
type TextFunc func(g Game) string

// Segment is one printed line: either a literal or a computed producer.
type Segment struct {
	Literal  string
	Computed TextFunc
}

// Text is an ordered sequence of lines. A single literal string is a
// one-segment Text.
type Text []Segment

// Lit builds a Text of literal lines.
func Lit(lines ...string) Text {
	t := make(Text, 0, len(lines))
	for _, l := range lines {
		t = append(t, Segment{Literal: l})
	}
	return t
}

// Computed builds a single-line Text evaluated when printed.
func Computed(fn TextFunc) Text {
	return Text{{Computed: fn}}
}

// Meta is engine-managed bookkeeping for an entity.
type Meta struct {
	VisitCount     int
	IsInitialState bool
	IsExamined     bool
}

// Entity is the live record for a location, item or piece of scenery.
type Entity struct {
	ID          string
	Nouns       []string
	Tags        *idset.Set
	Things      *idset.Set
	To          map[string]string // command -> destination entity id
	Data        map[string]any
	Meta        Meta
	Description Text
	Summary     Text
	Initial     Text
	OnGoTo      GoToHook
	OnLook      LookHook
}

// Is reports whether the entity has the given id.
func (e *Entity) Is(id string) bool {
	return e != nil && e.ID != "" && e.ID == id
}

// Exists is false for the inert stand-in handed to hooks when no subject resolved.
func (e *Entity) Exists() bool {
	return e != nil && e.ID != ""
}

// Ref resolves an entity through the store at call time.
type Ref func() *Entity

// EntityDef is what an author factory returns.
type EntityDef struct {
	ID          string
	Nouns       []string
	Tags        []string
	Things      []string
	To          map[string]string
	Data        map[string]any
	Description Text
	Summary     Text
	Initial     Text
	OnGoTo      GoToHook
	OnLook      LookHook
}

// Factory builds one entity. self resolves the finished entity lazily.
type Factory func(self Ref) EntityDef

// CommandDef declares an author command and its alias phrases.
type CommandDef struct {
	Name    string
	Aliases []string
}

// Outcome is the control decision returned by a hook.
type Outcome int

const (
	Proceed Outcome = iota
	Veto
	ProceedThen
)

// HookResult is the explicit return type of command, transition and look hooks.
type HookResult struct {
	Outcome Outcome
	Then    func()
}

// Continue lets processing carry on.
func Continue() HookResult { return HookResult{Outcome: Proceed} }

// Stop cancels further processing.
func Stop() HookResult { return HookResult{Outcome: Veto} }

// Then lets processing carry on and runs fn once it completes.
func Then(fn func()) HookResult { return HookResult{Outcome: ProceedThen, Then: fn} }

// Command describes the resolved canonical command for a hook.
type Command struct {
	Base  string
	Flags map[string]bool // every known command name -> equals Base
}

// Is reports whether the resolved command is name.
func (c Command) Is(name string) bool {
	return c.Base == name
}

// CommandContext is handed to the global command hook.
type CommandContext struct {
	Game    Game
	Command Command
	Subject *Entity // never nil; Exists() is false when nothing resolved
	// StopCommand vetoes the rest of this input, optionally without spending a turn.
	StopCommand func(suppressTurn bool)
	// AfterCommand registers fn to run after the built-in effect. Several
	// registrations, including a Then result, run in the order made.
	AfterCommand func(fn func())
	// NoTurn suppresses the turn advance for this input.
	NoTurn func()
}

// GoToContext is handed to global and per-destination transition hooks.
type GoToContext struct {
	Game        Game
	Destination *Entity
	StopGoTo    func()
}

// LookContext is handed to global and per-location look hooks.
type LookContext struct {
	Game     Game
	Location *Entity
	Full     bool
	StopLook func()
}

// TurnContext is handed to the per-turn hook.
type TurnContext struct {
	Game      Game
	TurnCount int
}

// Hook signatures.
type (
	CommandHook func(ctx *CommandContext) HookResult
	GoToHook    func(ctx *GoToContext) HookResult
	LookHook    func(ctx *LookContext) HookResult
	TurnHook    func(ctx *TurnContext)
)

// Messages holds every player-facing canned response.
type Messages struct {
	LocationItemsPrefix string
	InvPrefix           string
	InvNone             string
	FailUnknown         string
	FailUnhandled       string
	FailNoExit          string
	FailExamine         string
	FailGet             string
	FailGetOwned        string
	FailDrop            string
	FailDropOwned       string
	OKGet               string
	OKDrop              string
	NothingSpecial      string
	DidYouMean          string
}

// Config is the complete author-facing game definition.
type Config struct {
	Title          string
	Author         string
	Entities       []Factory
	Commands       []CommandDef
	StartLocation  string
	StartInventory []string
	OnCommand      CommandHook
	OnGoTo         GoToHook
	OnTurn         TurnHook
	OnLook         LookHook
}

// Report summarises one processed input line for tracing.
type Report struct {
	Input        string
	Verb         string
	Noun         string
	Command      string
	Subject      string
	Vetoed       bool
	Unknown      bool
	TurnAdvanced bool
	TurnCount    int
}

// Game is the runtime API exposed to hooks and computed text.
type Game interface {
	Location() *Entity
	Inventory() *idset.Set
	// Entity panics with an authoring error when id is unknown.
	Entity(id string) *Entity
	Say(lines ...string)
	Print(t Text, class string)
	Pause(d time.Duration)
	GoTo(id string)
	Look(full bool)
	End()
	IsActive() bool
	TurnCount() int
	Dyntext(t Text) string
	Roll(sides int) int
}
