package engine

import (
	"strings"
	"time"

	"github.com/njmcode/nidc2021-textadv/engine/idset"
	"github.com/njmcode/nidc2021-textadv/engine/resolve"
	"github.com/njmcode/nidc2021-textadv/types"
)

var _ types.Game = (*Engine)(nil)

// Location returns the current location.
func (e *Engine) Location() *types.Entity {
	return e.store.MustGet(e.state.CurrentLocationID)
}

// Inventory returns the live inventory set.
func (e *Engine) Inventory() *idset.Set {
	return e.state.Inventory
}

// Entity returns the entity with id. An unknown id panics with
// *state.UnknownEntityError.
func (e *Engine) Entity(id string) *types.Entity {
	return e.store.MustGet(id)
}

// Entities lists entity ids in definition order.
func (e *Engine) Entities() []string {
	return e.store.IDs()
}

// Say prints literal lines.
func (e *Engine) Say(lines ...string) {
	e.Print(types.Lit(lines...), "")
}

// Print queues each line of t. Computed lines are resolved now, against
// the current state. Empty lines are skipped.
func (e *Engine) Print(t types.Text, class string) {
	for _, seg := range t {
		if text := e.segment(seg); text != "" {
			e.queue.Add(text, class)
		}
	}
}

// Pause delays all later output by d. Once the game has ended pauses are
// dropped, so closing text is not held back.
func (e *Engine) Pause(d time.Duration) {
	if !e.IsActive() {
		return
	}
	e.queue.Pause(d)
}

// GoTo moves the player to id and spends a turn, without running the turn hook.
func (e *Engine) GoTo(id string) {
	e.goTo(id, false)
}

// Look describes the current location.
func (e *Engine) Look(full bool) {
	e.look(full)
}

// End stops the game. Output already queued still drains.
func (e *Engine) End() {
	if !e.active.Swap(false) {
		return
	}
	e.queue.HideInput()
	e.metrics.game("end")
	e.log.Info("game ended", "turns", e.state.TurnCount, "location", e.state.CurrentLocationID, "rolls", e.rng.Position())
}

// IsActive reports whether the game still accepts input.
func (e *Engine) IsActive() bool {
	return e.active.Load()
}

// TurnCount returns the number of turns spent.
func (e *Engine) TurnCount() int {
	return e.state.TurnCount
}

// Dyntext resolves t to a single string, lines joined by spaces.
func (e *Engine) Dyntext(t types.Text) string {
	parts := make([]string, 0, len(t))
	for _, seg := range t {
		if text := e.segment(seg); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Roll returns a seeded random integer in [1, sides].
func (e *Engine) Roll(sides int) int {
	return e.rng.Roll(sides)
}

func (e *Engine) segment(seg types.Segment) string {
	if seg.Computed != nil {
		return seg.Computed(e)
	}
	return seg.Literal
}

// name is how an entity appears in lists.
func (e *Engine) name(ent *types.Entity) string {
	if s := e.Dyntext(ent.Summary); s != "" {
		return s
	}
	if len(ent.Nouns) > 0 {
		return ent.Nouns[0]
	}
	return ent.ID
}

// goTo runs the transition protocol. It reports whether the move happened.
func (e *Engine) goTo(id string, skipTurn bool) bool {
	dest := e.store.MustGet(id)

	var thens []func()
	hooks := []types.GoToHook{e.cfg.OnGoTo, dest.OnGoTo}
	for i, hook := range hooks {
		if hook == nil {
			continue
		}
		stopped := false
		ctx := &types.GoToContext{
			Game:        e,
			Destination: dest,
			StopGoTo:    func() { stopped = true },
		}
		res := hook(ctx)
		if stopped || res.Outcome == types.Veto {
			e.metrics.transition("vetoed")
			e.log.Debug("transition vetoed", "to", id, "global", i == 0)
			return false
		}
		if res.Outcome == types.ProceedThen && res.Then != nil {
			thens = append(thens, res.Then)
		}
		if !e.IsActive() {
			return false
		}
	}

	from := e.state.CurrentLocationID
	e.state.CurrentLocationID = id
	dest.Meta.VisitCount++
	e.metrics.transition("moved")
	e.log.Debug("transition", "from", from, "to", id, "visits", dest.Meta.VisitCount)

	e.look(false)
	if !skipTurn {
		e.advanceTurn()
	}

	for _, fn := range thens {
		if !e.IsActive() {
			break
		}
		fn()
	}
	return true
}

// look renders the current location. A look is full when forced or on the
// first visit.
func (e *Engine) look(force bool) {
	loc := e.Location()
	full := force || loc.Meta.VisitCount == 1

	var thens []func()
	for _, hook := range []types.LookHook{e.cfg.OnLook, loc.OnLook} {
		if hook == nil {
			continue
		}
		stopped := false
		ctx := &types.LookContext{
			Game:     e,
			Location: loc,
			Full:     full,
			StopLook: func() { stopped = true },
		}
		res := hook(ctx)
		if stopped || res.Outcome == types.Veto {
			return
		}
		if res.Outcome == types.ProceedThen && res.Then != nil {
			thens = append(thens, res.Then)
		}
	}

	if full {
		e.printFirst(loc.Description, loc.Summary)
	} else {
		e.printFirst(loc.Summary, loc.Description)
	}

	var listed []string
	for _, id := range loc.Things.Items() {
		ent := e.store.MustGet(id)
		if !resolve.Listed(ent) {
			continue
		}
		if full && ent.Meta.IsInitialState && len(ent.Initial) > 0 {
			e.Print(ent.Initial, "")
			continue
		}
		listed = append(listed, e.name(ent))
	}
	if len(listed) > 0 {
		e.Print(types.Lit(e.msgs.LocationItemsPrefix+strings.Join(listed, ", ")+"."), types.ClassItems)
	}

	for _, fn := range thens {
		if !e.IsActive() {
			break
		}
		fn()
	}
}

func (e *Engine) printFirst(texts ...types.Text) {
	for _, t := range texts {
		if len(t) > 0 {
			e.Print(t, "")
			return
		}
	}
}
