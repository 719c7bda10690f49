// Package resolve maps a noun token to the entity a command targets.
package resolve

import (
	"github.com/njmcode/nidc2021-textadv/engine/idset"
	"github.com/njmcode/nidc2021-textadv/engine/state"
	"github.com/njmcode/nidc2021-textadv/types"
)

// Eligible decides whether a located entity may be the subject.
type Eligible func(e *types.Entity) bool

// Subject returns the entity owning noun if any of containers holds it and
// eligible accepts it. Returns nil otherwise. Since a noun has at most one
// owner, container order never changes the result.
func Subject(store *state.Store, noun string, containers []*idset.Set, eligible Eligible) *types.Entity {
	if noun == "" {
		return nil
	}
	id, ok := store.Nouns().Owner(noun)
	if !ok {
		return nil
	}
	ent, ok := store.Get(id)
	if !ok {
		return nil
	}
	for _, c := range containers {
		if !c.Has(id) {
			continue
		}
		if eligible != nil && !eligible(ent) {
			return nil
		}
		return ent
	}
	return nil
}

// NotInvisible accepts anything the player can perceive at all.
func NotInvisible(e *types.Entity) bool {
	return !e.Tags.Has(types.TagInvisible)
}

// Listed reports whether an entity belongs in a "You can see" line.
func Listed(e *types.Entity) bool {
	return !e.Tags.Has(types.TagInvisible) &&
		!e.Tags.Has(types.TagScenery) &&
		!e.Tags.Has(types.TagSilent)
}

// Carried reports whether an inventory item is shown by the inventory command.
func Carried(e *types.Entity) bool {
	return !e.Tags.Has(types.TagInvisible) && !e.Tags.Has(types.TagSilent)
}
