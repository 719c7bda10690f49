// Package state owns the entity store and the mutable game-state record.
package state

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/njmcode/nidc2021-textadv/engine/idset"
	"github.com/njmcode/nidc2021-textadv/engine/vocab"
	"github.com/njmcode/nidc2021-textadv/types"
)

// MissingIDError indicates a factory produced an entity without an id.
type MissingIDError struct {
	Index int
}

func (e *MissingIDError) Error() string {
	return fmt.Sprintf("entity factory #%d produced no id", e.Index)
}

// DuplicateIDError indicates two factories produced the same id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("entity id %q defined twice", e.ID)
}

// UnknownEntityError is raised when code asks for an entity that does not exist.
// It always indicates an authoring bug.
type UnknownEntityError struct {
	ID string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("no such entity %q", e.ID)
}

// Store holds every live entity in factory order.
type Store struct {
	entities map[string]*types.Entity
	order    []string
	nouns    vocab.Nouns
}

// Materialize calls each factory exactly once and builds the store.
// Each factory receives a self reference that resolves through the store
// at call time, so description functions can read their own live data.
func Materialize(factories []types.Factory) (*Store, error) {
	s := &Store{
		entities: make(map[string]*types.Entity, len(factories)),
		order:    make([]string, 0, len(factories)),
		nouns:    vocab.Nouns{},
	}

	for i, factory := range factories {
		var id string
		self := func() *types.Entity { return s.entities[id] }

		def := factory(self)
		if def.ID == "" {
			return nil, errors.WithStack(&MissingIDError{Index: i})
		}
		if _, dup := s.entities[def.ID]; dup {
			return nil, errors.WithStack(&DuplicateIDError{ID: def.ID})
		}
		id = def.ID

		ent := build(def)
		for _, noun := range ent.Nouns {
			if err := s.nouns.Bind(noun, ent.ID); err != nil {
				return nil, errors.Wrapf(err, "materializing %q", ent.ID)
			}
		}
		s.entities[id] = ent
		s.order = append(s.order, id)
	}

	return s, nil
}

// build normalizes a definition into a live entity.
func build(def types.EntityDef) *types.Entity {
	ent := &types.Entity{
		ID:          def.ID,
		Tags:        idset.New(def.Tags...),
		Things:      idset.New(def.Things...),
		To:          make(map[string]string, len(def.To)),
		Data:        def.Data,
		Meta:        types.Meta{IsInitialState: true},
		Description: def.Description,
		Summary:     def.Summary,
		Initial:     def.Initial,
		OnGoTo:      def.OnGoTo,
		OnLook:      def.OnLook,
	}
	if ent.Data == nil {
		ent.Data = map[string]any{}
	}
	for cmd, dest := range def.To {
		ent.To[cmd] = dest
	}
	for _, n := range def.Nouns {
		if n = NormalizeNoun(n); n != "" {
			ent.Nouns = append(ent.Nouns, n)
		}
	}
	return ent
}

// NormalizeNoun lowercases a noun phrase and collapses its whitespace.
func NormalizeNoun(n string) string {
	return strings.Join(strings.Fields(strings.ToLower(n)), " ")
}

// Get returns the entity with the given id.
func (s *Store) Get(id string) (*types.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// MustGet returns the entity or panics with an *UnknownEntityError.
func (s *Store) MustGet(id string) *types.Entity {
	e, ok := s.entities[id]
	if !ok {
		panic(&UnknownEntityError{ID: id})
	}
	return e
}

// IDs returns entity ids in factory order.
func (s *Store) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of entities.
func (s *Store) Len() int {
	return len(s.order)
}

// Nouns returns the noun index built during materialization.
func (s *Store) Nouns() vocab.Nouns {
	return s.nouns
}

// NounPhrases lists every registered noun.
func (s *Store) NounPhrases() []string {
	out := make([]string, 0, len(s.nouns))
	for _, id := range s.order {
		out = append(out, s.entities[id].Nouns...)
	}
	return out
}

// StartID picks the start location: the override if set, else the first entity.
func (s *Store) StartID(override string) string {
	if override != "" {
		return override
	}
	if len(s.order) == 0 {
		return ""
	}
	return s.order[0]
}

// GameState is the single mutable record for a running game. Whether the
// game is active lives on the engine, where the output queue can read it.
type GameState struct {
	TurnCount         int
	CurrentLocationID string
	Inventory         *idset.Set
}

// NewGameState returns a turn-zero state at start holding the given items.
func NewGameState(start string, inventory []string) *GameState {
	return &GameState{
		CurrentLocationID: start,
		Inventory:         idset.New(inventory...),
	}
}

// Move transfers id from one container to another. It reports false and
// changes nothing if from does not hold id.
func Move(id string, from, to *idset.Set) bool {
	if !from.Delete(id) {
		return false
	}
	to.Add(id)
	return true
}

// Holder returns the id of the entity whose things contain id, or "" if
// no entity does.
func (s *Store) Holder(id string) string {
	for _, hid := range s.order {
		if s.entities[hid].Things.Has(id) {
			return hid
		}
	}
	return ""
}
