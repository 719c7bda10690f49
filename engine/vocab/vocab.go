// Package vocab builds the alias -> canonical command map and the
// noun -> entity index from the built-in table and author configuration.
package vocab

import (
	"fmt"

	"github.com/njmcode/nidc2021-textadv/types"
)

// Built-in canonical commands.
const (
	North     = "n"
	East      = "e"
	West      = "w"
	South     = "s"
	Up        = "up"
	Down      = "down"
	In        = "in"
	Out       = "out"
	Look      = "look"
	Examine   = "examine"
	Get       = "get"
	Drop      = "drop"
	Inventory = "inventory"
	Help      = "help"
)

// BaseCommands lists the built-in canonical commands in help order.
var BaseCommands = []string{
	North, East, West, South, Up, Down, In, Out,
	Look, Examine, Get, Drop, Inventory, Help,
}

// Movement commands have no built-in effect beyond exit lookup.
var movement = map[string]bool{
	North: true, East: true, West: true, South: true,
	Up: true, Down: true, In: true, Out: true,
}

// IsMovement reports whether cmd is a built-in movement command.
func IsMovement(cmd string) bool {
	return movement[cmd]
}

// DefaultAliases is the built-in alias table.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		North:     {"north", "go north"},
		East:      {"east", "go east"},
		West:      {"west", "go west"},
		South:     {"south", "go south"},
		Up:        {"u", "go up", "ascend"},
		Down:      {"d", "go down", "descend"},
		In:        {"enter", "go in", "get in"},
		Out:       {"leave", "go out", "get out", "exit"},
		Look:      {"look around", "where", "where am i", "whereami"},
		Examine:   {"look at", "inspect", "x", "ex", "search", "check"},
		Get:       {"g", "take", "pick up", "obtain", "acquire", "grab"},
		Drop:      {"put down", "toss", "remove", "discard"},
		Inventory: {"inv", "carrying", "equipment", "items", "gear"},
		Help: {
			"instructions", "howto", "how to play", "?",
			"commands", "verbs", "words", "controls",
		},
	}
}

// Vocabulary is the static command vocabulary for one game.
type Vocabulary struct {
	// Commands holds canonical names in declaration order.
	Commands []string
	// Aliases maps canonical name -> alias phrases after merging.
	Aliases map[string][]string
	// AliasToCommand maps every alias (and canonical name) to its command.
	AliasToCommand map[string]string
}

// Build merges author commands into the base table. An author command
// replaces the alias list of a same-named command. The alias map is rebuilt
// in command order so a later command wins an alias collision.
func Build(base []string, aliases map[string][]string, author []types.CommandDef) *Vocabulary {
	v := &Vocabulary{
		Commands:       make([]string, 0, len(base)+len(author)),
		Aliases:        make(map[string][]string, len(aliases)+len(author)),
		AliasToCommand: map[string]string{},
	}

	known := map[string]bool{}
	for _, cmd := range base {
		if !known[cmd] {
			known[cmd] = true
			v.Commands = append(v.Commands, cmd)
		}
	}
	for cmd, list := range aliases {
		v.Aliases[cmd] = append([]string(nil), list...)
	}

	for _, def := range author {
		if def.Name == "" {
			continue
		}
		if !known[def.Name] {
			known[def.Name] = true
			v.Commands = append(v.Commands, def.Name)
		}
		v.Aliases[def.Name] = append([]string(nil), def.Aliases...)
	}

	for _, cmd := range v.Commands {
		v.AliasToCommand[cmd] = cmd
		for _, alias := range v.Aliases[cmd] {
			v.AliasToCommand[alias] = cmd
		}
	}

	return v
}

// Default builds the vocabulary from the built-in table plus author commands.
func Default(author []types.CommandDef) *Vocabulary {
	return Build(BaseCommands, DefaultAliases(), author)
}

// Lookup maps an alias to its canonical command.
func (v *Vocabulary) Lookup(alias string) (string, bool) {
	cmd, ok := v.AliasToCommand[alias]
	return cmd, ok
}

// Phrases returns every alias string the tokenizer must recognise as a verb.
func (v *Vocabulary) Phrases() []string {
	out := make([]string, 0, len(v.AliasToCommand))
	for alias := range v.AliasToCommand {
		out = append(out, alias)
	}
	return out
}

// Flags builds the per-call command map handed to hooks.
func (v *Vocabulary) Flags(base string) types.Command {
	flags := make(map[string]bool, len(v.Commands))
	for _, cmd := range v.Commands {
		flags[cmd] = cmd == base
	}
	return types.Command{Base: base, Flags: flags}
}

// DuplicateNounError reports a noun registered by two entities.
type DuplicateNounError struct {
	Noun     string
	Owner    string
	EntityID string
}

func (e *DuplicateNounError) Error() string {
	return fmt.Sprintf("duplicate noun %q found for entity %q (already bound to %q)", e.Noun, e.EntityID, e.Owner)
}

// Nouns maps noun strings to the entity that owns them.
type Nouns map[string]string

// Bind registers noun for entityID. A noun can only ever have one owner.
func (n Nouns) Bind(noun, entityID string) error {
	if owner, ok := n[noun]; ok {
		return &DuplicateNounError{Noun: noun, Owner: owner, EntityID: entityID}
	}
	n[noun] = entityID
	return nil
}

// Owner returns the entity bound to noun.
func (n Nouns) Owner(noun string) (string, bool) {
	id, ok := n[noun]
	return id, ok
}
