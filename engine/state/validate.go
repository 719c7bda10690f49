package state

import (
	"fmt"
	"sort"
	"strings"

	"github.com/njmcode/nidc2021-textadv/engine/idset"
)

// ValidationError collects every broken reference found in a world.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Validate checks the store for referential integrity: exit destinations,
// contained ids, the start location and the start inventory must all exist,
// and no entity may be held by two containers.
func Validate(s *Store, startID string, inventory *idset.Set) error {
	ve := &ValidationError{}

	if startID == "" {
		ve.Errors = append(ve.Errors, "no start location: the world has no entities")
	} else if _, ok := s.entities[startID]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf("start location %q not found", startID))
	}

	holders := map[string][]string{}
	for _, id := range s.order {
		ent := s.entities[id]

		cmds := make([]string, 0, len(ent.To))
		for cmd := range ent.To {
			cmds = append(cmds, cmd)
		}
		sort.Strings(cmds)
		for _, cmd := range cmds {
			if dest := ent.To[cmd]; s.entities[dest] == nil {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"entity %q exit %q points to undefined entity %q", id, cmd, dest))
			}
		}

		for _, thing := range ent.Things.Items() {
			if s.entities[thing] == nil {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"entity %q contains undefined entity %q", id, thing))
				continue
			}
			if thing == id {
				ve.Errors = append(ve.Errors, fmt.Sprintf("entity %q contains itself", id))
				continue
			}
			holders[thing] = append(holders[thing], id)
		}
	}

	for _, item := range inventory.Items() {
		if s.entities[item] == nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("start inventory item %q not found", item))
			continue
		}
		holders[item] = append(holders[item], "inventory")
	}

	for _, id := range s.order {
		if h := holders[id]; len(h) > 1 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"entity %q is held by more than one container: %s", id, strings.Join(h, ", ")))
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
