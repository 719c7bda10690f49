package tui

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/njmcode/nidc2021-textadv/engine/resolve"
	"github.com/njmcode/nidc2021-textadv/types"
)

var titleCaser = cases.Title(language.English)

// locationDisplayName derives a human-readable name from a location ID.
// "great_hall" -> "Great Hall", "castellansChamber" -> "Castellans Chamber".
func locationDisplayName(id string) string {
	var b strings.Builder
	for i, r := range id {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && i > 0:
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return titleCaser.String(b.String())
}

// itemName is how a carried entity is named in the status bar.
func itemName(g types.Game, ent *types.Entity) string {
	if s := g.Dyntext(ent.Summary); s != "" {
		return s
	}
	if len(ent.Nouns) > 0 {
		return ent.Nouns[0]
	}
	return ent.ID
}

// renderStatusBar produces a full-width inverted status line showing
// current location, exits, inventory, and turn count.
func (m Model) renderStatusBar() string {
	e := m.engine
	loc := e.Location()

	dirs := make([]string, 0, len(loc.To))
	for cmd := range loc.To {
		dirs = append(dirs, cmd)
	}
	sort.Strings(dirs)
	exitStr := strings.Join(dirs, ",")

	left := fmt.Sprintf(" %s | Exits: %s", locationDisplayName(loc.ID), exitStr)
	right := fmt.Sprintf("T:%d ", e.TurnCount())

	var names []string
	for _, id := range e.Inventory().Items() {
		if ent := e.Entity(id); resolve.Carried(ent) {
			names = append(names, itemName(e, ent))
		}
	}

	// Show inventory items if they fit, otherwise just count.
	if len(names) > 0 {
		candidate := fmt.Sprintf("Inv: %s | T:%d ", strings.Join(names, ", "), e.TurnCount())
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | T:%d ", len(names), e.TurnCount())
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
