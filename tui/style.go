package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/njmcode/nidc2021-textadv/types"
)

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Chrome styles.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)
	styleInputPrompt = fg("34")
	styleOverPrompt  = fg("243")
	styleWaiting     = fg("240").Italic(true)
	styleItemNames   = lipgloss.NewStyle().Bold(true)
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindRoomDesc lineKind = iota
	kindYouSee
	kindInput
	kindInfo
	kindSystem
	kindError
	kindSuccess
	kindTrace
)

// lineStyles maps each kind to its narrative style.
var lineStyles = map[lineKind]lipgloss.Style{
	kindRoomDesc: fg("255"),
	kindYouSee:   fg("255"),
	kindInput:    fg("34"),
	kindInfo:     fg("111"),
	kindSystem:   fg("243"),
	kindError:    fg("210"),
	kindSuccess:  fg("120"),
	kindTrace:    fg("240"),
}

// classKinds maps the output classes games print with.
var classKinds = map[string]lineKind{
	"input":   kindInput,
	"info":    kindInfo,
	"danger":  kindError,
	"success": kindSuccess,
	"trace":   kindTrace,
	"system":  kindSystem,

	types.ClassItems: kindYouSee,
}

// classifyLine picks a kind from the output class, falling back to the
// built-in messages for unclassed lines.
func classifyLine(class, line string) lineKind {
	if kind, ok := classKinds[class]; ok {
		return kind
	}
	switch {
	case strings.HasPrefix(line, "Sorry, "),
		strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "You don't"):
		return kindError
	default:
		return kindRoomDesc
	}
}

// renderLineKind applies the style for a given lineKind. prefix is the
// lead-in of item listings, left unbolded.
func renderLineKind(line string, kind lineKind, prefix string) string {
	switch kind {
	case kindYouSee:
		return styledYouSee(line, prefix)
	case kindSystem:
		return lineStyles[kindSystem].Render("[" + line + "]")
	}
	return lineStyles[kind].Render(line)
}

// styledYouSee renders "You can see a, b." with the item names bold.
func styledYouSee(line, prefix string) string {
	base := lineStyles[kindYouSee]
	items, ok := strings.CutPrefix(line, prefix)
	if prefix == "" || !ok {
		return base.Render(line)
	}
	return base.Render(prefix) + styleItemNames.Render(items)
}
