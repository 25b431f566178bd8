package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

const defaultTheme = "ink"

type palette struct {
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Accent    lipgloss.Color
	AccentAlt lipgloss.Color
	Border    lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Danger    lipgloss.Color
	BarFill   lipgloss.Color
	BarLow    lipgloss.Color
	BarEmpty  lipgloss.Color
}

var palettes = map[string]palette{
	"ink": {
		Text:      lipgloss.Color("#e6e6e6"),
		Muted:     lipgloss.Color("#7a7a7a"),
		Accent:    lipgloss.Color("#ffffff"),
		AccentAlt: lipgloss.Color("#b3b3b3"),
		Border:    lipgloss.Color("#3a3a3a"),
		Success:   lipgloss.Color("#a8d5a2"),
		Warning:   lipgloss.Color("#e0c872"),
		Danger:    lipgloss.Color("#e06c75"),
		BarFill:   lipgloss.Color("#d0d0d0"),
		BarLow:    lipgloss.Color("#e06c75"),
		BarEmpty:  lipgloss.Color("#2a2a2a"),
	},
	"paper": {
		Text:      lipgloss.Color("#2b2b2b"),
		Muted:     lipgloss.Color("#8a8a8a"),
		Accent:    lipgloss.Color("#000000"),
		AccentAlt: lipgloss.Color("#5c5c5c"),
		Border:    lipgloss.Color("#c8c8c8"),
		Success:   lipgloss.Color("#3d7a3a"),
		Warning:   lipgloss.Color("#a0711c"),
		Danger:    lipgloss.Color("#b3261e"),
		BarFill:   lipgloss.Color("#3b3b3b"),
		BarLow:    lipgloss.Color("#b3261e"),
		BarEmpty:  lipgloss.Color("#e4e4e4"),
	},
	"ember": {
		Text:      lipgloss.Color("#f2e5d5"),
		Muted:     lipgloss.Color("#9c8574"),
		Accent:    lipgloss.Color("#ff9e64"),
		AccentAlt: lipgloss.Color("#f7768e"),
		Border:    lipgloss.Color("#4a3a30"),
		Success:   lipgloss.Color("#9ece6a"),
		Warning:   lipgloss.Color("#e0af68"),
		Danger:    lipgloss.Color("#f7768e"),
		BarFill:   lipgloss.Color("#ff9e64"),
		BarLow:    lipgloss.Color("#f7768e"),
		BarEmpty:  lipgloss.Color("#2e2420"),
	},
}

func paletteFor(name string) palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[defaultTheme]
}

func themeNames() []string {
	names := make([]string, 0, len(palettes))
	for k := range palettes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func nextThemeName(current string, step int) string {
	names := themeNames()
	if len(names) == 0 {
		return current
	}
	idx := 0
	for i, name := range names {
		if name == current {
			idx = i
			break
		}
	}
	idx = (idx + step) % len(names)
	if idx < 0 {
		idx += len(names)
	}
	return names[idx]
}

type styles struct {
	title   lipgloss.Style
	box     lipgloss.Style
	text    lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
	cursor  lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	danger  lipgloss.Style
	help    lipgloss.Style
	choice  lipgloss.Style
	quote   lipgloss.Style
	label   lipgloss.Style
	palette palette
}

func newStyles(p palette) styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		box:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(1, 2),
		text:    lipgloss.NewStyle().Foreground(p.Text),
		muted:   lipgloss.NewStyle().Foreground(p.Muted),
		accent:  lipgloss.NewStyle().Foreground(p.AccentAlt),
		cursor:  lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		good:    lipgloss.NewStyle().Foreground(p.Success),
		warn:    lipgloss.NewStyle().Foreground(p.Warning),
		danger:  lipgloss.NewStyle().Bold(true).Foreground(p.Danger),
		help:    lipgloss.NewStyle().Italic(true).Foreground(p.Muted),
		choice:  lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(p.Border).Padding(0, 1),
		quote:   lipgloss.NewStyle().Italic(true).Foreground(p.AccentAlt),
		label:   lipgloss.NewStyle().Width(8).Foreground(p.Muted),
		palette: p,
	}
}
