package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title    lipgloss.Style
	panel    lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	selected lipgloss.Style
	hint     lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	refused  lipgloss.Style
	barFill  lipgloss.Style
	barEmpty lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		label:    lipgloss.NewStyle().Foreground(t.Muted),
		value:    lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		hint:     lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		running:  lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		refused:  lipgloss.NewStyle().Foreground(t.Bad),
		barFill:  lipgloss.NewStyle().Foreground(t.Primary),
		barEmpty: lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// bar renders where v sits in [lo, hi] as a fixed-width gauge.
func (s styles) bar(v, lo, hi float64, width int) string {
	frac := 0.0
	if hi > lo {
		frac = (v - lo) / (hi - lo)
	}
	if math.IsNaN(frac) {
		frac = 0
	}
	filled := int(math.Round(math.Max(0, math.Min(1, frac)) * float64(width)))
	return s.barFill.Render(strings.Repeat("█", filled)) +
		s.barEmpty.Render(strings.Repeat("░", width-filled))
}
