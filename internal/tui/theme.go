package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/retreat/internal/schedule"
)

var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Padding(0, 1)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Done  = lipgloss.NewStyle().Foreground(Green)

	Toast = lipgloss.NewStyle().
		Foreground(Base).
		Background(Lavender).
		Padding(0, 1)

	Splash = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Lavender).
		Foreground(Text).
		Padding(1, 4).
		Align(lipgloss.Center)
)

// tabStyle picks the style of a day tab.
func tabStyle(status schedule.Status, current bool) lipgloss.Style {
	switch {
	case current:
		return Hot.Underline(true)
	case status == schedule.Active:
		return lipgloss.NewStyle().Foreground(Green)
	case status == schedule.Expired:
		return Muted.Strikethrough(true)
	default:
		return Muted
	}
}
