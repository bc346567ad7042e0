package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/realQhimself/dopamine-app/internal/engine"
)

// Dopamine theme (CLI + TUI).
// Kept intentionally small: reusable styles and a few emojis.

const (
	IconSpark    = "⚡"
	IconDone     = "✅"
	IconStreak   = "🔥"
	IconTrophy   = "🏆"
	IconStar     = "🌟"
	IconCalendar = "📅"
	IconChat     = "💬"
	IconShield   = "🛡️"
	IconPlus     = "➕"
	IconInfo     = "ℹ️"
	IconWarn     = "⚠️"
	IconError    = "🧨"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	Dim   = lipgloss.NewStyle().Foreground(cMuted)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	Celebration = lipgloss.NewStyle().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(cGold).Padding(0, 2)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

func EnergyText(e engine.EnergyLevel) string {
	switch e {
	case engine.EnergyLow:
		return Warn.Render("low 🪫")
	case engine.EnergyMedium:
		return H2.Render("medium 🔋")
	case engine.EnergyHigh:
		return Good.Render("high ⚡")
	default:
		return Muted.Render("not set")
	}
}

func CategoryIcon(c engine.Category) string {
	switch c {
	case engine.CategoryRoutine:
		return "🔁"
	case engine.CategoryWork:
		return "💼"
	case engine.CategoryHealth:
		return "💪"
	case engine.CategoryCreative:
		return "🎨"
	case engine.CategoryAdmin:
		return "📋"
	case engine.CategoryCalendar:
		return IconCalendar
	default:
		return IconSpark
	}
}

func ProgressBar(value, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	filled := value * width / total
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
