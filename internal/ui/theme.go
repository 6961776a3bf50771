package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"habitline/internal/domain"
)

// habitline theme (CLI + TUI).

const (
	IconHabit   = "🌱"
	IconWeekly  = "📅"
	IconSparkle = "✨"
	IconPlus    = "➕"
	IconDone    = "✅"
	IconTodo    = "⬜"
	IconTrophy  = "🏆"
	IconLock    = "🔒"
	IconCoin    = "🪙"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconSync    = "🔁"
	IconScroll  = "📜"
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

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	Banner      = lipgloss.NewStyle().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(cGold).Padding(0, 1)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold)
)

// Apply switches the palette for a dark or light terminal background.
func Apply(theme string) {
	if theme == domain.ThemeDark {
		cMuted = lipgloss.Color("250")
		cPrimary = lipgloss.Color("75")
	} else {
		cMuted = lipgloss.Color("244")
		cPrimary = lipgloss.Color("63")
	}
	H2 = H2.Foreground(cPrimary)
	Key = Key.Foreground(cPrimary)
	Muted = Muted.Foreground(cMuted)
	Panel = Panel.BorderForeground(cMuted)
}

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

// StatusText renders today's status of a task.
func StatusText(done bool) string {
	if done {
		return Good.Render("done")
	}
	return Warn.Render("pending")
}

func CheckIcon(done bool) string {
	if done {
		return IconDone
	}
	return IconTodo
}

// TaskIcon prefers the task's own icon, then one for its schedule.
func TaskIcon(t domain.Task) string {
	if t.Icon != "" {
		return t.Icon
	}
	if t.Type == domain.TaskTypeWeekly {
		return IconWeekly
	}
	return IconHabit
}

var weekdays = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Schedule describes when a task is due, e.g. "daily" or "Mon, Wed".
func Schedule(t domain.Task) string {
	if t.Type != domain.TaskTypeWeekly {
		return "daily"
	}
	names := make([]string, 0, len(t.Days))
	for _, d := range t.Days {
		if d >= 0 && d < len(weekdays) {
			names = append(names, weekdays[d])
		}
	}
	return strings.Join(names, ", ")
}

// Unlocked renders the banner shown when an achievement unlocks.
func Unlocked(d *domain.AchievementDefinition) string {
	if d == nil {
		return ""
	}
	return Banner.Render(fmt.Sprintf("%s %s %s\n%s", IconTrophy, Gold.Render("Achievement unlocked:"), d.Icon+" "+d.Title, Muted.Render(d.Description)))
}
