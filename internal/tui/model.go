package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"habitline/internal/domain"
	"habitline/internal/engine"
	"habitline/internal/ui"
)

type boardModel struct {
	ctx   context.Context
	store *engine.Store
	now   func() time.Time

	width  int
	height int

	state    domain.AppState
	today    []domain.Task
	selected int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	state domain.AppState
	err   error
}

type toggledMsg struct {
	task      domain.Task
	completed bool
	state     domain.AppState
}

func newBoardModel(ctx context.Context, store *engine.Store, now func() time.Time) boardModel {
	if now == nil {
		now = time.Now
	}
	return boardModel{
		ctx:     ctx,
		store:   store,
		now:     now,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd(false)
}

// loadCmd reads the current state, re-reading the backend first when reload is set.
func (m boardModel) loadCmd(reload bool) tea.Cmd {
	return func() tea.Msg {
		if reload {
			if err := m.store.Flush(m.ctx); err != nil {
				return loadedMsg{err: err}
			}
			if err := m.store.Load(m.ctx); err != nil {
				return loadedMsg{err: err}
			}
		}
		return loadedMsg{state: m.store.State()}
	}
}

func (m boardModel) toggleCmd(t domain.Task, done bool) tea.Cmd {
	return func() tea.Msg {
		var state domain.AppState
		if done {
			state = m.store.Dispatch(engine.UncompleteTask{TaskID: t.ID})
		} else {
			state = m.store.Dispatch(engine.CompleteTask{TaskID: t.ID})
		}
		return toggledMsg{task: t, completed: !done, state: state}
	}
}

func (m boardModel) dismissCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{state: m.store.Dispatch(engine.ClearPendingAchievement{})}
	}
}

func (m boardModel) setState(s domain.AppState) boardModel {
	m.state = s
	m.today = engine.TodayTasks(s.Tasks, m.now())
	if m.selected >= len(m.today) {
		m.selected = len(m.today) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	return m
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m = m.setState(msg.state)
		m.lastLog = fmt.Sprintf("Refreshed at %s.", m.now().Format("15:04:05"))
		return m, nil
	case toggledMsg:
		m = m.setState(msg.state)
		if msg.completed {
			m.lastLog = fmt.Sprintf("Completed %s: +%d", msg.task.Title, msg.task.Reward)
		} else {
			m.lastLog = fmt.Sprintf("Removed every completion of %s.", msg.task.Title)
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd(true)
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.today)-1 {
				m.selected++
			}
			return m, nil
		case "x", "esc":
			if m.state.Achievements.Pending == nil {
				return m, nil
			}
			return m, m.dismissCmd()
		case "c", " ", "enter":
			if m.selected < 0 || m.selected >= len(m.today) {
				return m, nil
			}
			t := m.today[m.selected]
			done := engine.IsCompletedToday(m.state.Completions, t.ID, m.now())
			return m, m.toggleCmd(t, done)
		}
	}
	return m, nil
}

func (m boardModel) View() string {
	if m.err != nil {
		return ui.Bad.Render("Error: "+m.err.Error()) + "\n\nPress q to quit.\n"
	}

	sideW := 30
	if m.width > 0 && m.width/3 < sideW {
		sideW = max(m.width/3, 20)
	}
	side := ui.Panel.Width(sideW).Render(m.renderSidebar())
	body := lipgloss.JoinHorizontal(lipgloss.Top, side, " ", ui.Panel.Render(m.renderMain()))

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m boardModel) renderHeader() string {
	if m.loading && m.state.Tasks == nil {
		return ui.Heading(ui.IconHabit, "habitline · loading…")
	}
	l := engine.LevelFor(engine.TotalReward(m.state.Completions))
	title := ui.Heading(ui.IconHabit, "habitline · "+m.now().Format("Mon 2006-01-02"))
	level := ui.Gold.Render(fmt.Sprintf("Lv %d", l.Level))
	return fmt.Sprintf("%s  %s %s %s", title, level, progressBar(l.Total-l.Current, l.Next-l.Current, 20), ui.Muted.Render(fmt.Sprintf("%d/%d", l.Total, l.Next)))
}

func (m boardModel) renderSidebar() string {
	p := engine.TodayProgress(m.state, m.now())
	a := m.store.Catalog().CountUnlocked(m.state.Achievements.Unlocked)
	lines := []string{
		ui.H2.Render("Today"),
		fmt.Sprintf("- done %d/%d %s", p.Done, p.Total, progressBar(p.Done, p.Total, 10)),
		fmt.Sprintf("- earned %d of %d", p.Earned, p.Reward),
		"",
		ui.H2.Render(ui.IconTrophy + " Achievements"),
		fmt.Sprintf("- %d/%d unlocked", a.Unlocked, a.Total),
		"",
		ui.H2.Render("Keys"),
		"- ↑/↓ or j/k: move",
		"- space/c: toggle done",
		"- x: dismiss banner",
		"- r: reload",
		"- q: quit",
	}
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	out := []string{ui.H2.Render("Due today")}
	if len(m.today) == 0 {
		out = append(out, "(nothing due today)")
		return strings.Join(out, "\n")
	}
	now := m.now()
	for i, t := range m.today {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		done := engine.IsCompletedToday(m.state.Completions, t.ID, now)
		line := fmt.Sprintf("%s%s %s %s (+%d, %s)", cursor, ui.CheckIcon(done), ui.TaskIcon(t), t.Title, t.Reward, ui.Schedule(t))
		if i == m.selected {
			line = ui.SelectedRow.Render(line)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	log := ui.Muted.Render(m.lastLog)
	if p := m.state.Achievements.Pending; p != nil {
		return lipgloss.JoinVertical(lipgloss.Left, ui.Unlocked(p), log)
	}
	return log
}

// progressBar renders value/total as a fixed-width bar, e.g. "[##--]".
func progressBar(value int, total int, width int) string {
	width = max(width, 3)
	if total <= 0 {
		total = 1
	}
	filled := min(max(value, 0), total) * width / total
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
