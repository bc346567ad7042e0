package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/realQhimself/dopamine-app/internal/engine"
	"github.com/realQhimself/dopamine-app/internal/ui"
)

type boardMode int

const (
	modeBoard boardMode = iota
	modeAdd
	modeCelebrate
)

type boardModel struct {
	ctx context.Context
	svc *engine.Service

	width  int
	height int

	mode     boardMode
	overlay  []engine.Task
	tasks    []engine.Task
	selected int
	input    textinput.Model

	lastLog string
	err     error
}

type toggledMsg struct {
	outcome *engine.ToggleOutcome
	err     error
}

type savedMsg struct {
	note string
	err  error
}

func newBoardModel(ctx context.Context, svc *engine.Service, overlay []engine.Task) boardModel {
	in := textinput.New()
	in.Placeholder = "What needs doing?"
	in.CharLimit = 120
	m := boardModel{
		ctx:     ctx,
		svc:     svc,
		overlay: overlay,
		input:   in,
		lastLog: "Loaded.",
	}
	m.tasks = m.visibleTasks()
	return m
}

// visibleTasks prepends the read-only calendar overlay to the user's visible
// tasks. Minimum-day mode hides the overlay along with other non-essentials.
func (m boardModel) visibleTasks() []engine.Task {
	tasks := m.svc.Tasks.Visible()
	if len(m.overlay) == 0 || m.svc.Tasks.MVDMode() {
		return tasks
	}
	merged := make([]engine.Task, 0, len(m.overlay)+len(tasks))
	merged = append(merged, m.overlay...)
	merged = append(merged, tasks...)
	return merged
}

func (m boardModel) Init() tea.Cmd {
	return nil
}

func (m boardModel) toggleCmd(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.svc.ToggleTask(m.ctx, id)
		return toggledMsg{outcome: out, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case toggledMsg:
		if msg.err != nil {
			m.lastLog = "Toggle failed: " + msg.err.Error()
			return m, nil
		}
		m.tasks = m.visibleTasks()
		if msg.outcome.XPEarned > 0 {
			m.lastLog = fmt.Sprintf("+%d XP", msg.outcome.XPEarned+msg.outcome.BonusXP)
		} else if msg.outcome.XPEarned < 0 {
			m.lastLog = fmt.Sprintf("%d XP", msg.outcome.XPEarned)
		}
		if m.svc.Events.Current() != nil {
			m.mode = modeCelebrate
		}
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.lastLog = "Save failed: " + msg.err.Error()
			return m, nil
		}
		m.tasks = m.visibleTasks()
		m.lastLog = msg.note
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeCelebrate:
			return m.updateCelebrate(msg)
		case modeAdd:
			return m.updateAdd(msg)
		default:
			return m.updateBoard(msg)
		}
	}
	if m.mode == modeAdd {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m boardModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down", "j":
		if m.selected < len(m.tasks)-1 {
			m.selected++
		}
		return m, nil
	case "enter", " ":
		if m.selected < 0 || m.selected >= len(m.tasks) {
			return m, nil
		}
		t := m.tasks[m.selected]
		if t.Category == engine.CategoryCalendar {
			m.lastLog = "Calendar events are read-only here."
			return m, nil
		}
		return m, m.toggleCmd(t.ID)
	case "a":
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "e":
		return m, m.cycleEnergyCmd()
	case "m":
		return m, m.toggleMVDCmd()
	case "d":
		if m.selected < 0 || m.selected >= len(m.tasks) {
			return m, nil
		}
		t := m.tasks[m.selected]
		if t.Category == engine.CategoryCalendar {
			m.lastLog = "Calendar events are read-only here."
			return m, nil
		}
		return m, m.deleteCmd(t.ID)
	}
	return m, nil
}

func (m boardModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBoard
		m.input.Blur()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.mode = modeBoard
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		return m, m.addCmd(text)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m boardModel) updateCelebrate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	default:
		// Any key dismisses the current celebration; the next queued one
		// surfaces immediately.
		m.svc.Events.Dismiss()
		if m.svc.Events.Current() == nil {
			m.mode = modeBoard
		}
		return m, nil
	}
}

func (m boardModel) addCmd(text string) tea.Cmd {
	return func() tea.Msg {
		t, err := m.svc.Tasks.Add(m.ctx, engine.AddTaskInput{Text: text})
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{note: fmt.Sprintf("Added %q.", t.Text)}
	}
}

func (m boardModel) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.Tasks.Delete(m.ctx, id); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{note: "Deleted."}
	}
}

func (m boardModel) cycleEnergyCmd() tea.Cmd {
	next := engine.EnergyLow
	switch m.svc.Tasks.Energy() {
	case engine.EnergyLow:
		next = engine.EnergyMedium
	case engine.EnergyMedium:
		next = engine.EnergyHigh
	case engine.EnergyHigh:
		next = engine.EnergyLow
	}
	return func() tea.Msg {
		if err := m.svc.Tasks.SetEnergy(m.ctx, next); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{note: "Energy set to " + string(next) + "."}
	}
}

func (m boardModel) toggleMVDCmd() tea.Cmd {
	return func() tea.Msg {
		on, err := m.svc.Tasks.ToggleMVD(m.ctx)
		if err != nil {
			return savedMsg{err: err}
		}
		if on {
			return savedMsg{note: fmt.Sprintf("Minimum Viable Day ON (~%d min).", m.svc.Tasks.MVDTimeEstimate())}
		}
		return savedMsg{note: "Minimum Viable Day OFF."}
	}
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}
	if m.mode == modeCelebrate {
		if ev := m.svc.Events.Current(); ev != nil {
			return m.renderHeader() + "\n\n" + renderCelebration(*ev, m.svc.Events.Pending()) + "\n"
		}
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderTasks())
	if m.mode == modeAdd {
		b.WriteString("\n")
		b.WriteString(ui.Key.Render("Add task: "))
		b.WriteString(m.input.View())
		b.WriteString(ui.Dim.Render("  (enter to save, esc to cancel)"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m boardModel) renderHeader() string {
	lvl := m.svc.Progress.CurrentLevel()
	streak := m.svc.Progress.CurrentStreak()
	prog := m.svc.Tasks.TodayProgress()

	bar := ui.ProgressBar(int(m.svc.Progress.LevelProgress()*100), 100, 20)
	line := fmt.Sprintf("%s %s L%d | %d XP %s | %s %d-day streak | %d/%d today",
		lvl.Icon, lvl.Title, lvl.Level, m.svc.Progress.TotalXP(), bar,
		ui.IconStreak, streak, prog.Done, prog.Total)

	status := "Energy: " + ui.EnergyText(m.svc.Tasks.Energy())
	if m.svc.Tasks.MVDMode() {
		status += "  " + ui.Warn.Render(fmt.Sprintf("%s MVD mode (~%d min)", ui.IconShield, m.svc.Tasks.MVDTimeEstimate()))
	}
	return ui.Title.Render("Dopamine") + "  " + line + "\n" + status
}

func (m boardModel) renderTasks() string {
	if len(m.tasks) == 0 {
		return ui.Muted.Render("No tasks yet. Press a to add one.")
	}
	var out []string
	for i, t := range m.tasks {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		label := t.Text
		if t.Completed {
			label = ui.Dim.Render(label)
		}
		meta := fmt.Sprintf("%s %dmin +%d", ui.CategoryIcon(t.Category), t.EstimatedMinutes, t.XPReward)
		if t.Category == engine.CategoryCalendar {
			meta = fmt.Sprintf("%s %dmin", ui.CategoryIcon(t.Category), t.EstimatedMinutes)
		}
		if t.QuickWin {
			meta += " " + ui.IconSpark
		}
		if t.Essential {
			meta += " " + ui.IconShield
		}
		if t.Recurring && t.Streak > 1 {
			meta += fmt.Sprintf(" %s%d", ui.IconStreak, t.Streak)
		}
		line := fmt.Sprintf("%s%s %s  %s", cursor, mark, label, ui.Muted.Render(meta))
		if i == m.selected {
			line = ui.SelectedRow.Render(fmt.Sprintf("%s%s %s", cursor, mark, t.Text)) + "  " + ui.Muted.Render(meta)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	keys := ui.Dim.Render("enter/space toggle · a add · d delete · e energy · m mvd · j/k move · q quit")
	return keys + "\n" + m.lastLog
}

func renderCelebration(ev engine.Event, pending int) string {
	var body string
	switch ev.Kind {
	case engine.EventTaskComplete:
		body = fmt.Sprintf("%s  Nice! +%d XP", ui.IconDone, ev.XP)
	case engine.EventAllTasksDone:
		body = fmt.Sprintf("%s  ALL TASKS DONE! +%d XP bonus", ui.IconTrophy, ev.XP)
	case engine.EventMVDComplete:
		body = fmt.Sprintf("%s  Minimum Viable Day complete! +%d XP", ui.IconShield, ev.XP)
	case engine.EventStreakMilestone:
		body = fmt.Sprintf("%s  %d-day streak! +%d XP", ui.IconStreak, ev.Count, ev.XP)
	case engine.EventLevelUp:
		body = fmt.Sprintf("%s  %s  You reached %s %s (level %d)!", ui.IconStar, ui.BadgeLevelUp, ev.Level.Icon, ev.Level.Title, ev.Level.Level)
	default:
		body = fmt.Sprintf("%s  +%d XP", ui.IconSpark, ev.XP)
	}
	panel := ui.Celebration.Render(body)
	hint := ui.Dim.Render("press any key to continue")
	if pending > 0 {
		hint = ui.Dim.Render(fmt.Sprintf("press any key to continue (%d more)", pending))
	}
	return panel + "\n" + hint
}
