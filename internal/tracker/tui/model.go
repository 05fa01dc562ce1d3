// Package tui runs a tracker session in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/ledger"
	"github.com/2beens/calispro/internal/tracker"
)

const submitTimeout = 30 * time.Second

// ErrAborted is returned by Run when the athlete left without saving.
var ErrAborted = errors.New("session discarded")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Underline(true)
	timerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#40A9FF"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type tickMsg time.Time

type submittedMsg struct {
	record   *ledger.HistoryRecord
	redirect *catalog.Exercise
	err      error
}

type Model struct {
	tracker *tracker.Tracker
	library tracker.Library
	ledger  tracker.Ledger
	now     func() time.Time

	selected    int
	status      string
	statusWarn  bool
	confirmQuit bool
	record      *ledger.HistoryRecord
	quitting    bool
	width       int
}

// NewModel plans a session for target. It fails like tracker.NewTracker does.
func NewModel(target tracker.Target, library tracker.Library, l tracker.Ledger) (*Model, error) {
	m := &Model{
		library: library,
		ledger:  l,
		now:     time.Now,
	}
	if err := m.start(target); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) start(target tracker.Target) error {
	tr, err := tracker.NewTracker(tracker.NewTrackerParams{
		Target:   target,
		Library:  m.library,
		Ledger:   m.ledger,
		Notifier: tracker.NotifierFunc(m.notify),
		Now:      m.now,
	})
	if err != nil {
		return err
	}
	m.tracker = tr
	m.selected = 0
	m.record = nil
	return nil
}

func (m *Model) notify(cue tracker.Cue, message string) {
	m.status = message
	m.statusWarn = cue == tracker.CueWarning
}

// Record is the saved history record once the session is finished.
func (m *Model) Record() *ledger.HistoryRecord {
	return m.record
}

func (m *Model) Tracker() *tracker.Tracker {
	return m.tracker
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m.tracker.Tick()
		return m, tick()
	case submittedMsg:
		return m, m.handleSubmitted(msg)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key != "q" && key != "ctrl+c" {
		m.confirmQuit = false
	}

	switch key {
	case "ctrl+c", "q":
		if !m.tracker.NeedsExitConfirmation() || m.confirmQuit {
			m.quitting = true
			return tea.Quit
		}
		m.confirmQuit = true
		m.notify(tracker.CueWarning, "Unsaved session, press q again to discard it.")
	case " ", "s":
		if m.tracker.Phase() != tracker.PhaseNone {
			m.tracker.StopFlow()
			m.notify(tracker.CueInfo, "Guided flow stopped.")
			return nil
		}
		m.report(m.tracker.StartFlow())
	case "up", "k":
		m.selected = max(0, m.selected-1)
	case "down", "j":
		idx, _ := m.tracker.Current()
		m.selected = min(len(m.tracker.Sets(idx))-1, m.selected+1)
	case "enter", "x":
		m.report(m.tracker.ToggleSet(m.selected))
	case "+", "=":
		m.report(m.tracker.AdjustSet(m.selected, 1))
	case "-":
		m.report(m.tracker.AdjustSet(m.selected, -1))
	case "n", "right":
		return m.next()
	case "p", "left":
		m.tracker.Prev()
		m.selected = 0
	case "f":
		return m.finish(false)
	}
	return nil
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	// some errors were already announced by the tracker
	if m.statusWarn && m.status == err.Error() {
		return
	}
	m.notify(tracker.CueWarning, err.Error())
}

func (m *Model) next() tea.Cmd {
	adv, err := m.tracker.Next()
	if err != nil {
		m.report(err)
		return nil
	}
	switch adv {
	case tracker.AdvanceFinish:
		return m.finish(false)
	case tracker.AdvanceRedirect:
		return m.finish(true)
	}
	m.selected = 0
	return nil
}

// finish hands the submission to a command so the network calls stay off the event loop.
func (m *Model) finish(redirect bool) tea.Cmd {
	sub, err := m.tracker.BeginFinish(redirect)
	if err != nil {
		m.report(err)
		return nil
	}
	m.notify(tracker.CueInfo, "Saving session...")
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		rec, err := sub.Submit(ctx)
		return submittedMsg{record: rec, redirect: sub.Redirect, err: err}
	}
}

func (m *Model) handleSubmitted(msg submittedMsg) tea.Cmd {
	m.tracker.CompleteFinish(msg.err)
	if msg.err != nil {
		return nil
	}
	m.record = msg.record
	if msg.redirect == nil {
		return nil
	}

	if err := m.start(tracker.ExerciseTarget{Exercise: *msg.redirect}); err != nil {
		m.notify(tracker.CueWarning, fmt.Sprintf("Cannot continue with %s: %s", msg.redirect.Name, err))
		return nil
	}
	m.notify(tracker.CueInfo, fmt.Sprintf("Session saved. Next up: %s", msg.redirect.Name))
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.tracker.SessionName()))
	b.WriteString("\n\n")

	if m.tracker.Finished() {
		b.WriteString(doneStyle.Render("Session complete!"))
		if m.record != nil {
			fmt.Fprintf(&b, "\n+%d XP, %d min", m.record.XPGained, m.record.DurationActual)
		}
		b.WriteString("\n\n")
		b.WriteString(footerStyle.Render("q quit"))
		return b.String()
	}

	idx, entry := m.tracker.Current()
	name := entry.ExerciseID
	if e, ok := m.tracker.CurrentExercise(); ok {
		name = e.Name
	}
	fmt.Fprintf(&b, "Exercise %d/%d: %s\n\n", idx+1, len(m.tracker.Entries()), name)

	unit := "reps"
	if entry.DurationBased {
		unit = "sec"
	}
	active, running := m.tracker.ActiveSet()
	for i, s := range m.tracker.Sets(idx) {
		mark := "[ ]"
		style := pendingStyle
		if s.Completed {
			mark = "[x]"
			style = doneStyle
		}
		line := fmt.Sprintf("%s Set %d  %d %s", mark, i+1, s.Value, unit)
		if running && i == active {
			line += "  <" + m.tracker.Phase().String() + ">"
		}
		if i == m.selected {
			style = selectedStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(timerStyle.Render(formatSeconds(m.tracker.TimeLeft())))
	if m.tracker.Phase() != tracker.PhaseNone {
		b.WriteString("  " + m.tracker.Phase().String())
	}
	b.WriteString("\n\n")

	if m.status != "" {
		if m.statusWarn {
			b.WriteString(warnStyle.Render(m.status))
		} else {
			b.WriteString(m.status)
		}
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render("space start/stop  enter tick  +/- adjust  n next  p prev  f finish  q quit"))
	return b.String()
}

func formatSeconds(s int) string {
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// Run blocks until the athlete quits.
func Run(m *Model, opts ...tea.ProgramOption) (*ledger.HistoryRecord, error) {
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return nil, fmt.Errorf("run tui: %w", err)
	}
	if !m.tracker.Finished() {
		return m.record, ErrAborted
	}
	return m.record, nil
}
