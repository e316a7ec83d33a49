// Package tui is the interactive grid editor. It drives one
// primary.EditingSession from the keyboard and renders its snapshot.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/example/controlcard/internal/core/finalize"
	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/primary"
)

var (
	colorAccent = lipgloss.Color("63")
	colorLocked = lipgloss.Color("39")
	colorDim    = lipgloss.Color("244")
	colorOK     = lipgloss.Color("42")
	colorErr    = lipgloss.Color("203")
	colorWarn   = lipgloss.Color("214")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	cellStyle    = lipgloss.NewStyle().Width(3).Align(lipgloss.Center)
	lockedStyle  = cellStyle.Bold(true).Foreground(colorLocked)
	focusStyle   = cellStyle.Reverse(true)
	okStyle      = lipgloss.NewStyle().Foreground(colorOK)
	errStyle     = lipgloss.NewStyle().Foreground(colorErr)
	confirmStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarn).
			Padding(0, 1).
			Width(48)
)

// Lines of View output around the grid: title, state, blank, header,
// confirmation or scan line, status, help.
const chromeLines = 10

// ScanMsg delivers a payload decoded outside the terminal, such as a file
// dropped into the scan watch directory.
type ScanMsg struct {
	Payload string
}

type alertMsg struct {
	alert primary.Alert
}

type checkpointMsg struct {
	err error
}

// Model is the bubbletea model of the grid editor.
type Model struct {
	ctx     context.Context
	session primary.EditingSession
	keys    keyMap
	help    help.Model
	input   textinput.Model

	snap     *primary.SessionSnapshot
	confirm  *primary.ConfirmationAlert
	scanning bool

	status    string
	statusErr bool
	// latchWarn holds a finalized flag failure until the submission outcome
	// that follows it is shown.
	latchWarn string
	height    int
}

// New builds the editor for an open session. The caller owns the session
// and closes it after the program exits.
func New(ctx context.Context, session primary.EditingSession) Model {
	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	h.Styles.ShortDesc = dimStyle
	h.Styles.ShortSeparator = dimStyle
	h.Styles.FullKey = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	h.Styles.FullDesc = dimStyle

	ti := textinput.New()
	ti.Prompt = "Scan: "
	ti.Placeholder = "row:value"
	ti.CharLimit = 64
	ti.Width = 30

	m := Model{
		ctx:     ctx,
		session: session,
		keys:    newKeyMap(),
		help:    h,
		input:   ti,
	}
	m.reload()
	return m
}

// Init starts listening for session alerts.
func (m Model) Init() tea.Cmd {
	return waitForAlert(m.session.Alerts())
}

func waitForAlert(ch <-chan primary.Alert) tea.Cmd {
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return nil
		}
		return alertMsg{alert: a}
	}
}

func (m Model) checkpoint(reason primary.CheckpointReason) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return checkpointMsg{err: session.Checkpoint(ctx, reason)}
	}
}

// Update handles one message. Session calls are made inline so keystrokes
// reach the session in the order they were typed.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ScanMsg:
		m.assignScan(msg.Payload)
		return m, nil

	case alertMsg:
		m.showAlert(msg.alert)
		m.reload()
		return m, waitForAlert(m.session.Alerts())

	case checkpointMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case tea.BlurMsg:
		return m, m.checkpoint(primary.CheckpointBackground)
	}

	if m.scanning {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.scanning {
		return m.handleScanInput(msg)
	}
	if m.confirm != nil {
		return m.handleConfirm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.move(-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.move(1, 0)
	case key.Matches(msg, m.keys.Left):
		m.move(0, -1)
	case key.Matches(msg, m.keys.Right):
		m.move(0, 1)
	case key.Matches(msg, m.keys.Clear):
		m.edit("")
	case key.Matches(msg, m.keys.Scan):
		m.scanning = true
		m.input.Reset()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Finalize):
		m.requestFinalize()
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && !msg.Alt:
		m.edit(string(msg.Runes))
	}
	return m, nil
}

func (m Model) handleScanInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.scanning = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		payload := strings.TrimSpace(m.input.Value())
		m.scanning = false
		m.input.Blur()
		if payload != "" {
			m.assignScan(payload)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirm = nil
		if err := m.session.ConfirmFinalize(m.ctx); err != nil {
			m.setError(err)
		} else {
			m.setStatus("Submitting…")
		}
		m.reload()
	case key.Matches(msg, m.keys.Cancel):
		m.confirm = nil
		if err := m.session.CancelFinalize(m.ctx); err != nil {
			m.setError(err)
		} else {
			m.setStatus("Finalize cancelled")
		}
		m.reload()
	}
	return m, nil
}

func (m *Model) move(dRow, dCol int) {
	if _, err := m.session.MoveFocus(m.ctx, dRow, dCol); err != nil {
		m.setError(err)
		return
	}
	m.reload()
}

func (m *Model) edit(raw string) {
	if m.snap == nil || !m.snap.HasFocus {
		m.setStatus("Move to a cell first")
		return
	}
	if _, err := m.session.SetCellValue(m.ctx, m.snap.Focus, raw); err != nil {
		m.setError(err)
		return
	}
	m.status = ""
	m.reload()
}

func (m *Model) assignScan(payload string) {
	res, err := m.session.AssignScan(m.ctx, payload)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("Scanned %s into %s", res.Value, res.Position))
	m.reload()
}

func (m *Model) requestFinalize() {
	c, err := m.session.RequestFinalize(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	m.confirm = c
	m.reload()
}

func (m *Model) showAlert(a primary.Alert) {
	switch a := a.(type) {
	case primary.ConfirmationAlert:
		m.confirm = &a
	case primary.SaveAlert:
		m.status = fmt.Sprintf("%s [%s]", a.Message, a.Kind)
		m.statusErr = true
		if a.Reason == primary.CheckpointFinalize {
			m.latchWarn = m.status
		}
	case primary.SubmissionAlert:
		warn := m.latchWarn
		m.latchWarn = ""
		if a.Success && warn == "" {
			m.setStatus(a.Message)
			return
		}
		if a.Success {
			m.status = a.Message + " " + warn
		} else {
			m.status = fmt.Sprintf("%s [%s]", a.Message, a.Kind)
		}
		m.statusErr = true
	}
}

func (m *Model) reload() {
	snap, err := m.session.Snapshot(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	m.snap = snap
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = failure.MessageOf(err)
	m.statusErr = !failure.IsEditRejection(err)
}

// View renders the card header, the visible grid rows and the footer.
func (m Model) View() string {
	var b strings.Builder

	card := m.session.Card()
	b.WriteString(titleStyle.Render(card.Name))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s · competitor %d", card.Code, card.CompetitorNumber)))
	b.WriteString("\n")
	if m.snap != nil {
		b.WriteString(stateLabel(m.snap.State))
	}
	b.WriteString("\n\n")

	if m.snap != nil {
		m.renderGrid(&b)
	}

	if m.confirm != nil {
		b.WriteString("\n")
		b.WriteString(confirmStyle.Render(titleStyle.Render(m.confirm.Title) + "\n" + m.confirm.Message))
		b.WriteString("\n")
	}
	if m.scanning {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.status == "":
	case m.statusErr:
		b.WriteString(errStyle.Render(m.status))
	default:
		b.WriteString(okStyle.Render(m.status))
	}
	b.WriteString("\n")

	if m.confirm != nil {
		b.WriteString(m.help.View(confirmHelp{keys: m.keys}))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) renderGrid(b *strings.Builder) {
	b.WriteString(dimStyle.Render(fmt.Sprintf("%4s ", "ROW")))
	for c := 1; c <= grid.Columns; c++ {
		b.WriteString(dimStyle.Render(cellStyle.Render(fmt.Sprint(c))))
	}
	b.WriteString("\n")

	rows := m.snap.Grid.Rows()
	first, last := m.visibleRows(len(rows))
	for _, row := range rows[first:last] {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%4d ", row.Number)))
		for i, c := range row.Cells {
			pos := grid.Position{Row: row.Number, Col: i + 1}
			b.WriteString(m.renderCell(pos, c))
		}
		b.WriteString("\n")
	}
}

func (m Model) renderCell(pos grid.Position, c grid.Cell) string {
	v := c.Value
	if v == "" {
		v = "·"
	}
	switch {
	case m.snap.HasFocus && m.snap.Focus == pos:
		if c.Locked {
			return focusStyle.Foreground(colorLocked).Render(v)
		}
		return focusStyle.Render(v)
	case c.Locked:
		return lockedStyle.Render(v)
	}
	return cellStyle.Render(v)
}

// visibleRows returns the slice bounds of rows that fit the terminal,
// keeping the focused row in view.
func (m Model) visibleRows(total int) (int, int) {
	if m.height == 0 {
		return 0, total
	}
	avail := m.height - chromeLines
	if avail < 3 {
		avail = 3
	}
	if total <= avail {
		return 0, total
	}
	focusIdx := 0
	if m.snap.HasFocus {
		focusIdx = m.snap.Focus.Row - 1
	}
	first := focusIdx - avail/2
	if first < 0 {
		first = 0
	}
	if first > total-avail {
		first = total - avail
	}
	return first, first + avail
}

func stateLabel(s finalize.State) string {
	switch s {
	case finalize.StateFinalized:
		return okStyle.Render("● finalized")
	case finalize.StateSubmitting:
		return lipgloss.NewStyle().Foreground(colorWarn).Render("● submitting…")
	case finalize.StatePendingConfirm:
		return lipgloss.NewStyle().Foreground(colorWarn).Render("● awaiting confirmation")
	}
	return dimStyle.Render("● editable")
}
