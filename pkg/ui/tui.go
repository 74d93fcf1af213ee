// Package ui renders the task list in the terminal.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/harrisonrobin/tasklist/pkg/board"
	"github.com/harrisonrobin/tasklist/pkg/model"
)

// Service is the remote side the list talks to.
type Service interface {
	board.Fetcher
	board.Updater
}

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	refresh time.Duration
	now     func() time.Time
}

// WithRefreshInterval sets how often rows are re-sorted against the clock.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		if d > 0 {
			c.refresh = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TUIOption {
	return func(c *tuiConfig) {
		c.now = now
	}
}

const (
	// headerLines is the number of rows above the first task row.
	headerLines = 2
	// footerLines is reserved below the rows: a blank line, the error line and the key hints.
	footerLines = 3
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	pastDueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cursorStyle   = lipgloss.NewStyle().Bold(true)
	footerStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// RunTUI shows the list until the user quits.
func RunTUI(ctx context.Context, svc Service, b *board.Board, logger *log.Logger, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	m := newListModel(ctx, svc, b, logger, opts...)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// listModel is the only writer of the board while the program runs; network
// calls happen in commands and come back as messages.
type listModel struct {
	ctx     context.Context
	svc     Service
	board   *board.Board
	logger  *log.Logger
	now     func() time.Time
	refresh time.Duration

	rows     []model.Task
	cursor   int
	offset   int // first row drawn
	height   int // terminal height, 0 until the first WindowSizeMsg
	loading  bool
	loaded   bool
	pending  map[string]bool
	lastErr  error
	showHelp bool
}

type tickMsg time.Time

type fetchedMsg struct {
	tasks []model.Task
	err   error
}

type toggledMsg struct {
	id         string
	isComplete bool
	err        error
}

func newListModel(ctx context.Context, svc Service, b *board.Board, logger *log.Logger, opts ...TUIOption) *listModel {
	c := &tuiConfig{refresh: 30 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &listModel{
		ctx:     ctx,
		svc:     svc,
		board:   b,
		logger:  logger,
		now:     c.now,
		refresh: c.refresh,
		pending: make(map[string]bool),
	}
}

func (m *listModel) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.fetchCmd(), tickCmd(m.refresh))
}

func (m *listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.scrollToCursor()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.scrollToCursor()
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.scrollToCursor()
			}
		case "enter", " ":
			return m, m.toggle(m.cursor)
		case "r", "f5":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.fetchCmd()
		case "h", "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		if m.showHelp || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		line := msg.Y - headerLines
		if line < 0 || line >= m.visibleRows() {
			return m, nil
		}
		row := m.offset + line
		if row >= len(m.rows) {
			return m, nil
		}
		m.cursor = row
		return m, m.toggle(row)
	case fetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("Error fetching tasks", "err", msg.err)
			m.lastErr = msg.err
			return m, nil
		}
		m.loaded = true
		m.lastErr = nil
		m.board.Replace(msg.tasks)
		m.resort()
	case toggledMsg:
		delete(m.pending, msg.id)
		if msg.err != nil {
			m.logger.Error("Error updating task", "task_id", msg.id, "err", msg.err)
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		if !m.board.Apply(msg.id, msg.isComplete) {
			m.logger.Warn("Updated task is no longer listed", "task_id", msg.id)
		}
		m.resort()
	case tickMsg:
		m.resort()
		return m, tickCmd(m.refresh)
	}
	return m, nil
}

// toggle marks the row complete. Complete rows ignore clicks, and a row with
// an update in flight is not sent twice.
func (m *listModel) toggle(row int) tea.Cmd {
	if row < 0 || row >= len(m.rows) {
		return nil
	}
	task := m.rows[row]
	if task.IsComplete || m.pending[task.ID] {
		return nil
	}
	m.pending[task.ID] = true

	ctx, svc, id, desired := m.ctx, m.svc, task.ID, !task.IsComplete
	return func() tea.Msg {
		err := svc.SetComplete(ctx, id, desired)
		return toggledMsg{id: id, isComplete: desired, err: err}
	}
}

func (m *listModel) fetchCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		tasks, err := svc.FetchTasks(ctx)
		return fetchedMsg{tasks: tasks, err: err}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// resort rebuilds rows at the current time, keeping the cursor on the same task.
func (m *listModel) resort() {
	var selected string
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		selected = m.rows[m.cursor].ID
	}
	m.rows = m.board.Sorted(m.now())

	m.cursor = 0
	for i, task := range m.rows {
		if task.ID == selected {
			m.cursor = i
			break
		}
	}
	m.scrollToCursor()
}

// visibleRows is how many task rows fit on screen.
func (m *listModel) visibleRows() int {
	if m.height <= 0 {
		return len(m.rows)
	}
	return max(m.height-headerLines-footerLines, 1)
}

// scrollToCursor moves the window of drawn rows so the cursor stays on screen.
func (m *listModel) scrollToCursor() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	m.offset = max(min(m.offset, len(m.rows)-visible), 0)
}

func (m *listModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tasks") + "\n\n")

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	switch {
	case !m.loaded && m.loading:
		b.WriteString("Loading...\n")
	case len(m.rows) == 0:
		b.WriteString("No tasks.\n")
	default:
		end := min(m.offset+m.visibleRows(), len(m.rows))
		for i := m.offset; i < end; i++ {
			b.WriteString(m.renderRow(i, m.rows[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Last request failed: "+m.lastErr.Error()) + "\n")
	}
	b.WriteString(footerStyle.Render("enter/click complete | r refresh | h help | q quit"))
	return b.String()
}

func (m *listModel) renderRow(i int, task model.Task) string {
	marker := "  "
	if i == m.cursor {
		marker = cursorStyle.Render("> ")
	}
	line := FormatTask(task)
	if m.pending[task.ID] {
		line += " (saving)"
	}
	switch {
	case task.IsComplete:
		line = completeStyle.Render(line)
	case task.IsPastDue:
		line = pastDueStyle.Render(line)
	}
	return marker + line
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  up/k, down/j   Move selection\n")
	b.WriteString("  enter, space   Mark selected task complete\n")
	b.WriteString("  click          Mark clicked task complete\n")
	b.WriteString("  r, F5          Refetch tasks\n")
	b.WriteString("  h, ?           Toggle this help screen\n")
	b.WriteString("  q, ctrl+c      Quit\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
