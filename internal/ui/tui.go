// Package ui is the terminal board: one column per status, keyboard moves
// standing in for drag and drop.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/yukikurage/taskboard/internal/board"
	"github.com/yukikurage/taskboard/internal/dto"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/session"
)

// ErrSessionEnded is returned when the board closes because the session
// expired or the user logged out.
var ErrSessionEnded = errors.New("session ended")

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	columnStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	activeColumnStyle = columnStyle.BorderForeground(lipgloss.Color("6"))
	selectedStyle     = lipgloss.NewStyle().Reverse(true)
)

var columnTitles = map[models.TaskStatus]string{
	models.TaskStatusTodo:       "To Do",
	models.TaskStatusInProgress: "In Progress",
	models.TaskStatusDone:       "Done",
}

var priorityCycle = []models.TaskPriority{"", models.TaskPriorityHigh, models.TaskPriorityMedium, models.TaskPriorityLow}

// RunBoard shows the board until the user quits or the session ends.
func RunBoard(ctx context.Context, b *board.Controller, sess *session.Manager) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("board requires a TTY")
	}

	model := newBoardModel(ctx, b, sess)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(*boardModel); ok && m.ended != "" {
		return fmt.Errorf("%w: %s", ErrSessionEnded, m.ended)
	}
	return nil
}

type boardModel struct {
	ctx          context.Context
	board        *board.Controller
	sess         *session.Manager
	col          int
	row          int
	showHelp     bool
	showDetail   bool
	width        int
	ended        string
	tickInterval time.Duration
}

type tickMsg time.Time

// opDoneMsg reports a finished board operation. The controller already
// recorded the outcome in its banners.
type opDoneMsg struct {
	err error
}

func newBoardModel(ctx context.Context, b *board.Controller, sess *session.Manager) *boardModel {
	return &boardModel{
		ctx:          ctx,
		board:        b,
		sess:         sess,
		tickInterval: 500 * time.Millisecond,
	}
}

func (m *boardModel) Init() tea.Cmd {
	return tea.Batch(
		m.run(func(ctx context.Context) error {
			_ = m.board.LoadUsers(ctx)
			return m.board.Refresh(ctx)
		}),
		tickCmd(m.tickInterval),
	)
}

func (m *boardModel) run(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: op(m.ctx)}
	}
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	case tickMsg:
		if m.checkSession() {
			return m, tea.Quit
		}
		return m, tickCmd(m.tickInterval)
	case opDoneMsg:
		m.clampRow()
		if m.checkSession() {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *boardModel) handleKey(key string) tea.Cmd {
	switch key {
	case "ctrl+c", "q":
		return tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "left", "h":
		if m.col > 0 {
			m.col--
			m.clampRow()
		}
	case "right", "l":
		if m.col < len(models.TaskStatuses)-1 {
			m.col++
			m.clampRow()
		}
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		m.row++
		m.clampRow()
	case "enter":
		m.showDetail = !m.showDetail
	case "H", "shift+left":
		return m.move(-1)
	case "L", "shift+right":
		return m.move(1)
	case "r", "f5":
		return m.run(m.board.Refresh)
	case "m":
		f := m.board.Filter()
		if f.AssignedToID == "" {
			if u := m.sess.CurrentUser(); u != nil {
				f.AssignedToID = u.ID
			}
		} else {
			f.AssignedToID = ""
		}
		return m.setFilter(f)
	case "p":
		f := m.board.Filter()
		f.Priority = nextPriority(f.Priority)
		return m.setFilter(f)
	case "0":
		return m.setFilter(board.Filter{})
	case "x":
		if task, ok := m.selected(); ok {
			id := task.ID
			return m.run(func(ctx context.Context) error { return m.board.DeleteTask(ctx, id) })
		}
	}
	return nil
}

func (m *boardModel) setFilter(f board.Filter) tea.Cmd {
	return m.run(func(ctx context.Context) error {
		_, err := m.board.SetFilter(ctx, f)
		return err
	})
}

// move sends the selected task to the neighbouring column and keeps it
// selected there.
func (m *boardModel) move(dir int) tea.Cmd {
	task, ok := m.selected()
	target := m.col + dir
	if !ok || target < 0 || target >= len(models.TaskStatuses) {
		return nil
	}
	status := models.TaskStatuses[target]
	id := task.ID
	return m.run(func(ctx context.Context) error {
		return m.board.MoveTask(ctx, id, status)
	})
}

func (m *boardModel) checkSession() bool {
	st := m.sess.State()
	if st.IsAuthenticated {
		return false
	}
	m.ended = st.Error
	if m.ended == "" {
		m.ended = session.MsgSessionExpired
	}
	return true
}

func (m *boardModel) column() []dto.TaskDTO {
	return m.board.Column(models.TaskStatuses[m.col])
}

func (m *boardModel) selected() (dto.TaskDTO, bool) {
	tasks := m.column()
	if m.row < 0 || m.row >= len(tasks) {
		return dto.TaskDTO{}, false
	}
	return tasks[m.row], true
}

func (m *boardModel) clampRow() {
	n := len(m.column())
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m *boardModel) View() string {
	var b strings.Builder
	writeHeader(&b, m.sess.CurrentUser(), m.board.Filter(), m.board.Loading())
	writeBanner(&b, m.board.Banner())

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	b.WriteString(m.renderColumns())
	b.WriteString("\n")

	if m.showDetail {
		if task, ok := m.selected(); ok {
			writeDetail(&b, task, m.board.User)
		}
	}
	b.WriteString(dimStyle.Render("? help | h/l column | j/k task | H/L move | r refresh | q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *boardModel) renderColumns() string {
	width := 30
	if m.width > 0 {
		width = max(20, m.width/len(models.TaskStatuses)-4)
	}

	cols := make([]string, 0, len(models.TaskStatuses))
	for i, status := range models.TaskStatuses {
		tasks := m.board.Column(status)

		var body strings.Builder
		body.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", columnTitles[status], len(tasks))))
		body.WriteString("\n\n")
		if len(tasks) == 0 {
			body.WriteString(dimStyle.Render("No tasks"))
		}
		for j, t := range tasks {
			line := formatCard(t, width-2)
			if i == m.col && j == m.row {
				line = selectedStyle.Render(line)
			}
			body.WriteString(line + "\n")
		}

		style := columnStyle
		if i == m.col {
			style = activeColumnStyle
		}
		cols = append(cols, style.Width(width).Render(body.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func writeHeader(b *strings.Builder, user *dto.UserDTO, f board.Filter, loading bool) {
	title := "Task Board"
	if user != nil {
		title += " | " + user.FullName()
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	if !f.IsZero() {
		b.WriteString(dimStyle.Render("Filter: "+describeFilter(f)+" (0 to clear)") + "\n")
	}
	if loading {
		b.WriteString(dimStyle.Render("Loading...") + "\n")
	}
	b.WriteString("\n")
}

func describeFilter(f board.Filter) string {
	var parts []string
	if f.Status != "" {
		parts = append(parts, "status="+string(f.Status))
	}
	if f.Priority != "" {
		parts = append(parts, "priority="+string(f.Priority))
	}
	if f.AssignedToID != "" {
		parts = append(parts, "assigned to me")
	}
	if f.StartDate != "" || f.EndDate != "" {
		parts = append(parts, fmt.Sprintf("dates=%s..%s", f.StartDate, f.EndDate))
	}
	return strings.Join(parts, ", ")
}

func writeBanner(b *strings.Builder, banner board.Banner) {
	if banner.Success != "" {
		b.WriteString(successStyle.Render(banner.Success) + "\n")
	}
	if banner.Error != "" {
		b.WriteString(errorStyle.Render(banner.Error) + "\n")
	}
}

// writeDetail prints the selected task. Owners and assignees the server sent
// by id only are named from the loaded user list.
func writeDetail(b *strings.Builder, t dto.TaskDTO, lookup func(id string) (dto.UserDTO, bool)) {
	b.WriteString(titleStyle.Render(t.Title) + "\n")
	if t.Description != "" {
		b.WriteString(t.Description + "\n")
	}
	b.WriteString(fmt.Sprintf("Status: %s  Priority: %s\n", t.Status, t.Priority))
	b.WriteString("Owner: " + displayName(t.OwnedBy, lookup) + "\n")
	if t.AssignedTo != nil {
		b.WriteString("Assignee: " + displayName(*t.AssignedTo, lookup) + "\n")
	}
	if dates := formatDates(t); dates != "" {
		b.WriteString("Dates: " + dates + "\n")
	}
	b.WriteString("\n")
}

func displayName(u dto.UserDTO, lookup func(id string) (dto.UserDTO, bool)) string {
	if name := u.FullName(); name != "" {
		return name
	}
	if known, ok := lookup(u.ID); ok && known.FullName() != "" {
		return known.FullName()
	}
	return u.ID
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  h/l, arrows  Select column\n")
	b.WriteString("  j/k, arrows  Select task\n")
	b.WriteString("  H / L        Move task to previous / next column\n")
	b.WriteString("  enter        Toggle task details\n")
	b.WriteString("  x            Delete task\n")
	b.WriteString("  r, F5        Refresh\n")
	b.WriteString("  m            Toggle tasks assigned to me\n")
	b.WriteString("  p            Cycle priority filter\n")
	b.WriteString("  0            Clear filter\n")
	b.WriteString("  ?            Toggle this help screen\n\n")
}

func formatCard(t dto.TaskDTO, width int) string {
	icon := " "
	switch t.Priority {
	case models.TaskPriorityHigh:
		icon = "!"
	case models.TaskPriorityLow:
		icon = "."
	}
	return ansi.Truncate(fmt.Sprintf("%s %s", icon, t.Title), width, "...")
}

func formatDates(t dto.TaskDTO) string {
	const layout = "Jan 2"
	switch {
	case t.StartDate != nil && t.EndDate != nil:
		return t.StartDate.Format(layout) + " - " + t.EndDate.Format(layout)
	case t.StartDate != nil:
		return "from " + t.StartDate.Format(layout)
	case t.EndDate != nil:
		return "until " + t.EndDate.Format(layout)
	}
	return ""
}

func nextPriority(p models.TaskPriority) models.TaskPriority {
	for i, candidate := range priorityCycle {
		if candidate == p {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return ""
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
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
