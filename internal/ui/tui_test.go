package ui

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/taskboard/internal/board"
	"github.com/yukikurage/taskboard/internal/dto"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/session"
	"github.com/yukikurage/taskboard/internal/storage"
)

var alice = dto.UserDTO{ID: "alice", FirstName: "Alice", LastName: "Smith"}

type memoryAPI struct {
	mu    sync.Mutex
	tasks []dto.TaskDTO
	query url.Values
}

func (a *memoryAPI) Login(context.Context, dto.LoginRequest) (*dto.AuthResponse, error) {
	return &dto.AuthResponse{Token: "tok", User: alice}, nil
}

func (a *memoryAPI) Register(context.Context, dto.RegisterRequest) (*dto.AuthResponse, error) {
	return &dto.AuthResponse{Token: "tok", User: alice}, nil
}

func (a *memoryAPI) ListTasks(_ context.Context, q url.Values) ([]dto.TaskDTO, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.query = q
	return append([]dto.TaskDTO(nil), a.tasks...), nil
}

func (a *memoryAPI) GetTask(context.Context, string) (*dto.TaskDTO, error) {
	return nil, board.ErrTaskNotFound
}

func (a *memoryAPI) CreateTask(context.Context, dto.CreateTaskRequest) (*dto.TaskDTO, error) {
	return &dto.TaskDTO{}, nil
}

func (a *memoryAPI) UpdateTask(_ context.Context, id string, req dto.UpdateTaskRequest) (*dto.TaskDTO, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.tasks {
		if t.ID == id {
			a.tasks[i] = req.Apply(t)
			updated := a.tasks[i]
			return &updated, nil
		}
	}
	return nil, board.ErrTaskNotFound
}

func (a *memoryAPI) DeleteTask(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.tasks {
		if t.ID == id {
			a.tasks = append(a.tasks[:i], a.tasks[i+1:]...)
			return nil
		}
	}
	return board.ErrTaskNotFound
}

func (a *memoryAPI) ListUsers(context.Context) ([]dto.UserDTO, error) {
	return []dto.UserDTO{alice}, nil
}

func newTestModel(t *testing.T) (*boardModel, *memoryAPI, *session.Manager) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	api := &memoryAPI{tasks: []dto.TaskDTO{
		{ID: "t1", Title: "Plan sprint", Status: models.TaskStatusTodo, Priority: models.TaskPriorityHigh, OwnedBy: alice},
		{ID: "t2", Title: "Ship release", Status: models.TaskStatusInProgress, OwnedBy: alice},
	}}

	sess := session.NewManager(api, storage.NewMemoryStore(), session.WithLogger(logger))
	require.NoError(t, sess.Login(context.Background(), dto.LoginRequest{Email: "alice@example.com", Password: "pw"}))

	b := board.NewController(api, sess, board.WithLogger(logger))
	t.Cleanup(b.Close)

	m := newBoardModel(context.Background(), b, sess)
	return m, api, sess
}

// press feeds a key to the model and runs the command it returns, the way the
// bubbletea runtime would.
func press(t *testing.T, m *boardModel, key tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(key)
	if cmd == nil {
		return
	}
	if msg, ok := cmd().(opDoneMsg); ok {
		m.Update(msg)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadBoard(t *testing.T, m *boardModel) {
	t.Helper()
	require.NoError(t, m.board.Refresh(context.Background()))
}

func TestBoardModel_View(t *testing.T) {
	m, _, _ := newTestModel(t)
	loadBoard(t, m)

	view := m.View()
	assert.Contains(t, view, "Alice Smith")
	assert.Contains(t, view, "To Do (1)")
	assert.Contains(t, view, "In Progress (1)")
	assert.Contains(t, view, "Done (0)")
	assert.Contains(t, view, "Plan sprint")
}

func TestBoardModel_MoveRight(t *testing.T) {
	m, api, _ := newTestModel(t)
	loadBoard(t, m)

	press(t, m, runes("L"))

	task, ok := m.board.Task("t1")
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.Equal(t, models.TaskStatusInProgress, api.tasks[0].Status)
	assert.Contains(t, m.View(), board.MsgMoved)
}

func TestBoardModel_Navigation(t *testing.T) {
	m, _, _ := newTestModel(t)
	loadBoard(t, m)

	press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.col)
	task, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "t2", task.ID)

	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.row)

	press(t, m, runes("l"))
	_, ok = m.selected()
	assert.False(t, ok)

	press(t, m, runes("l"))
	assert.Equal(t, 2, m.col)
}

func TestBoardModel_Filters(t *testing.T) {
	m, api, _ := newTestModel(t)
	loadBoard(t, m)

	press(t, m, runes("m"))
	assert.Equal(t, "alice", api.query.Get("assigned_to_id"))

	press(t, m, runes("p"))
	assert.Equal(t, "HIGH", api.query.Get("priority"))
	assert.Contains(t, m.View(), "priority=HIGH")

	press(t, m, runes("0"))
	assert.Empty(t, api.query)
}

func TestBoardModel_Delete(t *testing.T) {
	m, api, _ := newTestModel(t)
	loadBoard(t, m)

	press(t, m, runes("x"))
	assert.Len(t, api.tasks, 1)
	_, ok := m.board.Task("t1")
	assert.False(t, ok)
}

func TestBoardModel_QuitsWhenSessionEnds(t *testing.T) {
	m, _, sess := newTestModel(t)
	sess.Expire(context.Background(), "")

	_, cmd := m.Update(tickMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, session.MsgSessionExpired, m.ended)
}

func TestNextPriority(t *testing.T) {
	assert.Equal(t, models.TaskPriorityHigh, nextPriority(""))
	assert.Equal(t, models.TaskPriority(""), nextPriority(models.TaskPriorityLow))
}

func TestFormatCard(t *testing.T) {
	assert.Equal(t, "! Plan sprint", formatCard(dto.TaskDTO{Title: "Plan sprint", Priority: models.TaskPriorityHigh}, 20))
	assert.Equal(t, ". Write the rele...", formatCard(dto.TaskDTO{Title: "Write the release notes", Priority: models.TaskPriorityLow}, 19))

	t.Run("multibyte title", func(t *testing.T) {
		line := formatCard(dto.TaskDTO{Title: "日本語のタスクタイトルです"}, 10)
		assert.True(t, utf8.ValidString(line))
		assert.LessOrEqual(t, ansi.StringWidth(line), 10)
		assert.True(t, strings.HasPrefix(line, "  日本"), line)
		assert.True(t, strings.HasSuffix(line, "..."), line)
	})
}

func TestWriteHeader_Filter(t *testing.T) {
	var b strings.Builder
	writeHeader(&b, &alice, board.Filter{}, false)
	assert.NotContains(t, b.String(), "Filter:")

	b.Reset()
	writeHeader(&b, &alice, board.Filter{Status: models.TaskStatusDone, AssignedToID: "alice"}, true)
	assert.Contains(t, b.String(), "Filter: status=DONE, assigned to me")
	assert.Contains(t, b.String(), "Loading...")
}

func TestWriteDetail_NamesUsersFromDirectory(t *testing.T) {
	m, _, _ := newTestModel(t)
	require.NoError(t, m.board.LoadUsers(context.Background()))

	var b strings.Builder
	writeDetail(&b, dto.TaskDTO{
		Title:      "Plan sprint",
		Status:     models.TaskStatusTodo,
		OwnedBy:    dto.UserDTO{ID: "alice"},
		AssignedTo: &dto.UserDTO{ID: "dave"},
	}, m.board.User)

	assert.Contains(t, b.String(), "Owner: Alice Smith")
	assert.Contains(t, b.String(), "Assignee: dave")
}
