// Package board holds the client-side task board: the fetched tasks, the
// applied filter, the user list and the status banners.
package board

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard/internal/client"
	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/dto"
	"github.com/yukikurage/taskboard/internal/models"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrNotPermitted  = errors.New("you need to be assigned to or own the task to update it")
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidStatus = errors.New("invalid task status")
)

// Banner texts.
const (
	MsgLoadFailed    = "Failed to load tasks. Please try again later."
	MsgCreated       = "Task created successfully"
	MsgCreateFailed  = "Failed to create task. Please try again."
	MsgUpdated       = "Task updated successfully"
	MsgUpdateFailed  = "Failed to update task. Please try again."
	MsgDeleted       = "Task deleted successfully"
	MsgDeleteFailed  = "Cannot delete task. Please try again."
	MsgMoved         = "Task status updated successfully"
	MsgMoveFailed    = "Failed to move task. Please try again."
	MsgNotPermitted  = "You need to be assigned to or own the task to update it"
	MsgTitleRequired = "Title is required"
)

// TaskAPI is the part of the API client the board uses.
type TaskAPI interface {
	ListTasks(ctx context.Context, query url.Values) ([]dto.TaskDTO, error)
	GetTask(ctx context.Context, id string) (*dto.TaskDTO, error)
	CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*dto.TaskDTO, error)
	UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) (*dto.TaskDTO, error)
	DeleteTask(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]dto.UserDTO, error)
}

// Identity reports the acting user. session.Manager satisfies it.
type Identity interface {
	CurrentUser() *dto.UserDTO
}

// Controller is the board state. It is safe for concurrent use; onChange
// callbacks run outside the lock.
type Controller struct {
	api      TaskAPI
	identity Identity
	log      logrus.FieldLogger
	banners  *banners
	onChange func()

	mu       sync.RWMutex
	tasks    map[string]dto.TaskDTO
	order    []string
	users    []dto.UserDTO
	filter   Filter
	fetched  bool
	issued   uint64
	applied  uint64
	inflight int
	revision uint64
	revs     map[string]uint64
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithNoticeTTL sets how long banners stay up.
func WithNoticeTTL(d time.Duration) Option {
	return func(c *Controller) {
		c.banners.ttl = d
	}
}

// WithOnChange registers a callback run after every state change.
func WithOnChange(fn func()) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

func NewController(api TaskAPI, identity Identity, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		identity: identity,
		log:      logrus.StandardLogger(),
		tasks:    map[string]dto.TaskDTO{},
		revs:     map[string]uint64{},
	}
	c.banners = newBanners(constants.DefaultNoticeTTL, c.changed)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops pending banner timers.
func (c *Controller) Close() {
	c.banners.stop()
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// FetchTasks loads the tasks matching f and replaces the collection. When
// fetches overlap, a response older than the one already applied is dropped.
func (c *Controller) FetchTasks(ctx context.Context, f Filter) error {
	f = f.Normalize()

	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.filter = f
	c.fetched = true
	c.inflight++
	c.mu.Unlock()
	c.banners.clearError()
	c.changed()

	tasks, err := c.api.ListTasks(ctx, f.Query())

	c.mu.Lock()
	c.inflight--
	stale := seq < c.applied
	if err == nil && !stale {
		c.applied = seq
		c.replace(tasks)
	}
	c.mu.Unlock()
	defer c.changed()

	if stale {
		c.log.WithField("seq", seq).Debug("Dropping stale task list")
		return nil
	}
	if err != nil {
		c.log.WithError(err).Error("Failed to fetch tasks")
		c.banners.setError(MsgLoadFailed)
		return fmt.Errorf("fetch tasks: %w", err)
	}
	return nil
}

// replace swaps in a new collection. Callers hold c.mu.
func (c *Controller) replace(tasks []dto.TaskDTO) {
	c.tasks = make(map[string]dto.TaskDTO, len(tasks))
	c.order = make([]string, 0, len(tasks))
	c.revs = make(map[string]uint64, len(tasks))
	for _, t := range tasks {
		if _, dup := c.tasks[t.ID]; !dup {
			c.order = append(c.order, t.ID)
		}
		c.tasks[t.ID] = t
		c.revision++
		c.revs[t.ID] = c.revision
	}
}

// put replaces one task and returns its new revision. Callers hold c.mu.
func (c *Controller) put(t dto.TaskDTO) uint64 {
	if _, ok := c.tasks[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.tasks[t.ID] = t
	c.revision++
	c.revs[t.ID] = c.revision
	return c.revision
}

// SetFilter fetches with f unless it equals the filter already applied.
// It reports whether a fetch happened.
func (c *Controller) SetFilter(ctx context.Context, f Filter) (bool, error) {
	f = f.Normalize()
	c.mu.RLock()
	same := c.fetched && c.filter == f
	c.mu.RUnlock()
	if same {
		return false, nil
	}
	return true, c.FetchTasks(ctx, f)
}

// Refresh re-fetches with the current filter.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.FetchTasks(ctx, c.Filter())
}

// LoadUsers fetches the users available for assignment. Failures are logged
// and leave the previous list in place.
func (c *Controller) LoadUsers(ctx context.Context) error {
	users, err := c.api.ListUsers(ctx)
	if err != nil {
		c.log.WithError(err).Warn("Failed to fetch users")
		return fmt.Errorf("fetch users: %w", err)
	}
	c.mu.Lock()
	c.users = users
	c.mu.Unlock()
	c.changed()
	return nil
}

// LoadTask fetches one task and merges it into the collection.
func (c *Controller) LoadTask(ctx context.Context, id string) (*dto.TaskDTO, error) {
	task, err := c.api.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return nil, err
		}
		var apiErr *client.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("fetch task %s: %w", id, err)
	}
	c.mu.Lock()
	if _, ok := c.tasks[task.ID]; ok {
		c.put(*task)
	}
	c.mu.Unlock()
	c.changed()
	return task, nil
}

// CreateTask creates a task and refreshes the board.
func (c *Controller) CreateTask(ctx context.Context, req dto.CreateTaskRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		c.banners.setError(MsgTitleRequired)
		c.changed()
		return ErrTitleRequired
	}

	if _, err := c.api.CreateTask(ctx, req); err != nil {
		c.log.WithError(err).Error("Failed to create task")
		c.banners.setError(failureMessage(err, MsgCreateFailed))
		c.changed()
		return fmt.Errorf("create task: %w", err)
	}

	c.banners.setSuccess(MsgCreated)
	c.refreshAfterWrite(ctx)
	return nil
}

// UpdateTask applies a partial update, replaces the task locally and
// refreshes the board.
func (c *Controller) UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) error {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.banners.setError(MsgTitleRequired)
		c.changed()
		return ErrTitleRequired
	}

	updated, err := c.api.UpdateTask(ctx, id, req)
	if err != nil {
		c.log.WithError(err).WithField("task_id", id).Error("Failed to update task")
		c.banners.setError(failureMessage(err, MsgUpdateFailed))
		c.changed()
		return fmt.Errorf("update task %s: %w", id, err)
	}

	c.mu.Lock()
	c.put(*updated)
	c.mu.Unlock()

	c.banners.setSuccess(MsgUpdated)
	c.refreshAfterWrite(ctx)
	return nil
}

// DeleteTask deletes a task and refreshes the board.
func (c *Controller) DeleteTask(ctx context.Context, id string) error {
	if err := c.api.DeleteTask(ctx, id); err != nil {
		c.log.WithError(err).WithField("task_id", id).Error("Failed to delete task")
		c.banners.setError(failureMessage(err, MsgDeleteFailed))
		c.changed()
		return fmt.Errorf("delete task %s: %w", id, err)
	}

	c.banners.setSuccess(MsgDeleted)
	c.refreshAfterWrite(ctx)
	return nil
}

// MoveTask changes a task's status. Only the owner or assignee may move a
// task; anyone else is refused without a request. The board shows the new
// status immediately and puts the old one back if the server refuses, unless
// a newer copy of the task has arrived meanwhile.
func (c *Controller) MoveTask(ctx context.Context, id string, status models.TaskStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	actor := ""
	if c.identity != nil {
		if u := c.identity.CurrentUser(); u != nil {
			actor = u.ID
		}
	}

	c.mu.Lock()
	task, ok := c.tasks[id]
	if !ok {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	if task.Status == status {
		c.mu.Unlock()
		return nil
	}
	if !task.IsOwnedBy(actor) && !task.IsAssignedTo(actor) {
		c.mu.Unlock()
		c.banners.setError(MsgNotPermitted)
		c.changed()
		return ErrNotPermitted
	}
	prior := task.Status
	req := dto.UpdateTaskRequest{Status: &status}
	rev := c.put(req.Apply(task))
	c.mu.Unlock()
	c.changed()

	_, err := c.api.UpdateTask(ctx, id, req)
	if err != nil {
		c.mu.Lock()
		if current, ok := c.tasks[id]; ok && c.revs[id] == rev {
			current.Status = prior
			c.put(current)
		}
		c.mu.Unlock()

		c.log.WithError(err).WithFields(logrus.Fields{
			"task_id": id,
			"status":  status,
		}).Error("Failed to move task")
		c.banners.setError(failureMessage(err, MsgMoveFailed))
		c.changed()
		return fmt.Errorf("move task %s: %w", id, err)
	}

	c.banners.setSuccess(MsgMoved)
	c.refreshAfterWrite(ctx)
	return nil
}

func (c *Controller) refreshAfterWrite(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.log.WithError(err).Warn("Refresh after write failed")
	}
}

// failureMessage prefers the server's explanation of a 4xx.
func failureMessage(err error, fallback string) string {
	var apiErr *client.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Tasks returns all tasks in server order.
func (c *Controller) Tasks() []dto.TaskDTO {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]dto.TaskDTO, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tasks[id])
	}
	return out
}

// Column returns the tasks with the given status in server order.
func (c *Controller) Column(status models.TaskStatus) []dto.TaskDTO {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []dto.TaskDTO
	for _, id := range c.order {
		if t := c.tasks[id]; t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Task looks up a task by id.
func (c *Controller) Task(id string) (dto.TaskDTO, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	return t, ok
}

func (c *Controller) Users() []dto.UserDTO {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]dto.UserDTO(nil), c.users...)
}

// User looks up a user from the loaded list.
func (c *Controller) User(id string) (dto.UserDTO, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.ID == id {
			return u, true
		}
	}
	return dto.UserDTO{}, false
}

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

func (c *Controller) Banner() Banner {
	return c.banners.get()
}

// Filter returns the filter of the latest fetch.
func (c *Controller) Filter() Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}
