package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yukikurage/taskboard/internal/dto"
)

// Login calls POST /auth/login.
func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register calls POST /auth/register.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUsers calls GET /v1/users.
func (c *Client) ListUsers(ctx context.Context) ([]dto.UserDTO, error) {
	var users []dto.UserDTO
	if err := c.do(ctx, http.MethodGet, "/v1/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListTasks calls GET /v1/tasks with an already normalised query.
func (c *Client) ListTasks(ctx context.Context, query url.Values) ([]dto.TaskDTO, error) {
	var tasks []dto.TaskDTO
	if err := c.do(ctx, http.MethodGet, "/v1/tasks", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask calls GET /v1/tasks/{id}.
func (c *Client) GetTask(ctx context.Context, id string) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask calls POST /v1/tasks.
func (c *Client) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodPost, "/v1/tasks", nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask calls PUT /v1/tasks/{id} with the set fields of req.
func (c *Client) UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodPut, taskPath(id), nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask calls DELETE /v1/tasks/{id}.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

func taskPath(id string) string {
	return "/v1/tasks/" + url.PathEscape(id)
}
