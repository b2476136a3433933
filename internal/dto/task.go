package dto

import (
	"time"

	"github.com/yukikurage/taskboard/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
	OwnedBy     UserDTO             `json:"owned_by"`
	AssignedTo  *UserDTO            `json:"assigned_to,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// IsOwnedBy reports whether userID owns the task.
func (t TaskDTO) IsOwnedBy(userID string) bool {
	return userID != "" && t.OwnedBy.ID == userID
}

// IsAssignedTo reports whether userID is the assignee.
func (t TaskDTO) IsAssignedTo(userID string) bool {
	return userID != "" && t.AssignedTo != nil && t.AssignedTo.ID == userID
}

// Covers reports whether day falls inside [StartDate, EndDate], compared by calendar date.
func (t TaskDTO) Covers(day time.Time) bool {
	if t.StartDate == nil || t.EndDate == nil {
		return false
	}
	d := dateOnly(day)
	return !d.Before(dateOnly(*t.StartDate)) && !d.After(dateOnly(*t.EndDate))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CreateTaskRequest is the body of POST /v1/tasks
type CreateTaskRequest struct {
	Title        string              `json:"title" binding:"required"`
	Description  string              `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	StartDate    *time.Time          `json:"start_date"`
	EndDate      *time.Time          `json:"end_date"`
	AssignedToID string              `json:"assigned_to_id,omitempty"`
}

// UpdateTaskRequest is the body of PUT /v1/tasks/{id}; nil fields are left untouched.
type UpdateTaskRequest struct {
	Title        *string              `json:"title,omitempty"`
	Description  *string              `json:"description,omitempty"`
	Status       *models.TaskStatus   `json:"status,omitempty"`
	Priority     *models.TaskPriority `json:"priority,omitempty"`
	StartDate    *time.Time           `json:"start_date,omitempty"`
	EndDate      *time.Time           `json:"end_date,omitempty"`
	AssignedToID *string              `json:"assigned_to_id,omitempty"`
}

// Apply copies the set fields of req onto a local task view. Assignment
// changes are left to the server since only the id is known here.
func (req UpdateTaskRequest) Apply(task TaskDTO) TaskDTO {
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		task.EndDate = req.EndDate
	}
	return task
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		StartDate:   task.StartDate,
		EndDate:     task.EndDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include owner if preloaded
	if task.OwnedBy.ID != "" {
		dto.OwnedBy = ToUserDTO(task.OwnedBy)
	} else {
		dto.OwnedBy = UserDTO{ID: task.OwnedByID}
	}

	// Include assignee if preloaded
	if task.AssignedTo != nil && task.AssignedTo.ID != "" {
		assignee := ToUserDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	} else if task.AssignedToID != nil {
		dto.AssignedTo = &UserDTO{ID: *task.AssignedToID}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}
