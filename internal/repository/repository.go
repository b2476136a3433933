package repository

import (
	"time"

	"github.com/yukikurage/taskboard/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Task, error)

	// List retrieves tasks matching the filter, owner and assignee preloaded
	List(filter TaskFilter) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id string) error
}

// TaskFilter holds filtering options for listing tasks. Zero values mean
// "no restriction". RangeTo is exclusive.
type TaskFilter struct {
	Status       models.TaskStatus
	Priority     models.TaskPriority
	AssignedToID string
	RangeFrom    *time.Time
	RangeTo      *time.Time
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List returns every user ordered by name
	List() ([]models.User, error)
}
