package repository

import (
	"time"

	"github.com/dranzer2021/task-management-system/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task, including any attachment records set on it
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering, sorting and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task and removes its attachment records
	Delete(id uint64) error

	// AddAttachments appends attachment records to a task
	AddAttachments(taskID uint64, attachments []models.Attachment) error

	// RemoveAttachment removes a single attachment record from a task
	RemoveAttachment(taskID, attachmentID uint64) error

	// RemoveAllAttachments removes every attachment record of a task
	RemoveAllAttachments(taskID uint64) error
}

// TaskFilter holds filtering options for listing tasks. All filter fields
// are optional and AND-combined; ScopeUserID additionally narrows the result
// to tasks the user created or is assigned to.
type TaskFilter struct {
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	AssigneeID  *uint64
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	ScopeUserID *uint64
	SortColumn  string
	SortDesc    bool
	Page        int
	PageSize    int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Update updates a user
	Update(user *models.User) error
}
