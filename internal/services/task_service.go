package services

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dranzer2021/task-management-system/internal/models"
	"github.com/dranzer2021/task-management-system/internal/repository"
)

var ErrTaskNotFound = errors.New("task not found")

// ValidationError reports the request fields that were missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// TaskService handles task business logic: creation with validation,
// partial updates, and deletion with attachment cleanup.
type TaskService struct {
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	attachments *AttachmentService
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, attachments *AttachmentService) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		attachments: attachments,
	}
}

// ListTasksInput represents filters for listing tasks.
type ListTasksInput struct {
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	AssigneeID  *uint64
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	SortColumn  string
	SortDesc    bool
	Page        int
	PageSize    int

	// Caller identity, used for non-admin scoping.
	UserID uint64
	Role   models.Role
}

// ListTasks returns a page of tasks. Non-admin callers only ever see tasks
// they created or are assigned to, regardless of the explicit filters.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:      input.Status,
		Priority:    input.Priority,
		AssigneeID:  input.AssigneeID,
		DueDateFrom: input.DueDateFrom,
		DueDateTo:   input.DueDateTo,
		SortColumn:  input.SortColumn,
		SortDesc:    input.SortDesc,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}

	if input.Role != models.RoleAdmin {
		filter.ScopeUserID = &input.UserID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with creator, assignee and attachments resolved.
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignee", "Attachments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssigneeID  uint64
	CreatorID   uint64
}

// CreateTask validates the input, stores any uploaded files, and persists
// the task with its attachment records in one create. If anything fails
// after files were written, the stored artifacts are removed again so no
// task ends up half-created.
func (s *TaskService) CreateTask(input CreateTaskInput, files []*multipart.FileHeader) (*models.Task, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(input.AssigneeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Fields: []string{"assignedTo"}}
		}
		return nil, fmt.Errorf("failed to check assignee: %w", err)
	}

	var records []models.Attachment
	if len(files) > 0 {
		if err := s.attachments.validateBatch(0, files); err != nil {
			return nil, err
		}
		var err error
		records, err = s.attachments.storeBatch(files)
		if err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		AssigneeID:  input.AssigneeID,
		CreatedBy:   input.CreatorID,
		Attachments: records,
	}

	if err := s.taskRepo.Create(task); err != nil {
		s.attachments.DiscardArtifacts(records)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee", "Attachments")
}

func (s *TaskService) validateCreate(input CreateTaskInput) error {
	var fields []string
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, "title")
	}
	if strings.TrimSpace(input.Description) == "" {
		fields = append(fields, "description")
	}
	if !models.ValidTaskStatus(input.Status) {
		fields = append(fields, "status")
	}
	if !models.ValidTaskPriority(input.Priority) {
		fields = append(fields, "priority")
	}
	if input.DueDate == nil {
		fields = append(fields, "dueDate")
	}
	if input.AssigneeID == 0 {
		fields = append(fields, "assignedTo")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// untouched; the creator is never overwritten.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	AssigneeID   *uint64

	// RemoveAttachments deletes every existing attachment before any new
	// uploads in this request are stored.
	RemoveAttachments bool
}

// UpdateTask merges the supplied fields over the existing record, then
// applies the requested attachment changes.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput, files []*multipart.FileHeader) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Attachments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.applyUpdate(task, input); err != nil {
		return nil, err
	}

	if input.RemoveAttachments {
		if err := s.attachments.RemoveAll(task); err != nil {
			return nil, err
		}
	}
	if len(files) > 0 {
		if _, err := s.attachments.Upload(task, files); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee", "Attachments")
}

func (s *TaskService) applyUpdate(task *models.Task, input UpdateTaskInput) error {
	var fields []string

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			fields = append(fields, "title")
		} else {
			task.Title = *input.Title
		}
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			fields = append(fields, "description")
		} else {
			task.Description = *input.Description
		}
	}
	if input.Status != nil {
		if !models.ValidTaskStatus(*input.Status) {
			fields = append(fields, "status")
		} else {
			task.Status = *input.Status
		}
	}
	if input.Priority != nil {
		if !models.ValidTaskPriority(*input.Priority) {
			fields = append(fields, "priority")
		} else {
			task.Priority = *input.Priority
		}
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.AssigneeID != nil {
		if _, err := s.userRepo.FindByID(*input.AssigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fields = append(fields, "assignedTo")
			} else {
				return fmt.Errorf("failed to check assignee: %w", err)
			}
		} else {
			task.AssigneeID = *input.AssigneeID
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// DeleteTask removes the task record and every artifact it owned. Artifact
// removal is best-effort: a failure is logged and the delete proceeds.
func (s *TaskService) DeleteTask(taskID uint64) error {
	task, err := s.taskRepo.FindByID(taskID, "Attachments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	s.attachments.DiscardArtifacts(task.Attachments)

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	log.Printf("deleted task %d with %d attachments", task.ID, len(task.Attachments))
	return nil
}
