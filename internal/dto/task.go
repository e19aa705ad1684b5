package dto

import (
	"time"

	"github.com/dranzer2021/task-management-system/internal/models"
	"github.com/dranzer2021/task-management-system/internal/utils"
)

// AttachmentDTO represents an attachment in API responses.
type AttachmentDTO struct {
	ID        uint64    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimetype"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses.
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	AssigneeID  uint64              `json:"assignee_id"`
	CreatedBy   uint64              `json:"created_by"`
	Assignee    *UserSummaryDTO     `json:"assigned_to,omitempty"`
	Creator     *UserSummaryDTO     `json:"creator,omitempty"`
	Attachments []AttachmentDTO     `json:"attachments"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks.
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
	Page  int       `json:"page"`
	Pages int       `json:"pages"`
	Total int64     `json:"total"`
}

// ToAttachmentDTO converts an Attachment model to AttachmentDTO.
func ToAttachmentDTO(att models.Attachment) AttachmentDTO {
	return AttachmentDTO{
		ID:        att.ID,
		Filename:  att.Filename,
		MimeType:  att.MimeType,
		Size:      att.Size,
		CreatedAt: att.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		AssigneeID:  task.AssigneeID,
		CreatedBy:   task.CreatedBy,
		Attachments: make([]AttachmentDTO, 0, len(task.Attachments)),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include identities if preloaded
	if task.Assignee.ID != 0 {
		assignee := ToUserSummaryDTO(task.Assignee)
		dto.Assignee = &assignee
	}
	if task.Creator.ID != 0 {
		creator := ToUserSummaryDTO(task.Creator)
		dto.Creator = &creator
	}

	for _, att := range task.Attachments {
		dto.Attachments = append(dto.Attachments, ToAttachmentDTO(att))
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse.
func ToTaskListResponse(tasks []models.Task, page, pageSize int, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	pages := 0
	if total > 0 {
		pages = utils.TotalPages(total, pageSize)
	}

	return TaskListResponse{
		Tasks: items,
		Page:  page,
		Pages: pages,
		Total: total,
	}
}
