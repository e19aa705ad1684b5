package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dranzer2021/task-management-system/internal/database"
	"github.com/dranzer2021/task-management-system/internal/models"
	"github.com/dranzer2021/task-management-system/internal/utils"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date <= ?", *filter.DueDateTo)
	}

	// Non-admin scope: tasks the user created or is assigned to. Applied
	// with AND against the explicit filters above.
	if filter.ScopeUserID != nil {
		query = query.Where("(tasks.created_by = ? OR tasks.assignee_id = ?)",
			*filter.ScopeUserID, *filter.ScopeUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column := filter.SortColumn
	if column == "" {
		column = utils.DefaultSortColumn
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	listQuery := query.Order(fmt.Sprintf("tasks.%s %s", column, direction))

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.
		Preload("Creator").
		Preload("Assignee").
		Preload("Attachments").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Delete soft deletes a task and removes its attachment records
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddAttachments appends attachment records to a task
func (r *GormTaskRepository) AddAttachments(taskID uint64, attachments []models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	for i := range attachments {
		attachments[i].TaskID = taskID
	}
	return r.db.Create(&attachments).Error
}

// RemoveAttachment removes a single attachment record from a task
func (r *GormTaskRepository) RemoveAttachment(taskID, attachmentID uint64) error {
	return r.db.
		Where("task_id = ? AND id = ?", taskID, attachmentID).
		Delete(&models.Attachment{}).Error
}

// RemoveAllAttachments removes every attachment record of a task
func (r *GormTaskRepository) RemoveAllAttachments(taskID uint64) error {
	return r.db.Where("task_id = ?", taskID).Delete(&models.Attachment{}).Error
}
