package handlers

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dranzer2021/task-management-system/internal/constants"
	"github.com/dranzer2021/task-management-system/internal/dto"
	apierrors "github.com/dranzer2021/task-management-system/internal/errors"
	"github.com/dranzer2021/task-management-system/internal/middleware"
	"github.com/dranzer2021/task-management-system/internal/models"
	"github.com/dranzer2021/task-management-system/internal/services"
	"github.com/dranzer2021/task-management-system/internal/utils"
)

// TaskHandler serves the task CRUD surface. Mutating routes sit behind
// RequireTaskOwnership, which loads the task into the context.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns a filtered, sorted, paginated page of tasks. Non-admin
// callers only see tasks they created or are assigned to.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	role, _ := middleware.GetUserRole(c)

	input := services.ListTasksInput{
		UserID: userID,
		Role:   role,
	}

	var badFields []string

	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		if !models.ValidTaskStatus(status) {
			badFields = append(badFields, "status")
		} else {
			input.Status = &status
		}
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		if !models.ValidTaskPriority(priority) {
			badFields = append(badFields, "priority")
		} else {
			input.Priority = &priority
		}
	}
	if v := c.Query("assignedTo"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badFields = append(badFields, "assignedTo")
		} else {
			input.AssigneeID = &id
		}
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			badFields = append(badFields, "startDate")
		} else {
			input.DueDateFrom = &t
		}
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			badFields = append(badFields, "endDate")
		} else {
			input.DueDateTo = &t
		}
	}

	if len(badFields) > 0 {
		apierrors.BadRequestWithDetails(c, "missing or invalid fields: "+strings.Join(badFields, ", "), badFields)
		return
	}

	input.SortColumn, input.SortDesc = utils.ParseSortSpec(c.Query("sortBy"))

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a single task by ID.
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a task from a JSON body or a multipart form with
// attached files.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.CreateTaskInput{CreatorID: userID}
	var files []*multipart.FileHeader

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			apierrors.BadRequest(c, "Invalid multipart form")
			return
		}
		files = form.File[constants.AttachmentFormField]

		input.Title = c.PostForm("title")
		input.Description = c.PostForm("description")
		input.Status = models.TaskStatus(c.PostForm("status"))
		input.Priority = models.TaskPriority(c.PostForm("priority"))

		if v := c.PostForm("dueDate"); v != "" {
			t, err := parseDate(v)
			if err != nil {
				apierrors.BadRequestWithDetails(c, "missing or invalid fields: dueDate", []string{"dueDate"})
				return
			}
			input.DueDate = &t
		}
		if v := c.PostForm("assignedTo"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				apierrors.BadRequestWithDetails(c, "missing or invalid fields: assignedTo", []string{"assignedTo"})
				return
			}
			input.AssigneeID = id
		}
	} else {
		type CreateTaskRequest struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Status      string `json:"status"`
			Priority    string `json:"priority"`
			DueDate     string `json:"dueDate"`
			AssignedTo  uint64 `json:"assignedTo"`
		}

		var req CreateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}

		input.Title = req.Title
		input.Description = req.Description
		input.Status = models.TaskStatus(req.Status)
		input.Priority = models.TaskPriority(req.Priority)
		input.AssigneeID = req.AssignedTo

		if req.DueDate != "" {
			t, err := parseDate(req.DueDate)
			if err != nil {
				apierrors.BadRequestWithDetails(c, "missing or invalid fields: dueDate", []string{"dueDate"})
				return
			}
			input.DueDate = &t
		}
	}

	task, err := h.taskService.CreateTask(input, files)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update to a task. Fields not supplied are
// left untouched; the creator is never overwritten.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.TaskFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var input services.UpdateTaskInput
	var files []*multipart.FileHeader

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			apierrors.BadRequest(c, "Invalid multipart form")
			return
		}
		files = form.File[constants.AttachmentFormField]

		if vs, ok := form.Value["title"]; ok && len(vs) > 0 {
			input.Title = &vs[0]
		}
		if vs, ok := form.Value["description"]; ok && len(vs) > 0 {
			input.Description = &vs[0]
		}
		if vs, ok := form.Value["status"]; ok && len(vs) > 0 {
			status := models.TaskStatus(vs[0])
			input.Status = &status
		}
		if vs, ok := form.Value["priority"]; ok && len(vs) > 0 {
			priority := models.TaskPriority(vs[0])
			input.Priority = &priority
		}
		if vs, ok := form.Value["dueDate"]; ok && len(vs) > 0 {
			if vs[0] == "" {
				input.ClearDueDate = true
			} else {
				t, err := parseDate(vs[0])
				if err != nil {
					apierrors.BadRequestWithDetails(c, "missing or invalid fields: dueDate", []string{"dueDate"})
					return
				}
				input.DueDate = &t
			}
		}
		if vs, ok := form.Value["assignedTo"]; ok && len(vs) > 0 {
			id, err := strconv.ParseUint(vs[0], 10, 64)
			if err != nil {
				apierrors.BadRequestWithDetails(c, "missing or invalid fields: assignedTo", []string{"assignedTo"})
				return
			}
			input.AssigneeID = &id
		}
		input.RemoveAttachments = c.PostForm("removeAttachments") == "true"
	} else {
		// Parse raw JSON to detect which fields were sent
		var raw map[string]any
		if err := c.ShouldBindJSON(&raw); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}

		if v, ok := raw["title"].(string); ok {
			input.Title = &v
		}
		if v, ok := raw["description"].(string); ok {
			input.Description = &v
		}
		if v, ok := raw["status"].(string); ok {
			status := models.TaskStatus(v)
			input.Status = &status
		}
		if v, ok := raw["priority"].(string); ok {
			priority := models.TaskPriority(v)
			input.Priority = &priority
		}
		if _, present := raw["dueDate"]; present {
			if raw["dueDate"] == nil {
				input.ClearDueDate = true
			} else if v, ok := raw["dueDate"].(string); ok {
				t, err := parseDate(v)
				if err != nil {
					apierrors.BadRequestWithDetails(c, "missing or invalid fields: dueDate", []string{"dueDate"})
					return
				}
				input.DueDate = &t
			}
		}
		if v, ok := raw["assignedTo"].(float64); ok && v > 0 {
			id := uint64(v)
			input.AssigneeID = &id
		}
		if v, ok := raw["removeAttachments"].(bool); ok {
			input.RemoveAttachments = v
		}
	}

	updated, err := h.taskService.UpdateTask(task.ID, input, files)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task and its attachment artifacts.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.TaskFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task removed",
	})
}

func respondTaskError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		apierrors.BadRequestWithDetails(c, vErr.Error(), vErr.Fields)
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrAttachmentNotFound):
		apierrors.NotFound(c, "Attachment not found")
	case errors.Is(err, services.ErrNoFilesUploaded),
		errors.Is(err, services.ErrTooManyAttachments),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrFileTypeNotAllowed):
		apierrors.BadRequest(c, err.Error())
	default:
		log.Printf("task request failed: %v", err)
		apierrors.InternalError(c, "")
	}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// parseDate accepts RFC3339 timestamps and bare dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
