package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dranzer2021/task-management-system/internal/constants"
	"github.com/dranzer2021/task-management-system/internal/dto"
	apierrors "github.com/dranzer2021/task-management-system/internal/errors"
	"github.com/dranzer2021/task-management-system/internal/middleware"
	"github.com/dranzer2021/task-management-system/internal/services"
)

// AttachmentHandler serves upload, download and delete of task attachments.
type AttachmentHandler struct {
	taskService       *services.TaskService
	attachmentService *services.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(taskService *services.TaskService, attachmentService *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{
		taskService:       taskService,
		attachmentService: attachmentService,
	}
}

// Upload stores a batch of files against a task. The batch either lands
// whole or not at all.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	task, ok := middleware.TaskFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		apierrors.BadRequest(c, "Invalid multipart form")
		return
	}

	files := form.File[constants.AttachmentFormField]
	if _, err := h.attachmentService.Upload(&task, files); err != nil {
		respondTaskError(c, err)
		return
	}

	attachments := make([]dto.AttachmentDTO, 0, len(task.Attachments))
	for _, att := range task.Attachments {
		attachments = append(attachments, dto.ToAttachmentDTO(att))
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Attachments uploaded successfully",
		"attachments": attachments,
	})
}

// Download streams an attachment's artifact under its original filename.
func (h *AttachmentHandler) Download(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}
	attachmentID, err := strconv.ParseUint(c.Param("attachmentId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid attachment ID")
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	att, reader, err := h.attachmentService.Download(task, attachmentID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	defer reader.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", att.Filename),
	}
	c.DataFromReader(http.StatusOK, att.Size, att.MimeType, reader, headers)
}

// Delete removes a single attachment from a task.
func (h *AttachmentHandler) Delete(c *gin.Context) {
	task, ok := middleware.TaskFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	attachmentID, err := strconv.ParseUint(c.Param("attachmentId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid attachment ID")
		return
	}

	if err := h.attachmentService.Delete(&task, attachmentID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Attachment deleted successfully",
	})
}
