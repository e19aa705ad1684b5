package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dranzer2021/task-management-system/internal/constants"
	"github.com/dranzer2021/task-management-system/internal/database"
	"github.com/dranzer2021/task-management-system/internal/models"
	"github.com/dranzer2021/task-management-system/internal/repository"
	"github.com/dranzer2021/task-management-system/internal/services"
	"github.com/dranzer2021/task-management-system/internal/storage"
)

// AttachmentHandlerTestSuite defines the test suite for AttachmentHandler
type AttachmentHandlerTestSuite struct {
	suite.Suite
	db          *gorm.DB
	uploadDir   string
	handler     *AttachmentHandler
	taskHandler *TaskHandler
}

// SetupTest runs before each test
func (suite *AttachmentHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Attachment{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	suite.uploadDir = suite.T().TempDir()
	store, err := storage.NewLocalStore(suite.uploadDir)
	suite.Require().NoError(err)

	taskRepo := repository.NewTaskRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	attachmentService := services.NewAttachmentService(taskRepo, store)
	taskService := services.NewTaskService(taskRepo, userRepo, attachmentService)
	suite.handler = NewAttachmentHandler(taskService, attachmentService)
	suite.taskHandler = NewTaskHandler(taskService)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *AttachmentHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *AttachmentHandlerTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
	}
	suite.db.Create(user)
	return user
}

func (suite *AttachmentHandlerTestSuite) createTestTask(title string, userID uint64) *models.Task {
	due := time.Now().Add(24 * time.Hour)
	task := &models.Task{
		Title:       title,
		Description: "Test Description",
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		DueDate:     &due,
		CreatedBy:   userID,
		AssigneeID:  userID,
	}
	suite.db.Create(task)
	return task
}

type filePart struct {
	name        string
	contentType string
	data        []byte
}

// uploadContext builds a multipart upload request with the task already in
// context, as RequireTaskOwnership would leave it.
func (suite *AttachmentHandlerTestSuite) uploadContext(task *models.Task, user *models.User, parts []filePart) (*gin.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		writeFilePart(suite.T(), mw, p.name, p.contentType, p.data)
	}
	suite.Require().NoError(mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", fmt.Sprintf("/api/tasks/%d/attachments", task.ID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyUserRole, user.Role)
	c.Set(constants.ContextKeyTask, *task)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", task.ID)}}

	return c, w
}

func (suite *AttachmentHandlerTestSuite) storedArtifactCount() int {
	entries, err := os.ReadDir(suite.uploadDir)
	suite.Require().NoError(err)
	return len(entries)
}

func (suite *AttachmentHandlerTestSuite) loadTask(id uint64) *models.Task {
	var task models.Task
	suite.Require().NoError(suite.db.Preload("Attachments").First(&task, id).Error)
	return &task
}

// TestUpload_Success stores the batch and appends the records
func (suite *AttachmentHandlerTestSuite) TestUpload_Success() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	c, w := suite.uploadContext(task, user, []filePart{
		{"report.pdf", "application/pdf", []byte("%PDF-1.4")},
		{"notes.txt", "text/plain", []byte("hello")},
	})
	suite.handler.Upload(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.Equal(suite.T(), 2, suite.storedArtifactCount())

	reloaded := suite.loadTask(task.ID)
	assert.Len(suite.T(), reloaded.Attachments, 2)
	assert.Equal(suite.T(), "report.pdf", reloaded.Attachments[0].Filename)
	assert.Equal(suite.T(), int64(len("%PDF-1.4")), reloaded.Attachments[0].Size)
}

// TestUpload_FourthAttachmentRejected verifies the cap of 3
func (suite *AttachmentHandlerTestSuite) TestUpload_FourthAttachmentRejected() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	c, w := suite.uploadContext(task, user, []filePart{
		{"a.pdf", "application/pdf", []byte("a")},
		{"b.pdf", "application/pdf", []byte("b")},
		{"c.pdf", "application/pdf", []byte("c")},
	})
	suite.handler.Upload(c)
	suite.Require().Equal(http.StatusCreated, w.Code)

	c, w = suite.uploadContext(suite.loadTask(task.ID), user, []filePart{
		{"d.pdf", "application/pdf", []byte("d")},
	})
	suite.handler.Upload(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Len(suite.T(), suite.loadTask(task.ID).Attachments, 3)
	assert.Equal(suite.T(), 3, suite.storedArtifactCount())
}

// TestUpload_OversizeRejected verifies the 5MB ceiling leaves no artifact
func (suite *AttachmentHandlerTestSuite) TestUpload_OversizeRejected() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	big := bytes.Repeat([]byte("x"), constants.MaxAttachmentSize+1)
	c, w := suite.uploadContext(task, user, []filePart{
		{"big.pdf", "application/pdf", big},
	})
	suite.handler.Upload(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), 0, suite.storedArtifactCount())
	assert.Empty(suite.T(), suite.loadTask(task.ID).Attachments)
}

// TestUpload_DisallowedTypeRejected verifies the media-type whitelist
func (suite *AttachmentHandlerTestSuite) TestUpload_DisallowedTypeRejected() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	c, w := suite.uploadContext(task, user, []filePart{
		{"movie.mp4", "video/mp4", []byte("mp4data")},
	})
	suite.handler.Upload(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), 0, suite.storedArtifactCount())
}

// TestUpload_BatchIsAllOrNothing verifies one bad file sinks the batch
func (suite *AttachmentHandlerTestSuite) TestUpload_BatchIsAllOrNothing() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	c, w := suite.uploadContext(task, user, []filePart{
		{"fine.pdf", "application/pdf", []byte("ok")},
		{"movie.mp4", "video/mp4", []byte("nope")},
	})
	suite.handler.Upload(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), 0, suite.storedArtifactCount())
	assert.Empty(suite.T(), suite.loadTask(task.ID).Attachments)
}

// TestUpload_NoFiles is a 400, not a crash
func (suite *AttachmentHandlerTestSuite) TestUpload_NoFiles() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	c, w := suite.uploadContext(task, user, nil)
	suite.handler.Upload(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestDownload_RoundTrip streams the artifact back under its original name
func (suite *AttachmentHandlerTestSuite) TestDownload_RoundTrip() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	content := []byte("the report body")
	c, w := suite.uploadContext(task, user, []filePart{
		{"report.pdf", "application/pdf", content},
	})
	suite.handler.Upload(c)
	suite.Require().Equal(http.StatusCreated, w.Code)

	att := suite.loadTask(task.ID).Attachments[0]

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/tasks/%d/attachments/%d", task.ID, att.ID), nil)
	c, _ = gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyUserRole, user.Role)
	c.Params = gin.Params{
		{Key: "id", Value: fmt.Sprintf("%d", task.ID)},
		{Key: "attachmentId", Value: fmt.Sprintf("%d", att.ID)},
	}

	suite.handler.Download(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), content, w.Body.Bytes())
	assert.Contains(suite.T(), w.Header().Get("Content-Disposition"), "report.pdf")
	assert.Equal(suite.T(), "application/pdf", w.Header().Get("Content-Type"))
}

// TestDownload_UnknownAttachment is a 404
func (suite *AttachmentHandlerTestSuite) TestDownload_UnknownAttachment() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/tasks/%d/attachments/999", task.ID), nil)
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyUserRole, user.Role)
	c.Params = gin.Params{
		{Key: "id", Value: fmt.Sprintf("%d", task.ID)},
		{Key: "attachmentId", Value: "999"},
	}

	suite.handler.Download(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestDelete_RemovesArtifactAndRecord covers the single-attachment delete
func (suite *AttachmentHandlerTestSuite) TestDelete_RemovesArtifactAndRecord() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	c, w := suite.uploadContext(task, user, []filePart{
		{"report.pdf", "application/pdf", []byte("bytes")},
	})
	suite.handler.Upload(c)
	suite.Require().Equal(http.StatusCreated, w.Code)

	reloaded := suite.loadTask(task.ID)
	att := reloaded.Attachments[0]

	w = httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/tasks/%d/attachments/%d", task.ID, att.ID), nil)
	c, _ = gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyUserRole, user.Role)
	c.Set(constants.ContextKeyTask, *reloaded)
	c.Params = gin.Params{
		{Key: "id", Value: fmt.Sprintf("%d", task.ID)},
		{Key: "attachmentId", Value: fmt.Sprintf("%d", att.ID)},
	}

	suite.handler.Delete(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), 0, suite.storedArtifactCount())
	assert.Empty(suite.T(), suite.loadTask(task.ID).Attachments)
}

// TestDeleteTask_CleansUpArtifacts verifies the cascading cleanup
func (suite *AttachmentHandlerTestSuite) TestDeleteTask_CleansUpArtifacts() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	c, w := suite.uploadContext(task, user, []filePart{
		{"a.pdf", "application/pdf", []byte("a")},
		{"b.txt", "text/plain", []byte("b")},
	})
	suite.handler.Upload(c)
	suite.Require().Equal(http.StatusCreated, w.Code)
	suite.Require().Equal(2, suite.storedArtifactCount())

	reloaded := suite.loadTask(task.ID)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	c, _ = gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyUserRole, user.Role)
	c.Set(constants.ContextKeyTask, *reloaded)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", task.ID)}}

	suite.taskHandler.DeleteTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), 0, suite.storedArtifactCount())

	var count int64
	suite.db.Model(&models.Attachment{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func TestAttachmentHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AttachmentHandlerTestSuite))
}
