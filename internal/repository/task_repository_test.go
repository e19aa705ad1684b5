package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dranzer2021/task-management-system/internal/models"
)

type TaskRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo TaskRepository

	creator  *models.User
	assignee *models.User
	other    *models.User
}

func (suite *TaskRepositoryTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.Attachment{})
	suite.Require().NoError(err)

	suite.db = db
	suite.repo = NewTaskRepository(db)

	suite.creator = suite.createTestUser("creator@example.com")
	suite.assignee = suite.createTestUser("assignee@example.com")
	suite.other = suite.createTestUser("other@example.com")
}

func (suite *TaskRepositoryTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleUser,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TaskRepositoryTestSuite) createTestTask(mutate ...func(*models.Task)) *models.Task {
	task := &models.Task{
		Title:       "Test Task",
		Description: "A task used in tests",
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		AssigneeID:  suite.assignee.ID,
		CreatedBy:   suite.creator.ID,
	}
	for _, m := range mutate {
		m(task)
	}
	suite.Require().NoError(suite.repo.Create(task))
	return task
}

func (suite *TaskRepositoryTestSuite) TestList_FiltersAreANDCombined() {
	match := suite.createTestTask(func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
		t.Priority = models.TaskPriorityHigh
	})
	suite.createTestTask(func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
		t.Priority = models.TaskPriorityLow
	})
	suite.createTestTask(func(t *models.Task) {
		t.Status = models.TaskStatusTodo
		t.Priority = models.TaskPriorityHigh
	})

	status := models.TaskStatusCompleted
	priority := models.TaskPriorityHigh
	tasks, total, err := suite.repo.List(TaskFilter{Status: &status, Priority: &priority})

	suite.NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(tasks, 1)
	suite.Equal(match.ID, tasks[0].ID)
}

func (suite *TaskRepositoryTestSuite) TestList_DueDateRangeIsInclusive() {
	day := func(d int) *time.Time {
		t := time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	suite.createTestTask(func(t *models.Task) { t.DueDate = day(1) })
	lower := suite.createTestTask(func(t *models.Task) { t.DueDate = day(10) })
	upper := suite.createTestTask(func(t *models.Task) { t.DueDate = day(20) })
	suite.createTestTask(func(t *models.Task) { t.DueDate = day(25) })

	tasks, total, err := suite.repo.List(TaskFilter{
		DueDateFrom: day(10),
		DueDateTo:   day(20),
		SortColumn:  "due_date",
	})

	suite.NoError(err)
	suite.Equal(int64(2), total)
	suite.Require().Len(tasks, 2)
	suite.Equal(lower.ID, tasks[0].ID)
	suite.Equal(upper.ID, tasks[1].ID)
}

func (suite *TaskRepositoryTestSuite) TestList_ScopeMatchesCreatorOrAssignee() {
	created := suite.createTestTask(func(t *models.Task) {
		t.CreatedBy = suite.other.ID
		t.AssigneeID = suite.creator.ID
	})
	assigned := suite.createTestTask(func(t *models.Task) {
		t.CreatedBy = suite.other.ID
		t.AssigneeID = suite.other.ID
	})
	mine := suite.createTestTask()

	tasks, total, err := suite.repo.List(TaskFilter{ScopeUserID: &suite.creator.ID})

	suite.NoError(err)
	suite.Equal(int64(2), total)
	suite.Require().Len(tasks, 2)
	ids := []uint64{tasks[0].ID, tasks[1].ID}
	suite.Contains(ids, created.ID)
	suite.Contains(ids, mine.ID)
	suite.NotContains(ids, assigned.ID)
}

func (suite *TaskRepositoryTestSuite) TestList_ScopeANDsWithFilters() {
	suite.createTestTask(func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
		t.CreatedBy = suite.other.ID
		t.AssigneeID = suite.other.ID
	})
	visible := suite.createTestTask(func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
	})
	suite.createTestTask()

	status := models.TaskStatusCompleted
	tasks, total, err := suite.repo.List(TaskFilter{
		Status:      &status,
		ScopeUserID: &suite.creator.ID,
	})

	suite.NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(tasks, 1)
	suite.Equal(visible.ID, tasks[0].ID)
}

func (suite *TaskRepositoryTestSuite) TestList_SortDirection() {
	for _, title := range []string{"bravo", "alpha", "charlie"} {
		suite.createTestTask(func(t *models.Task) { t.Title = title })
	}

	tasks, _, err := suite.repo.List(TaskFilter{SortColumn: "title"})
	suite.NoError(err)
	suite.Require().Len(tasks, 3)
	suite.Equal("alpha", tasks[0].Title)
	suite.Equal("charlie", tasks[2].Title)

	tasks, _, err = suite.repo.List(TaskFilter{SortColumn: "title", SortDesc: true})
	suite.NoError(err)
	suite.Require().Len(tasks, 3)
	suite.Equal("charlie", tasks[0].Title)
	suite.Equal("alpha", tasks[2].Title)
}

func (suite *TaskRepositoryTestSuite) TestList_PaginationOffsets() {
	for i := 0; i < 7; i++ {
		suite.createTestTask(func(t *models.Task) { t.Title = fmt.Sprintf("task-%d", i) })
	}

	tasks, total, err := suite.repo.List(TaskFilter{
		SortColumn: "title",
		Page:       2,
		PageSize:   3,
	})

	suite.NoError(err)
	suite.Equal(int64(7), total)
	suite.Require().Len(tasks, 3)
	suite.Equal("task-3", tasks[0].Title)

	tasks, total, err = suite.repo.List(TaskFilter{
		SortColumn: "title",
		Page:       3,
		PageSize:   3,
	})

	suite.NoError(err)
	suite.Equal(int64(7), total)
	suite.Len(tasks, 1)
}

func (suite *TaskRepositoryTestSuite) TestList_PreloadsRelations() {
	task := suite.createTestTask()
	suite.Require().NoError(suite.repo.AddAttachments(task.ID, []models.Attachment{
		{Filename: "report.pdf", StorageKey: "attachments-1-a.pdf", MimeType: "application/pdf", Size: 12},
	}))

	tasks, _, err := suite.repo.List(TaskFilter{})
	suite.NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal(suite.creator.Email, tasks[0].Creator.Email)
	suite.Equal(suite.assignee.Email, tasks[0].Assignee.Email)
	suite.Require().Len(tasks[0].Attachments, 1)
	suite.Equal("report.pdf", tasks[0].Attachments[0].Filename)
}

func (suite *TaskRepositoryTestSuite) TestDelete_RemovesAttachmentRecords() {
	task := suite.createTestTask()
	suite.Require().NoError(suite.repo.AddAttachments(task.ID, []models.Attachment{
		{Filename: "notes.txt", StorageKey: "attachments-2-b.txt", MimeType: "text/plain", Size: 4},
	}))

	suite.NoError(suite.repo.Delete(task.ID))

	_, err := suite.repo.FindByID(task.ID)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)

	var count int64
	suite.db.Model(&models.Attachment{}).Where("task_id = ?", task.ID).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *TaskRepositoryTestSuite) TestRemoveAttachment_IsScopedToTask() {
	task := suite.createTestTask()
	otherTask := suite.createTestTask()
	suite.Require().NoError(suite.repo.AddAttachments(task.ID, []models.Attachment{
		{Filename: "a.txt", StorageKey: "attachments-3-c.txt", MimeType: "text/plain", Size: 1},
	}))

	loaded, err := suite.repo.FindByID(task.ID, "Attachments")
	suite.Require().NoError(err)
	suite.Require().Len(loaded.Attachments, 1)

	// Wrong task ID leaves the record untouched.
	suite.NoError(suite.repo.RemoveAttachment(otherTask.ID, loaded.Attachments[0].ID))
	loaded, err = suite.repo.FindByID(task.ID, "Attachments")
	suite.Require().NoError(err)
	suite.Len(loaded.Attachments, 1)

	suite.NoError(suite.repo.RemoveAttachment(task.ID, loaded.Attachments[0].ID))
	loaded, err = suite.repo.FindByID(task.ID, "Attachments")
	suite.Require().NoError(err)
	suite.Empty(loaded.Attachments)
}

func TestTaskRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TaskRepositoryTestSuite))
}
