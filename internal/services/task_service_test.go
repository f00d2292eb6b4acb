package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/repository"
	"github.com/hqvuong/work-order-api/internal/searchtext"
	"github.com/hqvuong/work-order-api/internal/utils"
)

type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService

	admin  Principal
	worker Principal
	other  Principal
}

func (s *TaskServiceTestSuite) SetupTest() {
	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)

	err = s.db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Location{},
		&models.Task{},
		&models.TaskAssignment{},
	)
	s.Require().NoError(err)

	normalizer := searchtext.NewNormalizer(searchtext.DefaultConfig())
	builder := searchtext.NewBuilder(normalizer)
	taskRepo := repository.NewTaskRepository(s.db, builder)
	customerRepo := repository.NewCustomerRepository(s.db, builder)
	locationRepo := repository.NewLocationRepository(s.db, builder)
	userRepo := repository.NewUserRepository(s.db)

	cfg := DefaultSearchConfig()
	cfg.DefaultPageSize = 10
	cfg.MaxPageSize = 50

	s.service = NewTaskService(taskRepo, customerRepo, locationRepo, userRepo, normalizer, cfg, zap.NewNop())

	s.admin = s.createPrincipal("boss", models.RoleAdmin)
	s.worker = s.createPrincipal("worker1", models.RoleWorker)
	s.other = s.createPrincipal("worker2", models.RoleWorker)
}

func (s *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *TaskServiceTestSuite) createPrincipal(username string, role models.UserRole) Principal {
	user := &models.User{Username: username, PasswordHash: "x", Role: role}
	s.Require().NoError(s.db.Create(user).Error)
	return Principal{UserID: user.ID, Role: role}
}

func (s *TaskServiceTestSuite) createTask(title string, assignees ...uint64) *models.Task {
	task, err := s.service.CreateTask(s.admin, CreateTaskInput{Title: title, AssigneeIDs: assignees})
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceTestSuite) searchIDs(p Principal, input SearchTasksInput) []uint64 {
	result, err := s.service.SearchTasks(p, input)
	s.Require().NoError(err)
	ids := make([]uint64, len(result.Tasks))
	for i, task := range result.Tasks {
		ids[i] = task.ID
	}
	return ids
}

func (s *TaskServiceTestSuite) TestSearchTasks_ValidationErrors() {
	tests := []struct {
		name  string
		input SearchTasksInput
		want  error
	}{
		{"invalid status", SearchTasksInput{Statuses: []string{"BOGUS"}}, ErrInvalidStatus},
		{"invalid sort column", SearchTasksInput{SortBy: "search_text"}, ErrInvalidSort},
		{"invalid sort order", SearchTasksInput{SortBy: "created_at", SortOrder: "sideways"}, ErrInvalidSort},
		{"page size too large", SearchTasksInput{PageSize: 51}, ErrInvalidPageSize},
		{"page size negative", SearchTasksInput{PageSize: -1}, ErrInvalidPageSize},
		{"invalid cursor", SearchTasksInput{Cursor: "???"}, ErrInvalidCursor},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.SearchTasks(s.admin, tt.input)
			s.ErrorIs(err, tt.want)
		})
	}
}

func (s *TaskServiceTestSuite) TestSearchTasks_InvalidDateRange() {
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := s.service.SearchTasks(s.admin, SearchTasksInput{ScheduledFrom: &from, ScheduledTo: &to})
	s.ErrorIs(err, ErrInvalidDateRange)

	_, err = s.service.SearchTasks(s.admin, SearchTasksInput{CreatedFrom: &from, CreatedTo: &to})
	s.ErrorIs(err, ErrInvalidDateRange)
}

func (s *TaskServiceTestSuite) TestSearchTasks_CursorSortMismatchRejected() {
	token := utils.EncodeCursor(utils.Cursor{SortBy: "scheduled_at", ID: 1})

	_, err := s.service.SearchTasks(s.admin, SearchTasksInput{
		SortBy: "created_at",
		Cursor: token,
	})
	s.ErrorIs(err, ErrInvalidCursor)
}

func (s *TaskServiceTestSuite) TestSearchTasks_StatusCaseInsensitive() {
	task, err := s.service.CreateTask(s.admin, CreateTaskInput{Title: "a", Status: models.TaskStatusReady})
	s.Require().NoError(err)
	s.createTask("b")

	ids := s.searchIDs(s.admin, SearchTasksInput{Statuses: []string{"ready"}})
	s.Equal([]uint64{task.ID}, ids)
}

func (s *TaskServiceTestSuite) TestSearchTasks_AccessContainment() {
	mine := s.createTask("mine", s.worker.UserID)
	shared := s.createTask("shared", s.worker.UserID, s.other.UserID)
	s.createTask("theirs", s.other.UserID)
	s.createTask("unassigned")

	workerIDs := s.searchIDs(s.worker, SearchTasksInput{})
	s.ElementsMatch([]uint64{mine.ID, shared.ID}, workerIDs)

	adminIDs := s.searchIDs(s.admin, SearchTasksInput{})
	s.Len(adminIDs, 4)

	// An admin restricted to their own worklist gets the worker treatment.
	adminMine := s.searchIDs(s.admin, SearchTasksInput{RestrictToMine: true})
	s.Empty(adminMine)
}

func (s *TaskServiceTestSuite) TestSearchTasks_WorkerAssigneeFilterDropped() {
	mine := s.createTask("mine", s.worker.UserID)
	s.createTask("theirs", s.other.UserID)

	// The explicit filter must not widen visibility beyond the self-scope.
	ids := s.searchIDs(s.worker, SearchTasksInput{AssigneeIDs: []uint64{s.other.UserID}})
	s.Equal([]uint64{mine.ID}, ids)
}

func (s *TaskServiceTestSuite) TestSearchTasks_AdminAssigneeFilter() {
	mine := s.createTask("mine", s.worker.UserID)
	s.createTask("theirs", s.other.UserID)

	ids := s.searchIDs(s.admin, SearchTasksInput{AssigneeIDs: []uint64{s.worker.UserID}})
	s.Equal([]uint64{mine.ID}, ids)
}

func (s *TaskServiceTestSuite) TestSearchTasks_ByNumericID() {
	target := s.createTask("Fix fan")
	s.createTask("Buy fan")

	ids := s.searchIDs(s.admin, SearchTasksInput{Search: fmt.Sprintf(" %d ", target.ID)})
	s.Contains(ids, target.ID)
}

func (s *TaskServiceTestSuite) TestSearchTasks_Pagination() {
	var want []uint64
	for i := 0; i < 5; i++ {
		want = append(want, s.createTask(fmt.Sprintf("task %d", i)).ID)
	}

	var got []uint64
	input := SearchTasksInput{SortBy: "id", PageSize: 2}
	for {
		result, err := s.service.SearchTasks(s.admin, input)
		s.Require().NoError(err)
		s.LessOrEqual(len(result.Tasks), 2)
		for _, task := range result.Tasks {
			got = append(got, task.ID)
		}
		if !result.HasNextPage {
			s.Empty(result.NextCursor)
			break
		}
		s.NotEmpty(result.NextCursor)
		input.Cursor = result.NextCursor
	}

	s.Equal(want, got)
}

func (s *TaskServiceTestSuite) TestCreateTask_Validation() {
	_, err := s.service.CreateTask(s.worker, CreateTaskInput{Title: "nope"})
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.service.CreateTask(s.admin, CreateTaskInput{Title: "   "})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.service.CreateTask(s.admin, CreateTaskInput{Title: "a", Status: "BOGUS"})
	s.ErrorIs(err, ErrInvalidStatus)

	missing := uint64(9999)
	_, err = s.service.CreateTask(s.admin, CreateTaskInput{Title: "a", CustomerID: &missing})
	s.ErrorIs(err, ErrCustomerNotFound)

	_, err = s.service.CreateTask(s.admin, CreateTaskInput{Title: "a", AssigneeIDs: []uint64{missing}})
	s.ErrorIs(err, ErrInvalidAssignee)
}

func (s *TaskServiceTestSuite) TestCreateTask_DefaultStatusAndAssignees() {
	task := s.createTask("new install", s.worker.UserID)

	s.Equal(models.TaskStatusPreparing, task.Status)
	s.Require().Len(task.Assignments, 1)
	s.Equal(s.worker.UserID, task.Assignments[0].UserID)
}

func (s *TaskServiceTestSuite) TestGetTask_Visibility() {
	task := s.createTask("mine", s.worker.UserID)

	got, err := s.service.GetTask(s.worker, task.ID)
	s.Require().NoError(err)
	s.Equal(task.ID, got.ID)

	// Invisible and missing tasks are indistinguishable.
	_, err = s.service.GetTask(s.other, task.ID)
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.service.GetTask(s.admin, 9999)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestUpdateTask_WorkerMustBeAssigned() {
	task := s.createTask("mine", s.worker.UserID)
	title := "renamed"

	_, err := s.service.UpdateTask(s.other, task.ID, UpdateTaskInput{Title: &title})
	s.ErrorIs(err, ErrTaskNotFound)

	got, err := s.service.UpdateTask(s.worker, task.ID, UpdateTaskInput{Title: &title})
	s.Require().NoError(err)
	s.Equal("renamed", got.Title)
}

func (s *TaskServiceTestSuite) TestUpdateTask_CompletionTimestamps() {
	task := s.createTask("mine", s.worker.UserID)

	completed := models.TaskStatusCompleted
	got, err := s.service.UpdateTask(s.worker, task.ID, UpdateTaskInput{Status: &completed})
	s.Require().NoError(err)
	s.Require().NotNil(got.CompletedAt)

	reopened := models.TaskStatusInProgress
	got, err = s.service.UpdateTask(s.worker, task.ID, UpdateTaskInput{Status: &reopened})
	s.Require().NoError(err)
	s.Nil(got.CompletedAt)
}

func (s *TaskServiceTestSuite) TestUpdateTask_SearchTextFollowsEdit() {
	task := s.createTask("Buy fan")

	title := "Thay lọc nước"
	_, err := s.service.UpdateTask(s.admin, task.ID, UpdateTaskInput{Title: &title})
	s.Require().NoError(err)

	ids := s.searchIDs(s.admin, SearchTasksInput{Search: "thay loc nuoc"})
	s.Equal([]uint64{task.ID}, ids)

	ids = s.searchIDs(s.admin, SearchTasksInput{Search: "buy fan"})
	s.Empty(ids)
}

func (s *TaskServiceTestSuite) TestDeleteTask() {
	task := s.createTask("gone")

	s.ErrorIs(s.service.DeleteTask(s.worker, task.ID), ErrPermissionDenied)
	s.Require().NoError(s.service.DeleteTask(s.admin, task.ID))
	s.ErrorIs(s.service.DeleteTask(s.admin, task.ID), ErrTaskNotFound)

	_, err := s.service.GetTask(s.admin, task.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestAssignUsers_Validation() {
	task := s.createTask("a")

	s.ErrorIs(s.service.AssignUsers(s.worker, task.ID, []uint64{s.worker.UserID}), ErrPermissionDenied)
	s.ErrorIs(s.service.AssignUsers(s.admin, task.ID, nil), ErrNoUserIDsProvided)
	s.ErrorIs(s.service.AssignUsers(s.admin, 9999, []uint64{s.worker.UserID}), ErrTaskNotFound)
	s.ErrorIs(s.service.AssignUsers(s.admin, task.ID, []uint64{9999}), ErrInvalidAssignee)

	s.Require().NoError(s.service.AssignUsers(s.admin, task.ID, []uint64{s.worker.UserID, s.worker.UserID}))
	got, err := s.service.GetTask(s.worker, task.ID)
	s.Require().NoError(err)
	s.Len(got.Assignments, 1)
}

func (s *TaskServiceTestSuite) TestUnassignUsers() {
	task := s.createTask("a", s.worker.UserID)

	s.Require().NoError(s.service.UnassignUsers(s.admin, task.ID, []uint64{s.worker.UserID}))

	_, err := s.service.GetTask(s.worker, task.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
