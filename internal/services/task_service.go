package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hqvuong/work-order-api/internal/constants"
	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/repository"
	"github.com/hqvuong/work-order-api/internal/searchtext"
	"github.com/hqvuong/work-order-api/internal/utils"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidSort       = errors.New("invalid sort parameter")
	ErrInvalidPageSize   = errors.New("page size out of bounds")
	ErrInvalidDateRange  = errors.New("date range lower bound exceeds upper bound")
	ErrInvalidCursor     = errors.New("invalid cursor")
	ErrPermissionDenied  = errors.New("user does not have permission to perform this action")
	ErrNoUserIDsProvided = errors.New("at least one user ID is required")
	ErrInvalidAssignee   = errors.New("one or more users do not exist")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrLocationNotFound  = errors.New("location not found")
)

// SearchConfig carries the tunables of the search engine. It is passed in
// explicitly at construction instead of living in package state.
type SearchConfig struct {
	DefaultPageSize  int
	MaxPageSize      int
	RefreshBatchSize int
	RefreshRetries   int
}

// DefaultSearchConfig returns the production defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultPageSize:  constants.DefaultPageSize,
		MaxPageSize:      constants.MaxPageSize,
		RefreshBatchSize: constants.DefaultRefreshBatchSize,
		RefreshRetries:   constants.DefaultRefreshRetries,
	}
}

// TaskService handles task business logic. It is stateless per request.
type TaskService struct {
	taskRepo     repository.TaskRepository
	customerRepo repository.CustomerRepository
	locationRepo repository.LocationRepository
	userRepo     repository.UserRepository
	normalizer   *searchtext.Normalizer
	cfg          SearchConfig
	log          *zap.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	taskRepo repository.TaskRepository,
	customerRepo repository.CustomerRepository,
	locationRepo repository.LocationRepository,
	userRepo repository.UserRepository,
	normalizer *searchtext.Normalizer,
	cfg SearchConfig,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		customerRepo: customerRepo,
		locationRepo: locationRepo,
		userRepo:     userRepo,
		normalizer:   normalizer,
		cfg:          cfg,
		log:          log,
	}
}

// SearchTasksInput represents a raw, not yet validated search request.
type SearchTasksInput struct {
	Search      string
	Statuses    []string
	AssigneeIDs []uint64
	CustomerID  *uint64

	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CompletedFrom *time.Time
	CompletedTo   *time.Time

	SortBy         string
	SortOrder      string
	RestrictToMine bool
	Cursor         string
	PageSize       int
}

// SearchTasksResult is one page of matching tasks.
type SearchTasksResult struct {
	Tasks       []models.Task
	NextCursor  string
	HasNextPage bool
}

// SearchTasks validates the request, builds the predicate and returns one
// page of results. Malformed input is rejected before any storage access.
func (s *TaskService) SearchTasks(p Principal, input SearchTasksInput) (*SearchTasksResult, error) {
	sortBy, sortDesc, err := s.resolveSort(input.SortBy, input.SortOrder)
	if err != nil {
		return nil, err
	}

	pageSize := input.PageSize
	if pageSize == 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize < constants.MinPageSize || pageSize > s.cfg.MaxPageSize {
		return nil, ErrInvalidPageSize
	}

	statuses, err := parseStatuses(input.Statuses)
	if err != nil {
		return nil, err
	}

	if err := validateRange(input.ScheduledFrom, input.ScheduledTo); err != nil {
		return nil, err
	}
	if err := validateRange(input.CreatedFrom, input.CreatedTo); err != nil {
		return nil, err
	}
	if err := validateRange(input.CompletedFrom, input.CompletedTo); err != nil {
		return nil, err
	}

	filter := repository.TaskFilter{
		Statuses:      statuses,
		CustomerID:    input.CustomerID,
		ScheduledFrom: input.ScheduledFrom,
		ScheduledTo:   input.ScheduledTo,
		CreatedFrom:   input.CreatedFrom,
		CreatedTo:     input.CreatedTo,
		CompletedFrom: input.CompletedFrom,
		CompletedTo:   input.CompletedTo,
		SortBy:        sortBy,
		SortDesc:      sortDesc,
		Limit:         pageSize + 1,
	}

	// The free-text clause targets only the derived search-text column.
	// When the raw query parses as an id, an id-equality alternative is
	// added; otherwise that clause is omitted entirely.
	if q := strings.TrimSpace(input.Search); q != "" {
		filter.SearchText = s.normalizer.Normalize(q)
		if id, err := strconv.ParseUint(q, 10, 64); err == nil && id > 0 {
			filter.SearchID = &id
		}
	}

	scope := ResolveAccessScope(p, input.RestrictToMine)
	if scope.Mine {
		userID := scope.UserID
		filter.MustAssignedTo = &userID
	}
	if len(input.AssigneeIDs) > 0 {
		if p.IsAdmin() {
			filter.AssigneeIDs = input.AssigneeIDs
		} else {
			// Silently overridden by the mandatory self-scope; surfacing an
			// error here would leak access-control internals to the client.
			s.log.Warn("assignee filter dropped for non-admin principal",
				zap.Uint64("user_id", p.UserID),
				zap.Uint64s("requested_assignee_ids", input.AssigneeIDs),
			)
		}
	}

	if input.Cursor != "" {
		cursor, err := utils.DecodeCursor(input.Cursor)
		if err != nil || cursor.SortBy != sortBy || cursor.SortDesc != sortDesc {
			return nil, ErrInvalidCursor
		}
		filter.Cursor = &cursor
	}

	tasks, err := s.taskRepo.Search(filter)
	if err != nil {
		s.log.Error("task search failed",
			zap.Error(err),
			zap.Uint64("user_id", p.UserID),
			zap.String("sort_by", sortBy),
			zap.Bool("sort_desc", sortDesc),
			zap.Int("page_size", pageSize),
			zap.Bool("has_search", filter.SearchText != ""),
			zap.Bool("has_cursor", filter.Cursor != nil),
		)
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}

	result := &SearchTasksResult{Tasks: tasks}
	if len(tasks) > pageSize {
		result.Tasks = tasks[:pageSize]
		result.HasNextPage = true
		last := result.Tasks[pageSize-1]
		result.NextCursor = utils.EncodeCursor(utils.Cursor{
			SortBy:    sortBy,
			SortDesc:  sortDesc,
			SortValue: cursorSortValue(&last, sortBy),
			ID:        last.ID,
		})
	}

	return result, nil
}

func (s *TaskService) resolveSort(sortBy, sortOrder string) (string, bool, error) {
	if sortBy == "" {
		sortBy = repository.SortByCreatedAt
		if sortOrder == "" {
			sortOrder = "desc"
		}
	}
	if !repository.ValidSortBy(sortBy) {
		return "", false, ErrInvalidSort
	}

	switch sortOrder {
	case "", "asc":
		return sortBy, false, nil
	case "desc":
		return sortBy, true, nil
	default:
		return "", false, ErrInvalidSort
	}
}

func parseStatuses(raw []string) ([]models.TaskStatus, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	statuses := make([]models.TaskStatus, 0, len(raw))
	for _, r := range raw {
		status := models.TaskStatus(strings.ToUpper(strings.TrimSpace(r)))
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func validateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return ErrInvalidDateRange
	}
	return nil
}

func cursorSortValue(task *models.Task, sortBy string) *time.Time {
	switch sortBy {
	case repository.SortByCreatedAt:
		v := task.CreatedAt
		return &v
	case repository.SortByUpdatedAt:
		v := task.UpdatedAt
		return &v
	case repository.SortByScheduledAt:
		return task.ScheduledAt
	case repository.SortByCompletedAt:
		return task.CompletedAt
	}
	return nil
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	CustomerID  *uint64
	LocationID  *uint64
	ScheduledAt *time.Time
	AssigneeIDs []uint64
}

// CreateTask creates a task and assigns the given workers. Admin only.
func (s *TaskService) CreateTask(p Principal, input CreateTaskInput) (*models.Task, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == "" {
		input.Status = models.TaskStatusPreparing
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	if input.CustomerID != nil {
		if _, err := s.customerRepo.FindByID(*input.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCustomerNotFound
			}
			return nil, fmt.Errorf("failed to verify customer: %w", err)
		}
	}
	if input.LocationID != nil {
		if _, err := s.locationRepo.FindByID(*input.LocationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrLocationNotFound
			}
			return nil, fmt.Errorf("failed to verify location: %w", err)
		}
	}

	if len(input.AssigneeIDs) > 0 {
		if err := s.verifyAssignees(input.AssigneeIDs); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		CustomerID:  input.CustomerID,
		LocationID:  input.LocationID,
		ScheduledAt: input.ScheduledAt,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if len(input.AssigneeIDs) > 0 {
		if err := s.taskRepo.AssignUsers(task.ID, uniqueUint64(input.AssigneeIDs)); err != nil {
			return nil, fmt.Errorf("failed to assign users to task: %w", err)
		}
	}

	return s.taskRepo.FindByID(task.ID, "Customer", "Location", "Assignments", "Assignments.User")
}

// UpdateTaskInput represents input for updating a task. Nil fields are
// left unchanged.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	CustomerID    *uint64
	LocationID    *uint64
	ClearCustomer bool
	ClearLocation bool
	ScheduledAt   *time.Time
	ClearSchedule bool
}

// UpdateTask updates a task. Admins may update any task, workers only
// tasks they are assigned to.
func (s *TaskService) UpdateTask(p Principal, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findVisibleTask(p, taskID, "Assignments")
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *input.Status == models.TaskStatusCompleted && task.Status != models.TaskStatusCompleted {
			now := time.Now()
			task.CompletedAt = &now
		}
		if *input.Status != models.TaskStatusCompleted {
			task.CompletedAt = nil
		}
		task.Status = *input.Status
	}
	if input.ClearCustomer {
		task.CustomerID = nil
	} else if input.CustomerID != nil {
		if _, err := s.customerRepo.FindByID(*input.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCustomerNotFound
			}
			return nil, fmt.Errorf("failed to verify customer: %w", err)
		}
		task.CustomerID = input.CustomerID
	}
	if input.ClearLocation {
		task.LocationID = nil
	} else if input.LocationID != nil {
		if _, err := s.locationRepo.FindByID(*input.LocationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrLocationNotFound
			}
			return nil, fmt.Errorf("failed to verify location: %w", err)
		}
		task.LocationID = input.LocationID
	}
	if input.ClearSchedule {
		task.ScheduledAt = nil
	} else if input.ScheduledAt != nil {
		task.ScheduledAt = input.ScheduledAt
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Customer", "Location", "Assignments", "Assignments.User")
}

// GetTask returns a task with related data. Workers only see tasks they
// are assigned to; missing and invisible tasks are indistinguishable.
func (s *TaskService) GetTask(p Principal, taskID uint64) (*models.Task, error) {
	return s.findVisibleTask(p, taskID, "Customer", "Location", "Assignments", "Assignments.User")
}

// DeleteTask soft deletes a task. Admin only.
func (s *TaskService) DeleteTask(p Principal, taskID uint64) error {
	if !p.IsAdmin() {
		return ErrPermissionDenied
	}
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}
	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AssignUsers assigns users to a task. Admin only.
func (s *TaskService) AssignUsers(p Principal, taskID uint64, userIDs []uint64) error {
	if !p.IsAdmin() {
		return ErrPermissionDenied
	}
	if len(userIDs) == 0 {
		return ErrNoUserIDsProvided
	}
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	unique := uniqueUint64(userIDs)
	if err := s.verifyAssignees(unique); err != nil {
		return err
	}

	if err := s.taskRepo.AssignUsers(taskID, unique); err != nil {
		return fmt.Errorf("failed to assign users: %w", err)
	}
	return nil
}

// UnassignUsers removes user assignments from a task. Admin only.
func (s *TaskService) UnassignUsers(p Principal, taskID uint64, userIDs []uint64) error {
	if !p.IsAdmin() {
		return ErrPermissionDenied
	}
	if len(userIDs) == 0 {
		return ErrNoUserIDsProvided
	}
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.UnassignUsers(taskID, uniqueUint64(userIDs)); err != nil {
		return fmt.Errorf("failed to unassign users: %w", err)
	}
	return nil
}

func (s *TaskService) findVisibleTask(p Principal, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !p.IsAdmin() {
		assigned := false
		for _, a := range task.Assignments {
			if a.UserID == p.UserID {
				assigned = true
				break
			}
		}
		if !assigned {
			return nil, ErrTaskNotFound
		}
	}

	return task, nil
}

func (s *TaskService) verifyAssignees(userIDs []uint64) error {
	unique := uniqueUint64(userIDs)
	count, err := s.userRepo.CountByIDs(unique)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(unique) {
		return ErrInvalidAssignee
	}
	return nil
}

// uniqueUint64 removes duplicate values from a slice of uint64.
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))
	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
