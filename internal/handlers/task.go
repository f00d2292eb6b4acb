package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hqvuong/work-order-api/internal/dto"
	apierrors "github.com/hqvuong/work-order-api/internal/errors"
	"github.com/hqvuong/work-order-api/internal/middleware"
	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/services"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// SearchTasks resolves a multi-criteria search request into one page of
// tasks visible to the caller.
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	input := services.SearchTasksInput{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Cursor:    c.Query("cursor"),
	}

	input.Statuses = splitParam(c.QueryArray("status"))

	for _, raw := range splitParam(c.QueryArray("assignee_ids")) {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee_ids")
			return
		}
		input.AssigneeIDs = append(input.AssigneeIDs, id)
	}

	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid customer_id")
			return
		}
		input.CustomerID = &id
	}

	timeParams := []struct {
		name string
		dst  **time.Time
	}{
		{"scheduled_from", &input.ScheduledFrom},
		{"scheduled_to", &input.ScheduledTo},
		{"created_from", &input.CreatedFrom},
		{"created_to", &input.CreatedTo},
		{"completed_from", &input.CompletedFrom},
		{"completed_to", &input.CompletedTo},
	}
	for _, param := range timeParams {
		raw := c.Query(param.name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid "+param.name)
			return
		}
		*param.dst = &parsed
	}

	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid page_size")
			return
		}
		input.PageSize = size
	}
	if raw := c.Query("restrict_to_mine"); raw != "" {
		restrict, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid restrict_to_mine")
			return
		}
		input.RestrictToMine = restrict
	}

	result, err := h.taskService.SearchTasks(principal, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskSearchResponse(result.Tasks, result.NextCursor, result.HasNextPage))
}

// GetTask returns a specific task by id.
func (h *TaskHandler) GetTask(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(principal, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		Status      string     `json:"status"`
		CustomerID  *uint64    `json:"customer_id"`
		LocationID  *uint64    `json:"location_id"`
		ScheduledAt *time.Time `json:"scheduled_at"`
		AssigneeIDs []uint64   `json:"assignee_ids"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(principal, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		CustomerID:  req.CustomerID,
		LocationID:  req.LocationID,
		ScheduledAt: req.ScheduledAt,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	// Raw JSON is parsed so that provided-but-null fields can be told
	// apart from absent ones.
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.UpdateTaskInput
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
	if v, present := raw["customer_id"]; present {
		if v == nil {
			input.ClearCustomer = true
		} else if f, ok := v.(float64); ok && f >= 0 {
			id := uint64(f)
			input.CustomerID = &id
		}
	}
	if v, present := raw["location_id"]; present {
		if v == nil {
			input.ClearLocation = true
		} else if f, ok := v.(float64); ok && f >= 0 {
			id := uint64(f)
			input.LocationID = &id
		}
	}
	if v, present := raw["scheduled_at"]; present {
		if v == nil {
			input.ClearSchedule = true
		} else if s, ok := v.(string); ok {
			parsed, err := time.Parse(time.RFC3339, s)
			if err != nil {
				apierrors.BadRequest(c, "Invalid scheduled_at")
				return
			}
			input.ScheduledAt = &parsed
		}
	}

	task, err := h.taskService.UpdateTask(principal, taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(principal, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// AssignTask assigns users to a task.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	h.changeAssignments(c, true)
}

// UnassignTask removes user assignments from a task.
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	h.changeAssignments(c, false)
}

func (h *TaskHandler) changeAssignments(c *gin.Context, assign bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type AssignUsersRequest struct {
		UserIDs []uint64 `json:"user_ids" binding:"required"`
	}

	var req AssignUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if assign {
		err = h.taskService.AssignUsers(principal, taskID, req.UserIDs)
	} else {
		err = h.taskService.UnassignUsers(principal, taskID, req.UserIDs)
	}
	if err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.taskService.GetTask(principal, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

func parseID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// splitParam accepts both repeated query params and comma separated lists.
func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrLocationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidSort),
		errors.Is(err, services.ErrInvalidPageSize),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrInvalidCursor),
		errors.Is(err, services.ErrNoUserIDsProvided),
		errors.Is(err, services.ErrInvalidAssignee):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
