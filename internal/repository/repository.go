package repository

import (
	"time"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/utils"
)

// Sort column keys accepted by TaskFilter.SortBy.
const (
	SortByID          = "id"
	SortByCreatedAt   = "created_at"
	SortByUpdatedAt   = "updated_at"
	SortByScheduledAt = "scheduled_at"
	SortByCompletedAt = "completed_at"
)

// ValidSortBy reports whether the key names a sortable column.
func ValidSortBy(key string) bool {
	switch key {
	case SortByID, SortByCreatedAt, SortByUpdatedAt, SortByScheduledAt, SortByCompletedAt:
		return true
	}
	return false
}

// TaskFilter holds the predicate inputs for searching tasks. Every zero
// field contributes nothing to the query: a clause is only built from a
// field that is set, so absent inputs shrink the predicate instead of
// populating it with placeholder comparisons.
type TaskFilter struct {
	// SearchText is the pre-normalized free-text query. SearchID is set
	// only when the raw query parses as a task id; it widens the text
	// clause into (search_text LIKE … OR id = …).
	SearchText string
	SearchID   *uint64

	Statuses   []models.TaskStatus
	CustomerID *uint64

	// AssigneeIDs matches tasks whose assignee set intersects the given
	// set. MustAssignedTo is the access-control constraint and is always
	// ANDed on top of everything else.
	AssigneeIDs    []uint64
	MustAssignedTo *uint64

	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CompletedFrom *time.Time
	CompletedTo   *time.Time

	SortBy   string
	SortDesc bool
	Cursor   *utils.Cursor

	// Limit is the raw fetch limit; callers pass pageSize+1 to detect
	// continuation.
	Limit int
}

// TaskRepository defines the data access surface for tasks.
type TaskRepository interface {
	// Search executes the filter and returns up to filter.Limit tasks in
	// cursor order with customer and location preloaded.
	Search(filter TaskFilter) ([]models.Task, error)

	// Create persists a task and its derived search text in one transaction.
	Create(task *models.Task) error

	// FindByID finds a task by id with optional preloading.
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// Update persists a task and recomputes its search text in one transaction.
	Update(task *models.Task) error

	// Delete soft deletes a task and its assignments.
	Delete(id uint64) error

	// AssignUsers assigns users to a task, reviving soft-deleted rows.
	AssignUsers(taskID uint64, userIDs []uint64) error

	// UnassignUsers removes user assignments from a task.
	UnassignUsers(taskID uint64, userIDs []uint64) error

	// RefreshSearchTextByCustomer recomputes the search text of every task
	// referencing the customer, in batches of batchSize.
	RefreshSearchTextByCustomer(customerID uint64, batchSize int) error

	// RefreshSearchTextByLocation recomputes the search text of every task
	// referencing the location, in batches of batchSize.
	RefreshSearchTextByLocation(locationID uint64, batchSize int) error
}

// CustomerRepository defines the data access surface for customers.
type CustomerRepository interface {
	Create(customer *models.Customer) error
	FindByID(id uint64) (*models.Customer, error)
	Update(customer *models.Customer) error
}

// LocationRepository defines the data access surface for locations.
type LocationRepository interface {
	Create(location *models.Location) error
	FindByID(id uint64) (*models.Location, error)
	Update(location *models.Location) error
}

// UserRepository defines the data access surface for users.
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint64) (*models.User, error)
	FindByUsername(username string) (*models.User, error)

	// CountByIDs counts how many of the given user ids exist.
	CountByIDs(userIDs []uint64) (int64, error)
}
