package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/searchtext"
	"github.com/hqvuong/work-order-api/internal/utils"
)

// GormTaskRepository is a GORM implementation of TaskRepository.
type GormTaskRepository struct {
	db      *gorm.DB
	builder *searchtext.Builder
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB, builder *searchtext.Builder) TaskRepository {
	return &GormTaskRepository{db: db, builder: builder}
}

// Search builds the predicate from the filter and executes it. Clauses are
// appended only for fields that are set.
func (r *GormTaskRepository) Search(filter TaskFilter) ([]models.Task, error) {
	query := r.buildQuery(r.db, filter)

	sortBy := filter.SortBy
	if !ValidSortBy(sortBy) {
		sortBy = SortByCreatedAt
	}
	if filter.Cursor != nil {
		query = applyCursor(query, sortBy, filter.SortDesc, filter.Cursor)
	}
	query = query.Order(orderClause(sortBy, filter.SortDesc))

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var tasks []models.Task
	err := query.
		Preload("Customer").
		Preload("Location").
		Preload("Assignments").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *GormTaskRepository) buildQuery(db *gorm.DB, filter TaskFilter) *gorm.DB {
	query := db.Model(&models.Task{})

	if filter.SearchText != "" {
		pattern := "%" + escapeLike(filter.SearchText) + "%"
		if filter.SearchID != nil {
			query = query.Where("(tasks.search_text LIKE ? ESCAPE '\\' OR tasks.id = ?)", pattern, *filter.SearchID)
		} else {
			query = query.Where("tasks.search_text LIKE ? ESCAPE '\\'", pattern)
		}
	}

	if len(filter.Statuses) > 0 {
		query = query.Where("tasks.status IN ?", filter.Statuses)
	}
	if filter.CustomerID != nil {
		query = query.Where("tasks.customer_id = ?", *filter.CustomerID)
	}

	if len(filter.AssigneeIDs) > 0 {
		sub := db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id IN ?", filter.AssigneeIDs).
			Where("task_assignments.deleted_at IS NULL")
		query = query.Where("EXISTS (?)", sub)
	}
	if filter.MustAssignedTo != nil {
		sub := db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.MustAssignedTo).
			Where("task_assignments.deleted_at IS NULL")
		query = query.Where("EXISTS (?)", sub)
	}

	if filter.ScheduledFrom != nil {
		query = query.Where("tasks.scheduled_at >= ?", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		query = query.Where("tasks.scheduled_at <= ?", *filter.ScheduledTo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("tasks.created_at <= ?", *filter.CreatedTo)
	}
	if filter.CompletedFrom != nil {
		query = query.Where("tasks.completed_at >= ?", *filter.CompletedFrom)
	}
	if filter.CompletedTo != nil {
		query = query.Where("tasks.completed_at <= ?", *filter.CompletedTo)
	}

	return query
}

// nullableSortColumn reports whether the sort column allows NULL. NULL rows
// always sort last, in both directions.
func nullableSortColumn(sortBy string) bool {
	return sortBy == SortByScheduledAt || sortBy == SortByCompletedAt
}

func orderClause(sortBy string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if sortBy == SortByID {
		return "tasks.id " + dir
	}
	col := "tasks." + sortBy
	if nullableSortColumn(sortBy) {
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN 1 ELSE 0 END, %s %s, tasks.id %s", col, col, dir, dir)
	}
	return fmt.Sprintf("%s %s, tasks.id %s", col, dir, dir)
}

// applyCursor adds the keyset continuation clause. Ties on the sort column
// are broken by id, so the (sort value, id) pair is a total order and no
// row can repeat across pages.
func applyCursor(query *gorm.DB, sortBy string, desc bool, c *utils.Cursor) *gorm.DB {
	op := ">"
	if desc {
		op = "<"
	}

	if sortBy == SortByID {
		return query.Where(fmt.Sprintf("tasks.id %s ?", op), c.ID)
	}

	col := "tasks." + sortBy
	if c.SortValue == nil {
		// The previous page ended inside the NULL tail of the sort column.
		return query.Where(fmt.Sprintf("%s IS NULL AND tasks.id %s ?", col, op), c.ID)
	}
	if nullableSortColumn(sortBy) {
		return query.Where(
			fmt.Sprintf("(%s %s ? OR (%s = ? AND tasks.id %s ?) OR %s IS NULL)", col, op, col, op, col),
			*c.SortValue, *c.SortValue, c.ID,
		)
	}
	return query.Where(
		fmt.Sprintf("(%s %s ? OR (%s = ? AND tasks.id %s ?))", col, op, col, op),
		*c.SortValue, *c.SortValue, c.ID,
	)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create persists the task and its derived search text in one transaction,
// so a reader never observes the task without it.
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return r.refreshSearchText(tx, task)
	})
}

// FindByID finds a task by id with optional preloading.
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

// Update persists the task and recomputes its search text in one transaction.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return err
		}
		return r.refreshSearchText(tx, task)
	})
}

// Delete soft deletes a task together with its assignments.
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}

// AssignUsers assigns multiple users to a task, reviving previously
// soft-deleted assignment rows.
func (r *GormTaskRepository) AssignUsers(taskID uint64, userIDs []uint64) error {
	assignments := make([]models.TaskAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID: taskID,
			UserID: userID,
		}
	}

	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
		}).
		Create(&assignments).Error
}

// UnassignUsers removes user assignments from a task.
func (r *GormTaskRepository) UnassignUsers(taskID uint64, userIDs []uint64) error {
	return r.db.Where("task_id = ? AND user_id IN ?", taskID, userIDs).
		Delete(&models.TaskAssignment{}).Error
}

// RefreshSearchTextByCustomer recomputes the search text of every task
// referencing the customer. Batches advance by task id and each batch runs
// in its own transaction, so a partial failure leaves earlier batches
// committed and the rest stale but never corrupted.
func (r *GormTaskRepository) RefreshSearchTextByCustomer(customerID uint64, batchSize int) error {
	return r.refreshByReference("customer_id", customerID, batchSize)
}

// RefreshSearchTextByLocation recomputes the search text of every task
// referencing the location.
func (r *GormTaskRepository) RefreshSearchTextByLocation(locationID uint64, batchSize int) error {
	return r.refreshByReference("location_id", locationID, batchSize)
}

func (r *GormTaskRepository) refreshByReference(column string, refID uint64, batchSize int) error {
	lastID := uint64(0)
	for {
		var tasks []models.Task
		err := r.db.
			Preload("Customer").
			Preload("Location").
			Where(fmt.Sprintf("tasks.%s = ? AND tasks.id > ?", column), refID, lastID).
			Order("tasks.id ASC").
			Limit(batchSize).
			Find(&tasks).Error
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}

		err = r.db.Transaction(func(tx *gorm.DB) error {
			for i := range tasks {
				text := r.builder.TaskText(&tasks[i], tasks[i].Customer, tasks[i].Location)
				if err := tx.Model(&models.Task{}).Where("id = ?", tasks[i].ID).
					Update("search_text", text).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		lastID = tasks[len(tasks)-1].ID
		if len(tasks) < batchSize {
			return nil
		}
	}
}

func (r *GormTaskRepository) refreshSearchText(tx *gorm.DB, task *models.Task) error {
	var customer *models.Customer
	if task.CustomerID != nil {
		var c models.Customer
		if err := tx.First(&c, *task.CustomerID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		} else {
			customer = &c
		}
	}

	var location *models.Location
	if task.LocationID != nil {
		var l models.Location
		if err := tx.First(&l, *task.LocationID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		} else {
			location = &l
		}
	}

	text := r.builder.TaskText(task, customer, location)
	if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).
		Update("search_text", text).Error; err != nil {
		return err
	}
	task.SearchText = text
	return nil
}
