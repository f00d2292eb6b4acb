package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/searchtext"
)

// AddIndexes creates the index set backing task search: composite
// (status, sort column) indexes for filtered sorts, foreign-key and
// assignment indexes, and trigram indexes on the derived search-text
// columns. Trigram indexes need pg_trgm and are only created on Postgres.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		name    string
		table   string
		columns string
	}{
		// Filter + sort pairs
		{"idx_tasks_status_created_at", "tasks", "status, created_at"},
		{"idx_tasks_status_scheduled_at", "tasks", "status, scheduled_at"},
		{"idx_tasks_status_completed_at", "tasks", "status, completed_at"},

		// Sort columns on their own
		{"idx_tasks_created_at", "tasks", "created_at"},
		{"idx_tasks_scheduled_at", "tasks", "scheduled_at"},
		{"idx_tasks_completed_at", "tasks", "completed_at"},

		// Assignment lookups (visibility scoping + assignee filter)
		{"idx_task_assignments_task_id", "task_assignments", "task_id"},
		{"idx_task_assignments_user_id", "task_assignments", "user_id"},
	}

	for _, idx := range indexes {
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		return fmt.Errorf("failed to create pg_trgm extension: %w", err)
	}

	trigramIndexes := []struct {
		name  string
		table string
	}{
		{"idx_tasks_search_text_trgm", "tasks"},
		{"idx_customers_search_text_trgm", "customers"},
		{"idx_locations_search_text_trgm", "locations"},
	}

	for _, idx := range trigramIndexes {
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING gin (search_text gin_trgm_ops)", idx.name, idx.table)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// BackfillSearchText populates the derived search-text columns for rows
// created before the columns existed. It is idempotent: only rows with an
// empty search text are touched, so re-running it is safe.
func BackfillSearchText(db *gorm.DB, builder *searchtext.Builder, batchSize int) error {
	if err := backfillCustomers(db, builder, batchSize); err != nil {
		return err
	}
	if err := backfillLocations(db, builder, batchSize); err != nil {
		return err
	}
	return backfillTasks(db, builder, batchSize)
}

func backfillTasks(db *gorm.DB, builder *searchtext.Builder, batchSize int) error {
	for {
		var tasks []models.Task
		err := db.Preload("Customer").Preload("Location").
			Where("search_text IS NULL OR search_text = ''").
			Order("id ASC").
			Limit(batchSize).
			Find(&tasks).Error
		if err != nil {
			return fmt.Errorf("failed to load tasks for backfill: %w", err)
		}
		if len(tasks) == 0 {
			return nil
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			for i := range tasks {
				text := builder.TaskText(&tasks[i], tasks[i].Customer, tasks[i].Location)
				if err := tx.Model(&models.Task{}).Where("id = ?", tasks[i].ID).
					Update("search_text", text).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to backfill task search text: %w", err)
		}
	}
}

func backfillCustomers(db *gorm.DB, builder *searchtext.Builder, batchSize int) error {
	// Advance by id: a customer with no text fields keeps an empty search
	// text and would otherwise be selected forever.
	lastID := uint64(0)
	for {
		var customers []models.Customer
		err := db.Where("(search_text IS NULL OR search_text = '') AND id > ?", lastID).
			Order("id ASC").
			Limit(batchSize).
			Find(&customers).Error
		if err != nil {
			return fmt.Errorf("failed to load customers for backfill: %w", err)
		}
		if len(customers) == 0 {
			return nil
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			for i := range customers {
				text := builder.CustomerText(&customers[i])
				if err := tx.Model(&models.Customer{}).Where("id = ?", customers[i].ID).
					Update("search_text", text).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to backfill customer search text: %w", err)
		}
		lastID = customers[len(customers)-1].ID
	}
}

func backfillLocations(db *gorm.DB, builder *searchtext.Builder, batchSize int) error {
	lastID := uint64(0)
	for {
		var locations []models.Location
		err := db.Where("(search_text IS NULL OR search_text = '') AND id > ?", lastID).
			Order("id ASC").
			Limit(batchSize).
			Find(&locations).Error
		if err != nil {
			return fmt.Errorf("failed to load locations for backfill: %w", err)
		}
		if len(locations) == 0 {
			return nil
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			for i := range locations {
				text := builder.LocationText(&locations[i])
				if err := tx.Model(&models.Location{}).Where("id = ?", locations[i].ID).
					Update("search_text", text).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to backfill location search text: %w", err)
		}
		lastID = locations[len(locations)-1].ID
	}
}
