package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/searchtext"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func TestAddIndexes_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, AddIndexes(db))
	// IF NOT EXISTS makes a second run a no-op.
	require.NoError(t, AddIndexes(db))
}

func TestBackfillSearchText(t *testing.T) {
	db := setupTestDB(t)
	builder := searchtext.NewBuilder(searchtext.NewNormalizer(searchtext.DefaultConfig()))

	customer := &models.Customer{Name: "Nguyễn Văn A", Phone: "0901"}
	require.NoError(t, db.Create(customer).Error)
	location := &models.Location{Address: "12 Đường Lê Lợi"}
	require.NoError(t, db.Create(location).Error)

	// Rows written before the derived column existed.
	var taskIDs []uint64
	for i := 0; i < 5; i++ {
		task := &models.Task{
			Title:      fmt.Sprintf("Sửa điều hòa %d", i),
			Status:     models.TaskStatusPreparing,
			CustomerID: &customer.ID,
			LocationID: &location.ID,
		}
		require.NoError(t, db.Create(task).Error)
		taskIDs = append(taskIDs, task.ID)
	}
	require.NoError(t, db.Model(&models.Task{}).Where("1 = 1").Update("search_text", "").Error)
	require.NoError(t, db.Model(&models.Customer{}).Where("1 = 1").Update("search_text", "").Error)
	require.NoError(t, db.Model(&models.Location{}).Where("1 = 1").Update("search_text", "").Error)

	// Batch size below the row count exercises the batching loop.
	require.NoError(t, BackfillSearchText(db, builder, 2))

	var task models.Task
	require.NoError(t, db.First(&task, taskIDs[0]).Error)
	assert.Equal(t,
		fmt.Sprintf("%d sua dieu hoa 0 nguyen van a 0901 12 duong le loi", taskIDs[0]),
		task.SearchText)

	var storedCustomer models.Customer
	require.NoError(t, db.First(&storedCustomer, customer.ID).Error)
	assert.Equal(t, "nguyen van a 0901", storedCustomer.SearchText)

	var storedLocation models.Location
	require.NoError(t, db.First(&storedLocation, location.ID).Error)
	assert.Equal(t, "12 duong le loi", storedLocation.SearchText)

	var pending int64
	require.NoError(t, db.Model(&models.Task{}).Where("search_text = ''").Count(&pending).Error)
	assert.Zero(t, pending)
}

func TestBackfillSearchText_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	builder := searchtext.NewBuilder(searchtext.NewNormalizer(searchtext.DefaultConfig()))

	task := &models.Task{Title: "Buy fan", Status: models.TaskStatusPreparing}
	require.NoError(t, db.Create(task).Error)
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", task.ID).Update("search_text", "").Error)

	require.NoError(t, BackfillSearchText(db, builder, 100))

	var first models.Task
	require.NoError(t, db.First(&first, task.ID).Error)

	require.NoError(t, BackfillSearchText(db, builder, 100))

	var second models.Task
	require.NoError(t, db.First(&second, task.ID).Error)
	assert.Equal(t, first.SearchText, second.SearchText)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestBackfillSearchText_SkipsEmptyReferenceRows(t *testing.T) {
	db := setupTestDB(t)
	builder := searchtext.NewBuilder(searchtext.NewNormalizer(searchtext.DefaultConfig()))

	// A customer with no text content keeps an empty search text; the
	// backfill must still terminate.
	require.NoError(t, db.Create(&models.Customer{}).Error)

	require.NoError(t, BackfillSearchText(db, builder, 10))
}
