package repository

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hqvuong/work-order-api/internal/searchtext"
)

func newMockRepo(t *testing.T) (TaskRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	builder := searchtext.NewBuilder(searchtext.NewNormalizer(searchtext.DefaultConfig()))
	return NewTaskRepository(db, builder), mock
}

func TestSearch_StorageErrorPropagates(t *testing.T) {
	repo, mock := newMockRepo(t)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`SELECT .* FROM "tasks"`).WillReturnError(dbErr)

	tasks, err := repo.Search(TaskFilter{SearchText: "buy fan"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Nil(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshSearchTextByCustomer_StorageErrorPropagates(t *testing.T) {
	repo, mock := newMockRepo(t)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`SELECT .* FROM "tasks"`).WillReturnError(dbErr)

	err := repo.RefreshSearchTextByCustomer(1, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
