package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/shared/query"
)

type row struct {
	ID   int `gorm:"primarykey"`
	Name string
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: databases are per connection
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&row{}))
	return db
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	gdb := setupTestDB(t)
	tm := NewTransactionManager(gdb)
	ctx := context.Background()

	err := tm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, GetTxFromContext(ctx, gdb).Create(&row{Name: "a"}).Error)
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, gdb.Model(&row{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunInTransaction_Nested(t *testing.T) {
	gdb := setupTestDB(t)
	tm := NewTransactionManager(gdb)

	err := tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return tm.RunInTransaction(ctx, func(ctx context.Context) error {
			return GetTxFromContext(ctx, gdb).Create(&row{Name: "b"}).Error
		})
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, gdb.Model(&row{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPaginateAndOrder(t *testing.T) {
	gdb := setupTestDB(t)
	for _, name := range []string{"c", "a", "d", "b"} {
		require.NoError(t, gdb.Create(&row{Name: name}).Error)
	}

	var rows []row
	err := gdb.Scopes(
		OrderBy(query.SortFilter{SortBy: "name"}),
		Paginate(query.PageFilter{Page: 2, PageSize: 2}),
	).Find(&rows).Error
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "c", rows[0].Name)
	assert.Equal(t, "d", rows[1].Name)
}
