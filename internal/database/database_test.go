package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAdminDSN(t *testing.T) {
	admin, name, ok := adminDSN("postgres://u:p@db:5432/vitrina?sslmode=disable")
	require.True(t, ok)
	assert.Equal(t, "vitrina", name)
	assert.Equal(t, "postgres://u:p@db:5432/postgres?sslmode=disable", admin)

	_, _, ok = adminDSN("postgresql://u:p@db/postgres")
	assert.False(t, ok)
	_, _, ok = adminDSN("postgres://u:p@db")
	assert.False(t, ok)
	_, _, ok = adminDSN("host=db user=u dbname=vitrina")
	assert.False(t, ok)
}

func TestMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "products", "banners", "partners", "advertisements", "blogs", "stored_cards", "orders"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
