package repository

import (
	"testing"

	"warbler/internal/database"
	"warbler/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a migrated in-memory database for behavioural tests.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", database.NewGormLogger(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@test.com", Password: "HASHED_PASSWORD"}
	u.ApplyImageDefaults()
	require.NoError(t, db.Create(u).Error)
	return u
}

func createMessage(t *testing.T, db *gorm.DB, owner uint, text string) *models.Message {
	t.Helper()
	m := &models.Message{Text: text, UserID: owner}
	require.NoError(t, db.Create(m).Error)
	return m
}
