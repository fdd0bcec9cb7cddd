package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"warbler/internal/config"
	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "warbler",
		DBPassword: "pw",
		DBName:     "warbler_test",
	}
	assert.Equal(t, "host=db port=5432 user=warbler password=pw dbname=warbler_test sslmode=disable", PostgresDSN(cfg))

	cfg.DBSSLMode = "require"
	assert.Contains(t, PostgresDSN(cfg), "sslmode=require")
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db, err := OpenSQLite(":memory:", NewGormLogger(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "messages", "follows", "likes"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestMigrate_EnforcesConstraints(t *testing.T) {
	db, err := OpenSQLite(":memory:", NewGormLogger(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	u := models.User{Username: "testuser", Email: "test@test.com", Password: "hash"}
	require.NoError(t, db.Create(&u).Error)

	dup := models.User{Username: "testuser", Email: "other@test.com", Password: "hash"}
	assert.Error(t, db.Create(&dup).Error, "duplicate username must be rejected")

	orphan := models.Message{Text: "hello", UserID: 999}
	assert.Error(t, db.Create(&orphan).Error, "message owner must exist")

	msg := models.Message{Text: "hello", UserID: u.ID}
	require.NoError(t, db.Create(&msg).Error)
	require.NoError(t, db.Create(&models.Like{UserID: u.ID, MessageID: msg.ID}).Error)
	assert.Error(t, db.Create(&models.Like{UserID: u.ID, MessageID: msg.ID}).Error, "like edge must be unique")

	require.NoError(t, db.Delete(&msg).Error)
	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.Zero(t, likes, "likes cascade with their message")
}

func TestGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger(logger.Warn)
	silent := l.LogMode(logger.Silent).(*GormLogger)

	assert.Equal(t, logger.Silent, silent.Config.LogLevel)
	assert.Equal(t, logger.Warn, l.Config.LogLevel, "LogMode must not mutate the receiver")
	assert.Equal(t, 200*time.Millisecond, l.Config.SlowThreshold)

	// Trace must tolerate every branch without panicking.
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }
	l.Trace(ctx, time.Now(), fc, errors.New("boom"))
	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	silent.Trace(ctx, time.Now(), fc, errors.New("ignored"))
}
