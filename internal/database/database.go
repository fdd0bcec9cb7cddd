// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"warbler/internal/config"
	"warbler/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogger sends GORM's output through the application's slog logger so
// query logs carry the request id and session user of the calling request.
type GormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// NewGormLogger returns a GormLogger at level. Queries slower than 200ms are
// logged as warnings; missing rows are never logged as errors.
func NewGormLogger(level logger.LogLevel) *GormLogger {
	return &GormLogger{
		logger: middleware.Logger,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	}
}

// LogMode returns a copy of the logger at level.
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.Config.LogLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.logf(ctx, logger.Info, slog.LevelInfo, msg, data...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.logf(ctx, logger.Warn, slog.LevelWarn, msg, data...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.logf(ctx, logger.Error, slog.LevelError, msg, data...)
}

func (l *GormLogger) logf(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, data ...interface{}) {
	if l.Config.LogLevel >= min {
		l.logger.Log(ctx, level, fmt.Sprintf(msg, data...))
	}
}

// Trace is called after every statement.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	level := l.Config.LogLevel
	if level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !(l.Config.IgnoreRecordNotFoundError && errors.Is(err, gorm.ErrRecordNotFound))
	slow := l.Config.SlowThreshold > 0 && elapsed > l.Config.SlowThreshold

	var (
		msg     string
		slogLvl slog.Level
		withErr bool
	)
	switch {
	case failed && level >= logger.Error:
		msg, slogLvl, withErr = "query failed", slog.LevelError, true
	case slow && level >= logger.Warn:
		msg, slogLvl = "slow query", slog.LevelWarn
	case level >= logger.Info:
		msg, slogLvl = "query", slog.LevelInfo
	default:
		return
	}

	sql, rows := fc()
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if withErr {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.logger.Log(ctx, slogLvl, msg, attrs...)
}

// PostgresDSN builds the libpq connection string for cfg.
func PostgresDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)
}

// OpenSQLite opens a SQLite database with foreign keys enforced. path may be ":memory:";
// an in-memory database is pinned to a single connection so every query sees the same data.
func OpenSQLite(path string, gormLogger logger.Interface) (*gorm.DB, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if strings.Contains(path, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Connect opens the configured database, migrates it outside production and returns the gorm DB instance.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := NewGormLogger(logger.Warn)

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		db, err = OpenSQLite(cfg.DBPath, gormLogger)
	default:
		db, err = gorm.Open(postgres.Open(PostgresDSN(cfg)), &gorm.Config{Logger: gormLogger})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	middleware.Logger.Info("Database connected successfully", slog.String("driver", cfg.DBDriver))

	if !cfg.IsProduction() {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		middleware.Logger.Info("Database migration completed")
	}

	if cfg.DBDriver != "sqlite" {
		if err := configurePool(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func configurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return nil
}
