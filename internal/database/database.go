// Package database opens the SQL store behind the sqlite and postgres
// persistence drivers.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"bitsconnect/internal/config"
	"bitsconnect/internal/models"
	"bitsconnect/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QueryLogger routes GORM statements to slog and records their latency.
// Failed statements log at error, slow ones at warn, the rest only when the
// level is raised to Info.
type QueryLogger struct {
	out   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewQueryLogger returns a QueryLogger at warn level with a 200ms slow
// threshold.
func NewQueryLogger(out *slog.Logger) *QueryLogger {
	return &QueryLogger{out: out, level: logger.Warn, slow: 200 * time.Millisecond}
}

func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *QueryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (l *QueryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, data)
}

func (l *QueryLogger) printf(ctx context.Context, need logger.LogLevel, lvl slog.Level, msg string, data []interface{}) {
	if l.level >= need {
		l.out.Log(ctx, lvl, fmt.Sprintf(msg, data...))
	}
}

func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	observability.DBQueryDuration.WithLabelValues(strconv.FormatBool(failed)).Observe(elapsed.Seconds())
	if l.level <= logger.Silent {
		return
	}

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case failed && l.level >= logger.Error:
		lvl, msg = slog.LevelError, "sql statement failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "slow sql statement"
	case l.level >= logger.Info:
		lvl, msg = slog.LevelInfo, "sql statement"
	default:
		return
	}

	stmt, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", stmt),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if failed {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.out.LogAttrs(ctx, lvl, msg, attrs...)
}

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// Dialector picks the GORM driver for the configured persistence driver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.PersistenceDriver {
	case config.DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "bitsconnect.db"
		}
		return sqlite.Open(path), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.PostgresDSN()), nil
	default:
		return nil, fmt.Errorf("driver %q has no SQL database", cfg.PersistenceDriver)
	}
}

// Connect opens the SQL database named by cfg and migrates its tables.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return Open(dialector, cfg.PersistenceDriver == config.DriverSQLite)
}

// Open connects through dialector, migrates, and sizes the pool. SQLite gets
// a single connection so in-memory databases stay shared.
func Open(dialector gorm.Dialector, singleConn bool) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewQueryLogger(observability.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if singleConn {
		pool.SetMaxOpenConns(1)
	} else {
		pool.SetMaxOpenConns(maxOpenConns)
		pool.SetMaxIdleConns(maxIdleConns)
		pool.SetConnMaxLifetime(connMaxLifetime)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	observability.Logger.Info("Database connected successfully", slog.String("dialect", dialector.Name()))
	return db, nil
}

// Migrate creates the credential and snapshot tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Credential{}, &models.CollectionSnapshot{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
