// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aimarket/internal/config"
	"aimarket/internal/middleware"
	"aimarket/internal/models"
	"aimarket/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database connection instance.
var DB *gorm.DB

const (
	slowQueryThreshold = 200 * time.Millisecond

	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// SlogGormLogger integrates GORM with slog and feeds query latency metrics.
type SlogGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// LogMode returns a copy of the logger with the given level applied.
func (l *SlogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.Config.LogLevel = level
	return &clone
}

func (l *SlogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel < logger.Info {
		return
	}
	l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
}

func (l *SlogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel < logger.Warn {
		return
	}
	l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
}

func (l *SlogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel < logger.Error {
		return
	}
	l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
}

// Trace records query latency for metrics and logs the SQL at a level
// determined by outcome: error, slow, or plain info.
func (l *SlogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	observability.ObserveQuery("gorm", begin)

	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	isRealError := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	isSlow := l.Config.SlowThreshold != 0 && elapsed > l.Config.SlowThreshold

	switch {
	case isRealError && l.Config.LogLevel >= logger.Error:
		attrs = append(attrs, slog.String("error", err.Error()))
		l.logger.ErrorContext(ctx, "GORM query error", attrs...)
	case isSlow && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query", attrs...)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query", attrs...)
	}
}

func buildDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, sslMode,
	)
}

func newGormLogger() logger.Interface {
	return &SlogGormLogger{
		logger: middleware.Logger,
		Config: logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	}
}

// Connect opens the PostgreSQL connection, tunes the pool, and in
// non-production environments runs migrations. The returned instance is also
// stored in the package-level DB variable.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dbInstance, err := gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	middleware.Logger.Info("Database connected successfully")

	// Production schema changes go through explicit migrations; AutoMigrate
	// stays on for developer and test ergonomics.
	if !cfg.IsProduction() {
		if err := Migrate(dbInstance); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		middleware.Logger.Info("Database migration completed")
	}

	if sqlDB, err := dbInstance.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
	}

	DB = dbInstance
	return DB, nil
}

// Migrate runs AutoMigrate for every model in dependency order.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.Tag{},
		&models.Project{},
		&models.ProjectImpact{},
		&models.ProjectDeveloper{},
		&models.ProjectLike{},
		&models.ProjectReplication{},
		&models.Demand{},
		&models.DemandFollower{},
		&models.DemandProposal{},
		&models.Tool{},
		&models.ToolReview{},
		&models.Notification{},
	)
}
