package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/models"
)

// Connect opens the database, creating it first when missing, and runs migrations.
func Connect(ctx context.Context, dsn string, level zerolog.Level, logg *logger.Logger) (*gorm.DB, error) {
	created, err := ensureDatabase(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}
	if created {
		logg.Info(ctx, "database created")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLevel(level)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := conn.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "failed to ensure uuid-ossp extension")
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	logg.Info(ctx, "database ready")
	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	for _, migration := range models.All() {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}
	return nil
}

func gormLevel(level zerolog.Level) gormlogger.LogLevel {
	switch {
	case level <= zerolog.DebugLevel:
		return gormlogger.Info
	case level == zerolog.InfoLevel, level == zerolog.WarnLevel:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

// ensureDatabase creates the target database through the server's maintenance
// database. It reports whether the database had to be created.
func ensureDatabase(ctx context.Context, dsn string) (bool, error) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return false, nil
	}
	target, err := url.Parse(dsn)
	if err != nil {
		return false, fmt.Errorf("parse dsn: %w", err)
	}
	name := strings.TrimPrefix(target.Path, "/")
	if name == "" {
		return false, nil
	}

	maintenance := *target
	maintenance.Path = "/postgres"
	admin, err := sql.Open("postgres", maintenance.String())
	if err != nil {
		return false, err
	}
	defer admin.Close()

	var found int
	err = admin.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", name).Scan(&found)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("lookup database %s: %w", name, err)
	}

	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return false, fmt.Errorf("create database %s: %w", name, err)
	}
	return true, nil
}
