package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBConfig holds configuration options for database initialization
type DBConfig struct {
	// Path specifies the database file path. Use ":memory:" for an in-memory database
	Path string
	// LogLevel specifies the GORM logging level
	LogLevel logger.LogLevel
}

// InitDB opens (or creates) the audit database under dataDir and runs
// auto-migration for all models.
func InitDB(dataDir string) (*gorm.DB, error) {
	dbPath := filepath.Join(dataDir, "sendwell-setup.db")
	slog.Debug("Initializing audit database", "path", dbPath)

	database, err := InitDatabase(DBConfig{
		Path:     dbPath,
		LogLevel: getGormLogLevel(),
	})
	if err != nil {
		return nil, err
	}

	if err := AutoMigrateAll(database); err != nil {
		return nil, fmt.Errorf("failed to migrate audit database: %w", err)
	}

	slog.Debug("Audit database initialized successfully", "path", dbPath)
	return database, nil
}

// InitDatabase creates and configures a SQLite database with the given configuration.
// The caller is responsible for running migrations after getting the DB instance.
func InitDatabase(config DBConfig) (*gorm.DB, error) {
	var dsn string

	if config.Path == ":memory:" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create data directory", "dir", dir, "error", err)
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = config.Path
	}

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(config.LogLevel),
	})
	if err != nil {
		slog.Error("Failed to connect to database", "dsn", dsn, "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := "PRAGMA foreign_keys = ON;"
	if config.Path != ":memory:" {
		pragmas += `
		PRAGMA journal_mode  = WAL;
		PRAGMA synchronous   = NORMAL;
		PRAGMA cache_size    = 2000;`
	}

	if err := database.Exec(pragmas).Error; err != nil {
		slog.Error("Failed to configure database", "error", err)
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return database, nil
}

// AutoMigrateAll runs auto-migration for all application models.
func AutoMigrateAll(database *gorm.DB) error {
	return database.AutoMigrate(AllModels()...)
}

// getGormLogLevel maps the application log level to the corresponding GORM log level
func getGormLogLevel() logger.LogLevel {
	log := slog.Default()

	switch {
	case log.Enabled(context.TODO(), slog.LevelDebug):
		return logger.Info // Show SQL queries only when debug logging is enabled
	case log.Enabled(context.TODO(), slog.LevelInfo), log.Enabled(context.TODO(), slog.LevelWarn):
		return logger.Warn
	case log.Enabled(context.TODO(), slog.LevelError):
		return logger.Error
	default:
		return logger.Silent
	}
}
