// Package migrate applies the Sendwell product schema to the freshly
// provisioned database and bootstraps the administrator account.
package migrate

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sendwell/cloud-setup/domain"
	"github.com/sendwell/cloud-setup/pipeline"
)

//go:embed schema.sql
var schemaSQL string

// sentinelTable is the idempotency probe: its presence means the schema was
// already applied by an earlier run, so migration is a no-op.
const sentinelTable = "schema_migrations"

const schemaVersion = "1"

// Service runs migrations over a gorm connection. The open function is a
// seam: production uses the Postgres driver, tests substitute sqlite.
type Service struct {
	open func(connString string) (*gorm.DB, error)
}

var _ pipeline.Migrator = (*Service)(nil)

// NewService creates a migration service backed by Postgres.
func NewService() *Service {
	return &Service{open: openPostgres}
}

func openPostgres(connString string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(connString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Migrate applies the schema unless the sentinel table already exists.
// Re-running the whole pipeline against an already-migrated database is safe.
func (s *Service) Migrate(ctx context.Context, connString string) (bool, error) {
	db, err := s.open(connString)
	if err != nil {
		return false, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)
	db = db.WithContext(ctx)

	if db.Migrator().HasTable(sentinelTable) {
		slog.Info("Schema already applied, skipping migration",
			"layer", "migrate",
			"operation", "migrate")
		return false, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range statements(schemaSQL) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("statement %q: %w", firstLine(stmt), err)
			}
		}
		return tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			schemaVersion, time.Now().UTC(),
		).Error
	})
	if err != nil {
		return false, fmt.Errorf("migration failed: %w", err)
	}
	return true, nil
}

// BootstrapAdmin creates the administrator account. It is idempotent: an
// existing user with the same email is left untouched.
func (s *Service) BootstrapAdmin(ctx context.Context, connString string, admin domain.AdminConfig) error {
	db, err := s.open(connString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)
	db = db.WithContext(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now().UTC()
	result := db.Exec(
		`INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, 'admin', ?, ?)
		 ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), admin.Email, string(hash), now, now,
	)
	if result.Error != nil {
		return fmt.Errorf("failed to create admin user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		slog.Info("Admin user already exists, leaving untouched",
			"layer", "migrate",
			"operation", "bootstrap_admin",
			"email", admin.Email)
	}
	return nil
}

// statements splits the embedded schema into individual SQL statements.
func statements(sql string) []string {
	var out []string
	for _, raw := range strings.Split(sql, ";") {
		stmt := strings.TrimSpace(stripComments(raw))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func stripComments(stmt string) string {
	var lines []string
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return line
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
