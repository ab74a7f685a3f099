package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/core"
)

// SQLAuditLog records triage outcomes in a SQL database
type SQLAuditLog struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLAuditLog opens (and if needed initializes) the audit database.
// Supported drivers: sqlite3, mysql.
func NewSQLAuditLog(driver, dsn string, logger *zap.Logger) (*SQLAuditLog, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS triage_audit (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender TEXT,
			subject TEXT,
			threat_level TEXT,
			score REAL,
			category TEXT,
			action TEXT,
			patterns TEXT,
			message TEXT,
			recorded_at TIMESTAMP
		)
	`
	if driver == "mysql" {
		schema = `
			CREATE TABLE IF NOT EXISTS triage_audit (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				sender VARCHAR(320),
				subject TEXT,
				threat_level VARCHAR(16),
				score FLOAT,
				category VARCHAR(32),
				action VARCHAR(32),
				patterns TEXT,
				message TEXT,
				recorded_at DATETIME
			)
		`
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}

	return &SQLAuditLog{db: db, logger: logger}, nil
}

// Record stores a single triage outcome
func (l *SQLAuditLog) Record(ctx context.Context, entry *core.AuditEntry) error {
	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO triage_audit (sender, subject, threat_level, score, category, action, patterns, message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Sender, entry.Subject, string(entry.ThreatLevel), entry.Score,
		entry.Category, entry.Action, strings.Join(entry.Patterns, ","),
		entry.Message, recordedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Close closes the database connection
func (l *SQLAuditLog) Close() error {
	return l.db.Close()
}

// NopAuditLog discards all entries. Used when auditing is disabled.
type NopAuditLog struct{}

func (NopAuditLog) Record(ctx context.Context, entry *core.AuditEntry) error { return nil }
func (NopAuditLog) Close() error                                             { return nil }
