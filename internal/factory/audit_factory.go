package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/audit"
	"github.com/olehk/security-guard/internal/config"
	"github.com/olehk/security-guard/internal/core"
)

// AuditFactory creates audit logs based on configuration
type AuditFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAuditFactory creates a new audit factory
func NewAuditFactory(cfg *config.Config, logger *zap.Logger) *AuditFactory {
	return &AuditFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAuditLog creates an audit log based on the configuration
func (f *AuditFactory) CreateAuditLog() (core.AuditLog, error) {
	auditCfg := f.cfg.GetAudit()
	if !auditCfg.Enabled {
		return audit.NopAuditLog{}, nil
	}

	switch auditCfg.Driver {
	case "sqlite3":
		if err := os.MkdirAll(filepath.Dir(auditCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
		return audit.NewSQLAuditLog("sqlite3", auditCfg.SQLitePath, f.logger)
	case "mysql":
		return audit.NewSQLAuditLog("mysql", auditCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported audit driver: %s", auditCfg.Driver)
	}
}
