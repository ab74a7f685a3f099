package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/config"
	"github.com/olehk/security-guard/internal/core"
	"github.com/olehk/security-guard/internal/factory"
	"github.com/olehk/security-guard/internal/logging"
	"github.com/olehk/security-guard/internal/ports"
	"github.com/olehk/security-guard/internal/triage"
	"github.com/olehk/security-guard/internal/utils"
	"github.com/olehk/security-guard/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewOracleFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAuditFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register classifier oracle
	if err := container.Provide(func(f *factory.OracleFactory) (core.ClassifierOracle, error) {
		return f.CreateOracle()
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register audit log
	if err := container.Provide(func(f *factory.AuditFactory) (core.AuditLog, error) {
		return f.CreateAuditLog()
	}); err != nil {
		return nil, err
	}

	// Register scoring policy, extended with configured domain lists
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *core.Policy {
		return buildPolicy(cfg, logger)
	}); err != nil {
		return nil, err
	}

	// Register whitelist checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetSecurity().WhitelistedDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register security guard
	if err := container.Provide(core.NewSecurityGuard); err != nil {
		return nil, err
	}
	if err := container.Provide(func(g *core.SecurityGuard) triage.Analyzer {
		return g
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(triage.NewService); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// buildPolicy extends the built-in policy with domains from configuration
func buildPolicy(cfg *config.Config, logger *zap.Logger) *core.Policy {
	policy := core.DefaultPolicy()
	security := cfg.GetSecurity()

	if len(security.ExtraBlacklist) > 0 {
		policy.BlacklistedDomains = append(policy.BlacklistedDomains, security.ExtraBlacklist...)
		logger.Info("Extended domain blacklist",
			zap.Strings("domains", security.ExtraBlacklist))
	}
	if len(security.ExtraSuspiciousDomains) > 0 {
		policy.SuspiciousDomains = append(policy.SuspiciousDomains, security.ExtraSuspiciousDomains...)
		logger.Info("Extended suspicious domain list",
			zap.Strings("domains", security.ExtraSuspiciousDomains))
	}

	return policy
}
