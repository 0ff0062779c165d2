// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Eventra.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, token_secret, etc.
//   - Environment variables: EVENTRA_MONGO_URI, EVENTRA_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "eventra", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer-token configuration
	{Name: "token_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Bearer-token signing secret (must be strong in production)"},
	{Name: "token_ttl", Default: "24h", Desc: "Bearer-token lifetime (e.g., 24h, 8h)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@eventra.app", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Eventra", Desc: "From display name"},

	{Name: "site_name", Default: "Eventra", Desc: "Site name shown in emails"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the seeded admin account (created on startup)"},
	{Name: "admin_name", Default: "Administrator", Desc: "Display name of the seeded admin account"},
	{Name: "admin_password", Default: "", Desc: "Password of the seeded admin account (only used at creation)"},

	// Background work
	{Name: "notify_queue_size", Default: 256, Desc: "Bounded queue size for outgoing email"},
	{Name: "counter_audit_interval", Default: "10m", Desc: "How often to audit registration counters (e.g., 10m, 1h)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, EVENTRA_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "EVENTRA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", 24*time.Hour),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		SiteName: appValues.String("site_name"),

		// Admin bootstrap
		AdminEmail:    appValues.String("admin_email"),
		AdminName:     appValues.String("admin_name"),
		AdminPassword: appValues.String("admin_password"),

		// Background work
		NotifyQueueSize:      appValues.Int("notify_queue_size"),
		CounterAuditInterval: appValues.Duration("counter_audit_interval", 10*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
//
// Eventra validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and requires that the
// admin seed is either fully specified or absent.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.TokenSecret == "" {
		return fmt.Errorf("token_secret must be set")
	}

	// Seeding with an email but no password would create an account
	// nobody can log into.
	if (appCfg.AdminEmail == "") != (appCfg.AdminPassword == "") {
		return fmt.Errorf("admin_email and admin_password must be set together")
	}

	return nil
}
