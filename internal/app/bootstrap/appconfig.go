// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to Eventra lives: the MongoDB
// connection, the bearer-token secret, SMTP delivery, and the seeded
// admin account.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer-token configuration
	TokenSecret string        // HMAC signing secret (must be strong in production)
	TokenTTL    time.Duration // How long issued tokens stay valid

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit, SES SMTP credentials for AWS)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@eventra.app)
	MailFromName string // From display name (e.g., Eventra)

	// SiteName appears in email subjects and bodies.
	SiteName string

	// Seeded admin account, created idempotently at startup.
	AdminEmail    string
	AdminName     string
	AdminPassword string

	// Background work
	NotifyQueueSize      int           // Bounded queue for outgoing email
	CounterAuditInterval time.Duration // How often to audit registration counters
}
