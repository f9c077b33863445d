// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework side (ports, TLS, logging level, CORS, body limits); everything
// specific to the task board lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: taskboard-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Realtime board views
	RealtimeBackend   string        // "changestream" or "redis"
	RedisAddr         string        // host:port, used when RealtimeBackend is "redis"
	ReconcileCooldown time.Duration // 0 keeps the default, negative disables
	OptimisticWindow  time.Duration // how long unconfirmed local tasks stay on screen
	ViewClientWidth   int           // assumed viewport width for scroll clamping
	ViewIdleTimeout   time.Duration // views with no stream or action for this long are released
	ViewTokenKey      string        // signs the per-view stream token; falls back to SessionKey

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string // From email address (e.g., noreply@taskboard.local)
	MailFromName string // From display name

	// Base URL for links in outgoing mail.
	BaseURL string // e.g., "https://boards.example.com" or "http://localhost:3000"
}

// Realtime backends.
const (
	BackendChangeStream = "changestream"
	BackendRedis        = "redis"
)
