package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 3000.
	Port int `envconfig:"PORT" default:"3000"`

	// DataDir is the root data directory holding the database and logs.
	// Defaults to ~/.pulse-kronos.
	DataDir string `envconfig:"PULSE_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// ControlAPIKey is the bearer token accepted by the /api/control handlers.
	// When empty every control request is rejected.
	ControlAPIKey string `envconfig:"CONTROL_API_KEY"`

	// ControlWebhookEndpoint is the URL of the always-present control subscriber.
	ControlWebhookEndpoint string `envconfig:"CONTROL_WEBHOOK_ENDPOINT"`

	// ControlWebhookSecret, when set, signs payloads sent to the control endpoint.
	ControlWebhookSecret string `envconfig:"CONTROL_WEBHOOK_SECRET"`

	// AuthSecret salts the stored hash of magic sign-in link tokens.
	AuthSecret string `envconfig:"NEXTAUTH_SECRET"`

	// WebsiteURL is the public base URL used to build links.
	WebsiteURL string `envconfig:"WEBSITE_URL" default:"http://localhost:3000"`

	// WebhookTimeout bounds a single webhook delivery. Zero disables the timeout.
	WebhookTimeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"30s"`

	// DeliveryRetention is how long webhook delivery log entries are kept.
	DeliveryRetention time.Duration `envconfig:"WEBHOOK_DELIVERY_RETENTION" default:"720h"`

	// MagicLinkTTL is the validity period of issued magic sign-in links.
	MagicLinkTTL time.Duration `envconfig:"MAGIC_LINK_TTL" default:"10m"`

	// WebhooksFile optionally points at a YAML file of static subscribers.
	WebhooksFile string `envconfig:"WEBHOOKS_FILE"`

	// CORSAllowedOrigins is a comma-separated list of origins allowed to call the booking API.
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// OTLPEndpoint enables OTLP/gRPC export of traces, metrics and logs when set.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SMTP SMTPConfig `envconfig:"SMTP"`
}

// SMTPConfig configures delivery-failure alert e-mails. Variables are read
// with the SMTP_ prefix (SMTP_HOST, SMTP_FROM_ADDR, SMTP_ALERT_RECIPIENTS, ...). Alerts are
// disabled unless both Host and AlertRecipients are set.
type SMTPConfig struct {
	Host            string
	Port            int `default:"587"`
	Username        string
	Password        string
	FromAddr        string `split_words:"true"`
	Encryption      string `default:"starttls"` // "none", "starttls", "ssl_tls"
	AlertRecipients string `split_words:"true"`
}

// Enabled reports whether alert e-mails can be sent.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.AlertRecipients != ""
}

// Load reads AppConfig from environment variables using envconfig.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".pulse-kronos")
	}
	c.WebsiteURL = strings.TrimRight(c.WebsiteURL, "/")

	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory.
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DatabasePath returns the path to the SQLite database file.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "pulse.db")
}

// AllowedOrigins splits CORSAllowedOrigins into a trimmed list.
func (c *AppConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
