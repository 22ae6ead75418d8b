package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const insecureJWTSecret = "change-me-in-production"

// Store backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Store
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"postgres"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"scoreboard"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"scoreboard"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"scoreboard"`

	// JWT and operator login
	JWTSecret            string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTOperatorExpiry    time.Duration `env:"JWT_OPERATOR_EXPIRY" envDefault:"12h"`
	AuthEnabled          bool          `env:"AUTH_ENABLED" envDefault:"true"`
	OperatorPassword     string        `env:"OPERATOR_PASSWORD"`
	OperatorPasswordHash string        `env:"OPERATOR_PASSWORD_HASH"`

	// Server
	APIPort      int           `env:"API_PORT" envDefault:"3100"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`

	// Scoring
	EnforceSetRules bool `env:"ENFORCE_SET_RULES" envDefault:"false"`

	// Guards
	MutationRateLimit  int           `env:"MUTATION_RATE_LIMIT" envDefault:"20"`
	MutationRateWindow time.Duration `env:"MUTATION_RATE_WINDOW" envDefault:"1s"`

	// Uploads
	UploadDir    string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxLogoBytes int64  `env:"MAX_LOGO_BYTES" envDefault:"2097152"`

	// Kafka
	KafkaBrokers       string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopicPrefix   string        `env:"KAFKA_TOPIC_PREFIX" envDefault:"scoreboard"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// Telemetry
	MetricsEnabled  bool   `env:"METRICS_ENABLED" envDefault:"true"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"scoreboard-api"`
	OtlpEndpoint    string `env:"OTLP_ENDPOINT"`
	OtlpInsecure    bool   `env:"OTLP_INSECURE" envDefault:"true"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig loads an optional .env file and parses environment variables into a Config.
// Variables already set in the environment win over the file.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for invalid values and for insecure configuration that must not run
// in production. Set ALLOW_INSECURE_DEFAULTS=true to bypass the security checks (local dev only).
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendPostgres, StoreBackendMemory, c.StoreBackend)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.MaxLogoBytes <= 0 {
		return fmt.Errorf("MAX_LOGO_BYTES must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}

	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == insecureJWTSecret {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	if !c.AuthEnabled {
		return fmt.Errorf("AUTH_ENABLED=false leaves the control surface open; set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if c.OperatorPassword == "" && c.OperatorPasswordHash == "" {
		return fmt.Errorf("one of OPERATOR_PASSWORD or OPERATOR_PASSWORD_HASH is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// Brokers splits KAFKA_BROKERS into addresses.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
