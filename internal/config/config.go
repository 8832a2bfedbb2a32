package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Queue    QueueConfig    `yaml:"queue"`
	Resolver ResolverConfig `yaml:"resolver"`
	Sync     SyncConfig     `yaml:"sync"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// RateLimit caps API requests per client IP per minute. A negative
	// value disables limiting (zero falls back to the default).
	RateLimit int `yaml:"rate_limit" env:"SERVER_RATE_LIMIT" env-default:"60"`
}

// Supported queue store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds queue store connection settings.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"DATABASE_DRIVER"             env-default:"postgres"`
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	Migrate         bool          `yaml:"migrate"            env:"DATABASE_MIGRATE"            env-default:"false"`
}

// AuthConfig holds the shared secret phones send with every request.
type AuthConfig struct {
	Token string `yaml:"token" env:"AUTH_TOKEN"`
}

// QueueConfig holds ingestion defaults and limits.
type QueueConfig struct {
	MaxWordLength   int    `yaml:"max_word_length"   env:"QUEUE_MAX_WORD_LENGTH"   env-default:"200"`
	DefaultDeck     string `yaml:"default_deck"      env:"QUEUE_DEFAULT_DECK"      env-default:"Main"`
	DefaultNoteType string `yaml:"default_note_type" env:"QUEUE_DEFAULT_NOTE_TYPE" env-default:"WordDefinition"`
	DefaultLanguage string `yaml:"default_language"  env:"QUEUE_DEFAULT_LANGUAGE"  env-default:"en"`
	// DeliveredRetentionDays is how long delivered entries are kept before
	// cmd/cleanup removes them.
	DeliveredRetentionDays int `yaml:"delivered_retention_days" env:"QUEUE_DELIVERED_RETENTION_DAYS" env-default:"90"`
}

// ResolverConfig holds settings for the definition provider. An empty
// APIKey disables enrichment.
type ResolverConfig struct {
	APIKey    string        `yaml:"api_key"    env:"RESOLVER_API_KEY"`
	BaseURL   string        `yaml:"base_url"   env:"RESOLVER_BASE_URL"`
	Model     string        `yaml:"model"      env:"RESOLVER_MODEL"      env-default:"claude-3-5-haiku-latest"`
	MaxTokens int64         `yaml:"max_tokens" env:"RESOLVER_MAX_TOKENS" env-default:"200"`
	Timeout   time.Duration `yaml:"timeout"    env:"RESOLVER_TIMEOUT"    env-default:"15s"`
}

// Enabled reports whether a provider key is configured.
func (c ResolverConfig) Enabled() bool {
	return c.APIKey != ""
}

// Sync delivery modes.
const (
	SyncModeFile = "file"
	SyncModeAPI  = "api"
)

// SyncConfig holds sync agent settings.
type SyncConfig struct {
	Mode           string        `yaml:"mode"             env:"SYNC_MODE"            env-default:"api"`
	AnkiConnectURL string        `yaml:"anki_connect_url" env:"ANKI_CONNECT_URL"     env-default:"http://localhost:8765"`
	AnkiConnectKey string        `yaml:"anki_connect_key" env:"ANKI_CONNECT_KEY"`
	RequestTimeout time.Duration `yaml:"request_timeout"  env:"SYNC_REQUEST_TIMEOUT" env-default:"10s"`
	OutputDir      string        `yaml:"output_dir"       env:"SYNC_OUTPUT_DIR"      env-default:"./anki-export"`
	RunTimeout     time.Duration `yaml:"run_timeout"      env:"SYNC_RUN_TIMEOUT"     env-default:"30m"`
	// AllowMissingDefinition delivers entries whose definition lookup
	// failed with an empty back. cleanenv replaces a false bool with its
	// env-default, so this flag is phrased to default to false.
	AllowMissingDefinition bool `yaml:"allow_missing_definition" env:"SYNC_ALLOW_MISSING_DEFINITION"`
}

// RequireDefinition reports whether entries without a definition fail
// delivery.
func (c SyncConfig) RequireDefinition() bool {
	return !c.AllowMissingDefinition
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
