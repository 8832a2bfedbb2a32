package config

import (
	"fmt"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// MinTokenLength is the shortest shared secret the server accepts.
const MinTokenLength = 16

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
// Settings only the HTTP server needs are checked by ValidateServer.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q (got %q)", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if err := c.Queue.validate(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if err := c.Resolver.validate(); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	return nil
}

// ValidateServer checks the settings required to serve the ingestion API.
func (c *Config) ValidateServer() error {
	if len(c.Auth.Token) < MinTokenLength {
		return fmt.Errorf("auth.token must be at least %d characters (got %d)", MinTokenLength, len(c.Auth.Token))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	return nil
}

func (q *QueueConfig) validate() error {
	if q.MaxWordLength <= 0 || q.MaxWordLength > 1000 {
		return fmt.Errorf("max_word_length must be in 1..1000 (got %d)", q.MaxWordLength)
	}
	if q.DeliveredRetentionDays <= 0 {
		return fmt.Errorf("delivered_retention_days must be > 0 (got %d)", q.DeliveredRetentionDays)
	}
	if q.DefaultDeck == "" {
		q.DefaultDeck = domain.DefaultBucket
	}
	if q.DefaultNoteType == "" {
		q.DefaultNoteType = domain.DefaultKind
	}

	lang, err := domain.ParseLanguage(q.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("default_language %q: %w", q.DefaultLanguage, err)
	}
	q.DefaultLanguage = lang

	return nil
}

func (r *ResolverConfig) validate() error {
	if r.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0 (got %d)", r.MaxTokens)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", r.Timeout)
	}
	return nil
}

func (s *SyncConfig) validate() error {
	switch s.Mode {
	case SyncModeFile, SyncModeAPI:
	default:
		return fmt.Errorf("mode must be %q or %q (got %q)", SyncModeFile, SyncModeAPI, s.Mode)
	}
	if s.Mode == SyncModeAPI && s.AnkiConnectURL == "" {
		return fmt.Errorf("anki_connect_url is required in %q mode", SyncModeAPI)
	}
	if s.Mode == SyncModeFile && s.OutputDir == "" {
		return fmt.Errorf("output_dir is required in %q mode", SyncModeFile)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be > 0 (got %v)", s.RequestTimeout)
	}
	return nil
}
