package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/wordqueue/internal/adapter/postgres"
	pgqueue "github.com/heartmarshall/wordqueue/internal/adapter/postgres/queue"
	"github.com/heartmarshall/wordqueue/internal/adapter/sqlite"
	sqlitequeue "github.com/heartmarshall/wordqueue/internal/adapter/sqlite/queue"
	"github.com/heartmarshall/wordqueue/internal/config"
	"github.com/heartmarshall/wordqueue/internal/domain"
)

// QueueRepo is the full queue store surface shared by the server and the
// sync agent. Both drivers implement it.
type QueueRepo interface {
	FindByKey(ctx context.Context, canonicalKey, bucket, kind string) (*domain.QueueEntry, error)
	Insert(ctx context.Context, entry *domain.QueueEntry) (*domain.QueueEntry, error)
	ListRecent(ctx context.Context, limit int) ([]domain.QueueEntry, error)
	ListUndelivered(ctx context.Context, limit int) ([]domain.QueueEntry, error)
	MarkDelivered(ctx context.Context, id int64) error
	RecordDeliveryError(ctx context.Context, id int64, msg string) error
	Stats(ctx context.Context) (domain.QueueStats, error)
	DeleteDeliveredBefore(ctx context.Context, threshold time.Time) (int64, error)
}

var (
	_ QueueRepo = (*pgqueue.Repo)(nil)
	_ QueueRepo = (*sqlitequeue.Repo)(nil)
)

// Store is an open queue store with its connection lifecycle.
type Store struct {
	Queue  QueueRepo
	Driver string

	ping  func(ctx context.Context) error
	close func()
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

// Close releases the connection pool or database handle.
func (s *Store) Close() { s.close() }

// OpenStore connects to the configured driver. With cfg.Migrate set the
// schema is created or upgraded before returning.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if cfg.Migrate {
			if err := postgres.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return postgresStore(pool), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DSN, cfg.Migrate)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqliteStore(db), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func postgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Queue:  pgqueue.New(pool),
		Driver: config.DriverPostgres,
		ping:   pool.Ping,
		close:  pool.Close,
	}
}

func sqliteStore(db *sql.DB) *Store {
	return &Store{
		Queue:  sqlitequeue.New(db),
		Driver: config.DriverSQLite,
		ping:   db.PingContext,
		close:  func() { _ = db.Close() },
	}
}
