package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	// schemaLockKey serializes schema upgrades across instances ("fortif" in ASCII hex).
	schemaLockKey      = 0x666f72746966
	schemaUnlockWait   = 5 * time.Second
	schemaVersionTable = "public.fortify_schema_version"
)

type ConnectOption func(*pgxpool.Config)

// WithTracer attaches a query tracer to every pooled connection.
func WithTracer(tracer pgx.QueryTracer) ConnectOption {
	return func(cfg *pgxpool.Config) { cfg.ConnConfig.Tracer = tracer }
}

// Connect opens a pool against databaseURL and pings it once.
func Connect(ctx context.Context, databaseURL string, opts ...ConnectOption) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	for _, opt := range opts {
		opt(poolCfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"tls", poolCfg.ConnConfig.TLSConfig != nil,
		"max_conns", poolCfg.MaxConns)
	return pool, nil
}

// MigrateSchema brings the guild_settings schema to the latest embedded
// version. The whole run holds a session advisory lock, so instances starting
// together upgrade one after another and the later ones find nothing to do.
func MigrateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", schemaLockKey); err != nil {
		return fmt.Errorf("failed to acquire schema lock: %w", err)
	}
	defer unlockSchema(conn.Conn())

	migrator, err := newMigrator(ctx, conn.Conn())
	if err != nil {
		return err
	}

	from, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Settings schema ready", "from_version", from, "to_version", len(migrator.Migrations))
	return nil
}

func newMigrator(ctx context.Context, conn *pgx.Conn) (*migrate.Migrator, error) {
	migrations, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	migrator, err := migrate.NewMigrator(ctx, conn, schemaVersionTable)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.LoadMigrations(migrations); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return migrator, nil
}

// unlockSchema runs on a fresh context so a cancelled startup still frees the lock.
func unlockSchema(conn *pgx.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), schemaUnlockWait)
	defer cancel()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", schemaLockKey); err != nil {
		slog.Error("Failed to release schema lock", "error", err)
	}
}
