package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursecraft/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations.
// DB is normally a *pgxpool.Pool; tests pass a pgxmock pool.
type RepositoryConfig struct {
	DB     repositories.DBTX
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Drafts string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Drafts: fmt.Sprintf("%seditor_drafts", prefix),
	}
}

// CreateConnectionPool creates a pgx pool for the drafts database.
//
// pgx caches prepared statements by default. PgBouncer in transaction
// pooling mode (port 6543 on Supabase) rejects them, so that port switches
// to QueryExecModeCacheDescribe unless the URL already sets
// default_query_exec_mode. Table prefixes are interpolated before the SQL
// reaches the server, so each environment caches its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Drafts are written on session close only; a small pool is plenty
	config.MaxConns = 10
	config.MinConns = 1

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
