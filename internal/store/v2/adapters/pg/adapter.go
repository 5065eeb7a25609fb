// Package pg implementa el adapter PostgreSQL para store/v2.
// Usa pgxpool directamente.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	// Configurar pool
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return &pgConnection{pool: pool}, nil
}

// pgConnection representa una conexión activa a PostgreSQL.
type pgConnection struct {
	pool *pgxpool.Pool
}

func (c *pgConnection) Name() string { return "postgres" }

func (c *pgConnection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *pgConnection) Close() error {
	c.pool.Close()
	return nil
}

func (c *pgConnection) Users() repository.UserRepository { return &userRepo{pool: c.pool} }

func (c *pgConnection) SocialAccounts() repository.SocialAccountRepository {
	return &socialAccountRepo{pool: c.pool}
}

// PoolStats implementa store.PooledConnection.
func (c *pgConnection) PoolStats() store.PoolStats {
	st := c.pool.Stat()
	return store.PoolStats{
		Acquired: st.AcquiredConns(),
		Idle:     st.IdleConns(),
		Total:    st.TotalConns(),
	}
}

// MigrationExecutor implementa store.MigratableConnection.
func (c *pgConnection) MigrationExecutor() store.SQLExecutor { return c.pool }

// querier es lo común entre pool y tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const pgUniqueViolation = "23505"

// mapErr traduce errores de pgx a errores de dominio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// nullIfEmpty retorna nil si el string está vacío.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
