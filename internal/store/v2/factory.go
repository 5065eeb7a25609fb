package store

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

// Factory abre el adapter configurado y expone el DataAccessLayer.
type Factory struct {
	cfg      FactoryConfig
	conn     AdapterConnection
	migrator *Migrator

	mu     sync.Mutex
	closed bool
}

// FactoryConfig configuración para crear el Factory.
type FactoryConfig struct {
	Adapter AdapterConfig

	// MigrationsFS migraciones SQL (opcional; solo aplica a drivers SQL)
	MigrationsFS  fs.FS
	MigrationsDir string
}

// DataAccessLayer es lo que consumen los services.
type DataAccessLayer interface {
	Users() repository.UserRepository
	SocialAccounts() repository.SocialAccountRepository
}

// NewFactory abre la conexión del driver configurado.
func NewFactory(ctx context.Context, cfg FactoryConfig) (*Factory, error) {
	if cfg.Adapter.Name == "" {
		cfg.Adapter.Name = "memory"
	}
	conn, err := OpenAdapter(ctx, cfg.Adapter)
	if err != nil {
		return nil, fmt.Errorf("factory: connect %s: %w", cfg.Adapter.Name, err)
	}

	f := &Factory{cfg: cfg, conn: conn}
	if cfg.MigrationsFS != nil && cfg.MigrationsDir != "" {
		f.migrator = NewMigrator(cfg.MigrationsFS, cfg.MigrationsDir)
	}
	return f, nil
}

// Driver retorna el nombre del adapter activo.
func (f *Factory) Driver() string { return f.conn.Name() }

func (f *Factory) Users() repository.UserRepository { return f.conn.Users() }

func (f *Factory) SocialAccounts() repository.SocialAccountRepository {
	return f.conn.SocialAccounts()
}

// Ping verifica la conexión subyacente.
func (f *Factory) Ping(ctx context.Context) error {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return f.conn.Ping(ctx)
}

// Migrate aplica migraciones pendientes. Los drivers sin SQL retornan ErrNotMigratable.
func (f *Factory) Migrate(ctx context.Context) (*MigrationResult, error) {
	mc, ok := f.conn.(MigratableConnection)
	if !ok {
		return nil, ErrNotMigratable
	}
	if f.migrator == nil {
		return &MigrationResult{}, nil
	}
	return f.migrator.Run(ctx, mc.MigrationExecutor())
}

// PoolStats retorna el estado del pool; ok=false si el driver no usa pool.
func (f *Factory) PoolStats() (PoolStats, bool) {
	pc, ok := f.conn.(PooledConnection)
	if !ok {
		return PoolStats{}, false
	}
	return pc.PoolStats(), true
}

// Close cierra la conexión. Es idempotente.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.conn.Close()
}
