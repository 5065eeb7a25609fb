package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

// Adapter representa un driver de almacenamiento capaz de crear repositorios.
type Adapter interface {
	// Name retorna el nombre del adapter ("postgres", "memory").
	Name() string

	// Connect establece conexión con el almacenamiento.
	Connect(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error)
}

// AdapterConnection representa una conexión activa.
type AdapterConnection interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	Users() repository.UserRepository
	SocialAccounts() repository.SocialAccountRepository
}

// MigratableConnection la implementan las conexiones SQL.
type MigratableConnection interface {
	MigrationExecutor() SQLExecutor
}

// PoolStats es un snapshot del pool de conexiones.
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
}

// PooledConnection la implementan los drivers con pool (pg).
type PooledConnection interface {
	PoolStats() PoolStats
}

// AdapterConfig configuración para conectar a un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "postgres", "memory"
	Name string

	// DSN connection string (solo postgres)
	DSN string

	MaxOpenConns int
	MaxIdleConns int
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenAdapter abre una conexión usando el adapter indicado en la config.
func OpenAdapter(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered", cfg.Name)
	}
	return a.Connect(ctx, cfg)
}
