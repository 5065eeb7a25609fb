package providers

import (
	"fmt"
	"sort"
	"sync"
)

// Factory crea una instancia de provider.
type Factory func(cfg Config) (Provider, error)

// Registry mantiene factories e instancias configuradas.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Provider),
	}
}

// RegisterFactory registra la factory de un provider. Se llama al arrancar.
func (r *Registry) RegisterFactory(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// Configure instancia los providers habilitados. Un provider configurado sin
// factory es un error de configuración.
func (r *Registry) Configure(cfgs map[string]Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	instances := make(map[string]Provider, len(cfgs))
	for id, cfg := range cfgs {
		if !cfg.Enabled {
			continue
		}
		f, ok := r.factories[id]
		if !ok {
			return fmt.Errorf("provider not registered: %s", id)
		}
		p, err := f(cfg)
		if err != nil {
			return fmt.Errorf("configure provider %s: %w", id, err)
		}
		instances[id] = p
	}
	r.instances = instances
	return nil
}

// Add registra una instancia ya construida (tests, providers custom).
func (r *Registry) Add(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[p.ID()] = p
}

// Get retorna el provider habilitado con ese id.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.instances[id]
	return p, ok
}

// Name retorna el nombre visible del provider, o el id si no está habilitado.
func (r *Registry) Name(id string) string {
	if p, ok := r.Get(id); ok {
		return p.Name()
	}
	return id
}

// List retorna los providers habilitados ordenados por id.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.instances))
	for _, p := range r.instances {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
