// Package cache provee abstracciones para caching con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, go-cache; para desarrollo/testing o un solo nodo)
//   - Redis (distribuido, para producción)
//
// Lo usan las sesiones server-side y los códigos de verificación de email.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL opcional.
	// Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take obtiene y elimina atómicamente (tokens de un solo uso).
	// Retorna ErrNotFound si no existe.
	Take(ctx context.Context, key string) (string, error)

	// Delete elimina una key. No falla si no existe.
	Delete(ctx context.Context, key string) error

	// Exists verifica si una key existe.
	Exists(ctx context.Context, key string) (bool, error)

	// Incr incrementa un contador de ventana fija. El primer hit fija el TTL
	// a window. Retorna los hits actuales y el TTL restante.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)

	Ping(ctx context.Context) error
	Close() error

	// Stats retorna estadísticas del cache.
	Stats(ctx context.Context) (Stats, error)
}

// Stats contiene estadísticas del cache.
type Stats struct {
	Driver     string
	Keys       int64
	UsedMemory string
	Hits       int64
	Misses     int64
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver   string `yaml:"driver"` // "memory" | "redis"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"` // Prefijo para todas las keys
}

// ErrNotFound indica que la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return nil, errors.New("cache: unknown driver " + cfg.Driver)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
