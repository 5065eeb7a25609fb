package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el singleton. Solo la primera llamada tiene efecto.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el singleton; si nadie llamó Init usa dev/info.
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Replace reemplaza el singleton. Pensado para tests (zaptest/observer).
func Replace(l *zap.Logger) {
	once.Do(func() {})
	instance = l
}

// Sync flushea buffers pendientes.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
