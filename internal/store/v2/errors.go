package store

import "errors"

// Errores comunes del DAL.
var (
	// ErrNotMigratable indica que el driver no soporta migraciones SQL.
	ErrNotMigratable = errors.New("store: driver does not support migrations")

	// ErrClosed indica que el factory ya fue cerrado.
	ErrClosed = errors.New("store: closed")
)
