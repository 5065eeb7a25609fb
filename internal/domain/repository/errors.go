package repository

import "errors"

var (
	// ErrNotFound: el usuario, email o conexión no existe.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict: violación de unicidad (username, provider+uid).
	ErrConflict = errors.New("repository: conflict")
)
