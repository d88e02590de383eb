package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrInvalidKey = errors.New("invalid cache key")
)
