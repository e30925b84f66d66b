package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput = errors.New("entrada inválida")
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrUnavailable  = errors.New("servicio no disponible")

	// ErrInsufficientStock es un Conflict: los callers pueden usar errors.Is con cualquiera de los dos.
	ErrInsufficientStock = fmt.Errorf("stock insuficiente: %w", ErrConflict)
)

// InvalidInput envuelve ErrInvalidInput con un detalle legible para el cliente.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
