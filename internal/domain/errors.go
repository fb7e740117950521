package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrCapacityExceeded     = errors.New("capacidad de la ubicación excedida")
	ErrLocationInactive     = errors.New("ubicación inactiva")
	ErrQuarantineRestricted = errors.New("ubicación de cuarentena no admite put-away")
	ErrInvalidState         = errors.New("operación no permitida en el estado actual")
	ErrPatternTooLarge      = errors.New("el patrón expande demasiadas ubicaciones")
)
