package domain

import (
	"context"
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInactive          = errors.New("el producto no está activo")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrDuplicateRequest  = errors.New("solicitud duplicada")
	// ErrUnavailable marca fallos de infraestructura (BD caída, timeout). El caller puede reintentar.
	ErrUnavailable = errors.New("servicio de persistencia no disponible")
)

// InsufficientStockError detalla una salida rechazada por falta de stock.
// errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: disponible %d, solicitado %d", ErrInsufficientStock, e.Available, e.Requested)
}

// Is permite comparar contra el sentinel ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Invalid envuelve ErrInvalidInput con un mensaje concreto.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

var domainErrors = []error{
	ErrNotFound, ErrInvalidInput, ErrForbidden, ErrConflict,
	ErrInactive, ErrInsufficientStock, ErrDuplicateRequest, ErrUnavailable,
}

// IsDomainError indica si err pertenece a la taxonomía de dominio.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Classify deja pasar los errores de dominio y convierte cualquier otro fallo
// (driver, red, context deadline) en ErrUnavailable conservando la causa.
func Classify(err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: operación cancelada: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
