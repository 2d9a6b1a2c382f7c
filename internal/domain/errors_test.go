package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

func TestInsufficientStockError_Is(t *testing.T) {
	err := fmt.Errorf("withdraw: %w", &domain.InsufficientStockError{Available: 4, Requested: 6})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var detail *domain.InsufficientStockError
	if assert.ErrorAs(t, err, &detail) {
		assert.Equal(t, int64(4), detail.Available)
		assert.Equal(t, int64(6), detail.Requested)
	}
	assert.Contains(t, err.Error(), "disponible 4, solicitado 6")
}

func TestClassify(t *testing.T) {
	assert.NoError(t, domain.Classify(nil))

	notFound := fmt.Errorf("get: %w", domain.ErrNotFound)
	assert.Same(t, notFound, domain.Classify(notFound), "los errores de dominio pasan sin cambios")

	infra := domain.Classify(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, infra, domain.ErrUnavailable)
	assert.Contains(t, infra.Error(), "connection refused")

	canceled := domain.Classify(context.Canceled)
	assert.ErrorIs(t, canceled, domain.ErrUnavailable)
	assert.ErrorIs(t, canceled, context.Canceled)
}

func TestInvalid(t *testing.T) {
	err := domain.Invalid("el nombre es requerido")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, domain.IsDomainError(err))
	assert.False(t, domain.IsDomainError(errors.New("otro")))
}
