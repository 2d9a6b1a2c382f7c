package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementFilter filtros del historial. Kind vacío = todos los tipos; ItemID vacío = todos los productos.
type MovementFilter struct {
	Kind   entity.MovementKind
	ItemID string
	Limit  int
	Offset int
}

// LedgerTotals suma de entradas y salidas de un producto.
type LedgerTotals struct {
	Inbound  int64
	Outbound int64
	Count    int64
}

// Balance saldo neto según el ledger.
func (t LedgerTotals) Balance() int64 {
	return t.Inbound - t.Outbound
}

// MovementRepository puerto del ledger: solo inserción y lectura, nunca update ni delete.
type MovementRepository interface {
	// Append inserta el movimiento y asigna ID (y CreatedAt si viene vacío).
	Append(ctx context.Context, movement *entity.MovementRecord) error
	// List devuelve los movimientos más recientes primero (empates por ID descendente).
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementView, error)
	Totals(ctx context.Context, itemID string) (LedgerTotals, error)
}
