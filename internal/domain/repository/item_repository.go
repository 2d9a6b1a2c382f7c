package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ItemFilter filtros para listar productos. Active nil = todos.
type ItemFilter struct {
	Active *bool
}

// ItemRepository define el puerto de persistencia para Item (DIP).
// Las lecturas devuelven (nil, nil) si el producto no existe.
type ItemRepository interface {
	// Create persiste un producto nuevo. Devuelve domain.ErrConflict si el nombre ya existe.
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// GetForUpdate obtiene el producto y bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Item, error)
	GetByName(ctx context.Context, name string) (*entity.Item, error)
	// Update escribe name, quantity y active. Devuelve domain.ErrConflict si el nombre choca.
	Update(ctx context.Context, item *entity.Item) error
	Delete(ctx context.Context, id string) error
	// List devuelve los productos ordenados por nombre e id.
	List(ctx context.Context, filter ItemFilter) ([]*entity.Item, error)
}
