package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementa repository.ItemRepository. Con tx == nil cada escritura confirma sola.
type ItemRepo struct {
	s  *Store
	tx *tx
}

func (r *ItemRepo) autocommit(ctx context.Context, fn func(repo repository.ItemRepository) error) error {
	return r.s.Run(ctx, func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
		return fn(itemRepo)
	})
}

// snapshot tx de solo lectura cuando el repo no está atado a una transacción.
func (r *ItemRepo) snapshot() *tx {
	if r.tx != nil {
		return r.tx
	}
	return newTx(r.s)
}

// Create registra el producto. Devuelve domain.ErrConflict si el id o el nombre ya existen.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	if r.tx == nil {
		return r.autocommit(ctx, func(repo repository.ItemRepository) error { return repo.Create(ctx, item) })
	}
	if r.tx.get(item.ID) != nil {
		return fmt.Errorf("%w: el producto %s ya existe", domain.ErrConflict, item.ID)
	}
	if existing, _ := r.GetByName(ctx, item.Name); existing != nil {
		return fmt.Errorf("%w: ya existe un producto con ese nombre", domain.ErrConflict)
	}
	cp := *item
	r.tx.items[item.ID] = &cp
	return nil
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	return r.snapshot().get(id), nil
}

// GetForUpdate bloquea la fila hasta el Commit o Rollback de la transacción.
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	if r.tx == nil {
		return r.GetByID(ctx, id)
	}
	if err := r.tx.lock(ctx, id); err != nil {
		return nil, err
	}
	return r.tx.get(id), nil
}

func (r *ItemRepo) GetByName(_ context.Context, name string) (*entity.Item, error) {
	for _, it := range r.snapshot().view() {
		if it.Name == name {
			found := it
			return &found, nil
		}
	}
	return nil, nil
}

func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	if r.tx == nil {
		return r.autocommit(ctx, func(repo repository.ItemRepository) error { return repo.Update(ctx, item) })
	}
	if r.tx.get(item.ID) == nil {
		return domain.ErrNotFound
	}
	cp := *item
	r.tx.items[item.ID] = &cp
	return nil
}

func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	if r.tx == nil {
		return r.autocommit(ctx, func(repo repository.ItemRepository) error { return repo.Delete(ctx, id) })
	}
	if r.tx.get(id) == nil {
		return domain.ErrNotFound
	}
	r.tx.items[id] = nil
	return nil
}

func (r *ItemRepo) List(_ context.Context, filter repository.ItemFilter) ([]*entity.Item, error) {
	view := r.snapshot().view()
	list := make([]*entity.Item, 0, len(view))
	for _, it := range view {
		if filter.Active != nil && it.Active != *filter.Active {
			continue
		}
		cp := it
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}
