package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger en memoria. Solo se agrega; el ID se asigna al confirmar la transacción.
type MovementRepo struct {
	s  *Store
	tx *tx
}

func (r *MovementRepo) Append(ctx context.Context, movement *entity.MovementRecord) error {
	if r.tx == nil {
		return r.s.Run(ctx, func(_ repository.ItemRepository, movRepo repository.MovementRepository) error {
			return movRepo.Append(ctx, movement)
		})
	}
	if movement.Amount <= 0 {
		return domain.Invalid("la cantidad del movimiento debe ser positiva")
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = r.s.clock()
	}
	r.tx.movements = append(r.tx.movements, movement)
	return nil
}

// List movimientos confirmados, más recientes primero.
func (r *MovementRepo) List(_ context.Context, filter repository.MovementFilter) ([]*entity.MovementView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]*entity.MovementView, 0)
	for _, m := range r.s.movements {
		if filter.Kind != "" && m.Kind != filter.Kind {
			continue
		}
		if filter.ItemID != "" && m.ItemID != filter.ItemID {
			continue
		}
		v := &entity.MovementView{MovementRecord: m}
		if it, ok := r.s.items[m.ItemID]; ok {
			v.ItemName = it.Name
		}
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(list) {
			return []*entity.MovementView{}, nil
		}
		list = list[filter.Offset:]
	}
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (r *MovementRepo) Totals(_ context.Context, itemID string) (repository.LedgerTotals, error) {
	var t repository.LedgerTotals
	add := func(m *entity.MovementRecord) {
		if m.ItemID != itemID {
			return
		}
		t.Count++
		if m.Kind == entity.MovementOutbound {
			t.Outbound += m.Amount
		} else {
			t.Inbound += m.Amount
		}
	}

	r.s.mu.RLock()
	for i := range r.s.movements {
		add(&r.s.movements[i])
	}
	r.s.mu.RUnlock()

	if r.tx != nil {
		for _, m := range r.tx.movements {
			add(m)
		}
	}
	return t, nil
}
