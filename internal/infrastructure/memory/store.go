// Package memory implementa los puertos de persistencia en memoria, con la misma semántica
// transaccional que los adaptadores SQL: escrituras diferidas hasta el Commit, bloqueo por
// fila (GetForUpdate) y unicidad de nombre verificada al confirmar.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store estado confirmado de productos y ledger.
type Store struct {
	mu        sync.RWMutex
	items     map[string]entity.Item
	movements []entity.MovementRecord
	lastID    int64
	clock     func() time.Time

	locksMu sync.Mutex
	locks   map[string]*rowLock
}

// rowLock semáforo de una fila. refs cuenta dueño y esperas; en cero la entrada se borra.
type rowLock struct {
	sem  *semaphore.Weighted
	refs int
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		items: map[string]entity.Item{},
		clock: time.Now,
		locks: map[string]*rowLock{},
	}
}

// Items repositorio de productos fuera de transacción (cada escritura confirma sola).
func (s *Store) Items() *ItemRepo {
	return &ItemRepo{s: s}
}

// Movements repositorio del ledger fuera de transacción.
func (s *Store) Movements() *MovementRepo {
	return &MovementRepo{s: s}
}

// Run ejecuta fn con repos atados a una transacción. Commit si fn devuelve nil; si no, se descarta todo.
func (s *Store) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	movRepo repository.MovementRepository,
) error) error {
	t := newTx(s)
	defer t.releaseLocks()

	if err := fn(&ItemRepo{s: s, tx: t}, &MovementRepo{s: s, tx: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return t.commit()
}

func (s *Store) acquireRow(id string) *rowLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &rowLock{sem: semaphore.NewWeighted(1)}
		s.locks[id] = l
	}
	l.refs++
	return l
}

func (s *Store) dropRow(id string, l *rowLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

// tx escrituras pendientes de una transacción. items[id] == nil marca un borrado.
type tx struct {
	s         *Store
	items     map[string]*entity.Item
	movements []*entity.MovementRecord
	held      map[string]*rowLock
}

func newTx(s *Store) *tx {
	return &tx{
		s:     s,
		items: map[string]*entity.Item{},
		held:  map[string]*rowLock{},
	}
}

// lock bloquea la fila id hasta el fin de la transacción (respeta la cancelación de ctx).
func (t *tx) lock(ctx context.Context, id string) error {
	if _, ok := t.held[id]; ok {
		return nil
	}
	l := t.s.acquireRow(id)
	if err := l.sem.Acquire(ctx, 1); err != nil {
		t.s.dropRow(id, l)
		return fmt.Errorf("lock item %s: %w", id, err)
	}
	t.held[id] = l
	return nil
}

func (t *tx) releaseLocks() {
	for id, l := range t.held {
		l.sem.Release(1)
		t.s.dropRow(id, l)
		delete(t.held, id)
	}
}

// get lee primero las escrituras pendientes y luego el estado confirmado.
func (t *tx) get(id string) *entity.Item {
	if p, ok := t.items[id]; ok {
		if p == nil {
			return nil
		}
		cp := *p
		return &cp
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if it, ok := t.s.items[id]; ok {
		return &it
	}
	return nil
}

// view fusiona estado confirmado y pendiente.
func (t *tx) view() map[string]entity.Item {
	t.s.mu.RLock()
	out := make(map[string]entity.Item, len(t.s.items)+len(t.items))
	for id, it := range t.s.items {
		out[id] = it
	}
	t.s.mu.RUnlock()
	for id, p := range t.items {
		if p == nil {
			delete(out, id)
			continue
		}
		out[id] = *p
	}
	return out
}

func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	// Unicidad de nombre contra el estado confirmado y entre las escrituras pendientes.
	names := make(map[string]string, len(t.s.items))
	for id, it := range t.s.items {
		if _, overridden := t.items[id]; overridden {
			continue
		}
		names[it.Name] = id
	}
	for id, p := range t.items {
		if p == nil {
			continue
		}
		if other, ok := names[p.Name]; ok && other != id {
			return fmt.Errorf("%w: ya existe un producto con ese nombre", domain.ErrConflict)
		}
		names[p.Name] = id
	}

	for id, p := range t.items {
		if p == nil {
			delete(t.s.items, id)
			continue
		}
		t.s.items[id] = *p
	}
	for _, m := range t.movements {
		t.s.lastID++
		m.ID = t.s.lastID
		t.s.movements = append(t.s.movements, *m)
	}
	return nil
}
