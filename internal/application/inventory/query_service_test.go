package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

type fakeReport struct {
	got []*entity.MovementView
	err error
}

func (f *fakeReport) GenerateMovementReport(_ context.Context, movements []*entity.MovementView, _ time.Time) ([]byte, error) {
	f.got = movements
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

func seeded(t *testing.T) (*memory.Store, *inventory.StockMutator, string) {
	t.Helper()
	store := memory.NewStore()
	m := inventory.NewStockMutator(store, zerolog.Nop())
	ctx := context.Background()
	res, err := m.CreateItem(ctx, admin, "Widget", 10)
	require.NoError(t, err)
	_, err = m.Withdraw(ctx, stockist, res.Item.ID, 3)
	require.NoError(t, err)
	_, err = m.Withdraw(ctx, stockist, res.Item.ID, 2)
	require.NoError(t, err)
	return store, m, res.Item.ID
}

func TestListMovements_FiltroDeTipo(t *testing.T) {
	store, _, _ := seeded(t)
	q := inventory.NewQueryService(store, store.Items(), store.Movements(), nil)
	ctx := context.Background()

	cases := []struct {
		kind string
		want int
	}{
		{"", 3},
		{"Inbound", 1},
		{"outbound", 2},
		{"Entrada", 1},
		{"Salida", 2},
		{"Transferencia", 3}, // valor no reconocido = sin filtro
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("kind=%q", tc.kind), func(t *testing.T) {
			list, err := q.ListMovements(ctx, viewer, inventory.MovementQuery{Kind: tc.kind})
			require.NoError(t, err)
			assert.Len(t, list, tc.want)
		})
	}
}

func TestListMovements_OrdenYPaginacion(t *testing.T) {
	store, _, id := seeded(t)
	q := inventory.NewQueryService(store, store.Items(), store.Movements(), nil)
	ctx := context.Background()

	list, err := q.ListMovements(ctx, viewer, inventory.MovementQuery{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt), "más recientes primero")
		if list[i].CreatedAt.Equal(list[i-1].CreatedAt) {
			assert.Less(t, list[i].ID, list[i-1].ID)
		}
	}
	assert.Equal(t, "Widget", list[0].ItemName)
	assert.Equal(t, id, list[0].ItemID)

	page, err := q.ListMovements(ctx, viewer, inventory.MovementQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, list[1].ID, page[0].ID)

	empty, err := q.ListMovements(ctx, viewer, inventory.MovementQuery{ItemID: "otro"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListItems_FiltroActivo(t *testing.T) {
	store := memory.NewStore()
	m := inventory.NewStockMutator(store, zerolog.Nop())
	q := inventory.NewQueryService(store, store.Items(), store.Movements(), nil)
	ctx := context.Background()

	empty, err := q.ListItems(ctx, viewer, repository.ItemFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty)

	a, err := m.CreateItem(ctx, admin, "B-item", 0)
	require.NoError(t, err)
	_, err = m.CreateItem(ctx, admin, "A-item", 0)
	require.NoError(t, err)
	_, err = m.SetActive(ctx, admin, a.Item.ID, false)
	require.NoError(t, err)

	all, err := q.ListItems(ctx, viewer, repository.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A-item", all[0].Name)

	inactive := false
	onlyInactive, err := q.ListItems(ctx, viewer, repository.ItemFilter{Active: &inactive})
	require.NoError(t, err)
	require.Len(t, onlyInactive, 1)
	assert.Equal(t, "B-item", onlyInactive[0].Name)

	got, err := q.GetItem(ctx, viewer, a.Item.ID)
	require.NoError(t, err, "los inactivos siguen siendo consultables")
	assert.False(t, got.Active)
}

func TestMovementReport(t *testing.T) {
	store, _, _ := seeded(t)
	gen := &fakeReport{}
	q := inventory.NewQueryService(store, store.Items(), store.Movements(), gen)

	pdf, filename, err := q.MovementReport(context.Background(), viewer, inventory.MovementQuery{Kind: "Salida"})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), pdf)
	assert.Regexp(t, `^historial-movimientos-\d{8}-\d{6}\.pdf$`, filename)
	assert.Len(t, gen.got, 2)

	_, _, err = q.MovementReport(context.Background(), entity.Actor{Role: "desconocido"}, inventory.MovementQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	gen.err = errors.New("fuente no encontrada")
	_, _, err = q.MovementReport(context.Background(), viewer, inventory.MovementQuery{})
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	noGen := inventory.NewQueryService(store, store.Items(), store.Movements(), nil)
	_, _, err = noGen.MovementReport(context.Background(), viewer, inventory.MovementQuery{})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestReconcile(t *testing.T) {
	store, _, id := seeded(t)
	q := inventory.NewQueryService(store, store.Items(), store.Movements(), nil)

	rec, err := q.Reconcile(context.Background(), viewer, id)
	require.NoError(t, err)
	assert.Equal(t, inventory.Reconciliation{
		ItemID: id, Quantity: 5, Inbound: 10, Outbound: 5, Movements: 3, LedgerBalance: 5, Balanced: true,
	}, *rec)

	_, err = q.Reconcile(context.Background(), viewer, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcile_CuadraConSalidasConcurrentes(t *testing.T) {
	store := memory.NewStore()
	m := inventory.NewStockMutator(store, zerolog.Nop())
	q := inventory.NewQueryService(store, store.Items(), store.Movements(), nil)
	ctx := context.Background()

	res, err := m.CreateItem(ctx, admin, "Widget", 300)
	require.NoError(t, err)
	id := res.Item.ID

	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(done)
		for i := 0; i < 300; i++ {
			if _, err := m.Withdraw(ctx, stockist, id, 1); err != nil {
				return err
			}
		}
		return nil
	})

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		rec, err := q.Reconcile(ctx, viewer, id)
		require.NoError(t, err)
		require.Truef(t, rec.Balanced, "cantidad %d, ledger %d", rec.Quantity, rec.LedgerBalance)
	}
	require.NoError(t, g.Wait())

	rec, err := q.Reconcile(ctx, viewer, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Quantity)
	assert.Equal(t, int64(301), rec.Movements)
	assert.True(t, rec.Balanced)
}

func TestReconcile_FalloDeInfraestructura(t *testing.T) {
	store, _, id := seeded(t)
	q := inventory.NewQueryService(downTx{}, store.Items(), store.Movements(), nil)

	_, err := q.Reconcile(context.Background(), viewer, id)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

type downTx struct{}

func (downTx) Run(context.Context, func(repository.ItemRepository, repository.MovementRepository) error) error {
	return errors.New("connection refused")
}
