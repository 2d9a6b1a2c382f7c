package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func seedItem(t *testing.T, s *memory.Store, id, name string, qty int64) {
	t.Helper()
	err := s.Run(context.Background(), func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
		return itemRepo.Create(context.Background(), &entity.Item{ID: id, Name: name, Quantity: qty, Active: true})
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_CommitAsignaIDsMonotonos(t *testing.T) {
	s := memory.NewStore()
	seedItem(t, s, "a", "Tornillo", 0)

	ctx := context.Background()
	var first, second *entity.MovementRecord
	err := s.Run(ctx, func(_ repository.ItemRepository, movRepo repository.MovementRepository) error {
		first = &entity.MovementRecord{ItemID: "a", Kind: entity.MovementInbound, Amount: 5}
		second = &entity.MovementRecord{ItemID: "a", Kind: entity.MovementOutbound, Amount: 2}
		if err := movRepo.Append(ctx, first); err != nil {
			return err
		}
		return movRepo.Append(ctx, second)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	totals, err := s.Movements().Totals(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, repository.LedgerTotals{Inbound: 5, Outbound: 2, Count: 2}, totals)
}

func TestRun_ErrorDescartaEscrituras(t *testing.T) {
	s := memory.NewStore()
	seedItem(t, s, "a", "Tornillo", 10)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(itemRepo repository.ItemRepository, movRepo repository.MovementRepository) error {
		item, err := itemRepo.GetForUpdate(ctx, "a")
		require.NoError(t, err)
		item.Quantity = 3
		require.NoError(t, itemRepo.Update(ctx, item))
		require.NoError(t, movRepo.Append(ctx, &entity.MovementRecord{ItemID: "a", Kind: entity.MovementOutbound, Amount: 7}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	item, err := s.Items().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(10), item.Quantity)

	list, err := s.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRun_LecturaDentroDeTxVeEscriturasPendientes(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	err := s.Run(ctx, func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
		require.NoError(t, itemRepo.Create(ctx, &entity.Item{ID: "a", Name: "Tuerca", Active: true}))
		got, err := itemRepo.GetByName(ctx, "Tuerca")
		require.NoError(t, err)
		require.NotNil(t, got)

		outside, err := s.Items().GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, outside, "fuera de la tx no debe verse hasta el commit")
		return nil
	})
	require.NoError(t, err)
}

func TestGetForUpdate_BloqueaHastaFinDeTx(t *testing.T) {
	s := memory.NewStore()
	seedItem(t, s, "a", "Tornillo", 10)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.Run(context.Background(), func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
			if _, err := itemRepo.GetForUpdate(context.Background(), "a"); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.Run(ctx, func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
		_, err := itemRepo.GetForUpdate(ctx, "a")
		return err
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)

	err = s.Run(context.Background(), func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
		_, err := itemRepo.GetForUpdate(context.Background(), "a")
		return err
	})
	require.NoError(t, err, "la fila debe liberarse al terminar la tx")
}

func TestGetForUpdate_LiberaLaEntradaDelBloqueo(t *testing.T) {
	s := memory.NewStore()
	seedItem(t, s, "a", "Tornillo", 10)
	lockRow := func(ctx context.Context, id string) error {
		return s.Run(ctx, func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
			_, err := itemRepo.GetForUpdate(ctx, id)
			return err
		})
	}

	require.NoError(t, lockRow(context.Background(), "a"))
	for i := 0; i < 50; i++ {
		require.NoError(t, lockRow(context.Background(), fmt.Sprintf("no-existe-%d", i)))
	}
	assert.Equal(t, 0, s.LockedRows())

	// Una espera cancelada también suelta su referencia.
	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
			if _, err := itemRepo.GetForUpdate(context.Background(), "a"); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked
	assert.Equal(t, 1, s.LockedRows())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, lockRow(ctx, "a"), context.DeadlineExceeded)
	assert.Equal(t, 1, s.LockedRows())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, s.LockedRows())
}

func TestCommit_NombreDuplicadoEsConflicto(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	seedItem(t, s, "a", "Tornillo", 0)

	err := s.Items().Create(ctx, &entity.Item{ID: "b", Name: "Tornillo"})
	require.ErrorIs(t, err, domain.ErrConflict)

	seedItem(t, s, "b", "Tuerca", 0)
	item, err := s.Items().GetByID(ctx, "b")
	require.NoError(t, err)
	item.Name = "Tornillo"
	require.ErrorIs(t, s.Items().Update(ctx, item), domain.ErrConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestItems_ListOrdenadoYFiltrado(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	seedItem(t, s, "1", "Zeta", 0)
	seedItem(t, s, "2", "Alfa", 0)
	seedItem(t, s, "3", "Media", 0)

	item, err := s.Items().GetByID(ctx, "3")
	require.NoError(t, err)
	item.Active = false
	require.NoError(t, s.Items().Update(ctx, item))

	all, err := s.Items().List(ctx, repository.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Alfa", "Media", "Zeta"}, []string{all[0].Name, all[1].Name, all[2].Name})

	active := true
	onlyActive, err := s.Items().List(ctx, repository.ItemFilter{Active: &active})
	require.NoError(t, err)
	assert.Len(t, onlyActive, 2)
}

func TestMovements_ListMasRecientesPrimero(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	seedItem(t, s, "a", "Tornillo", 0)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	appendAt := func(kind entity.MovementKind, at time.Time) {
		require.NoError(t, s.Movements().Append(ctx, &entity.MovementRecord{ItemID: "a", Kind: kind, Amount: 1, CreatedAt: at}))
	}
	appendAt(entity.MovementInbound, base)
	appendAt(entity.MovementOutbound, base.Add(time.Minute))
	appendAt(entity.MovementInbound, base.Add(time.Minute)) // mismo instante: gana el ID mayor

	list, err := s.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "Tornillo", list[0].ItemName)

	inbound, err := s.Movements().List(ctx, repository.MovementFilter{Kind: entity.MovementInbound})
	require.NoError(t, err)
	assert.Len(t, inbound, 2)

	page, err := s.Movements().List(ctx, repository.MovementFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].ID)

	require.NoError(t, s.Items().Delete(ctx, "a"))
	after, err := s.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, after, 3, "el ledger sobrevive al borrado del producto")
	assert.Empty(t, after[0].ItemName)
}
