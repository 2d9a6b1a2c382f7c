package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger sobre PostgreSQL: solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append inserta el movimiento; el ID sale de la secuencia BIGSERIAL.
func (r *MovementRepo) Append(ctx context.Context, movement *entity.MovementRecord) error {
	var createdAt *time.Time
	if !movement.CreatedAt.IsZero() {
		createdAt = &movement.CreatedAt
	}
	query := `
		INSERT INTO movements (item_id, kind, amount, actor_id, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, now()))
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		movement.ItemID, string(movement.Kind), movement.Amount, nullable(movement.ActorID), createdAt,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// List historial con el nombre actual del producto (LEFT JOIN: productos borrados quedan sin nombre).
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementView, error) {
	query := `
		SELECT m.id, m.item_id, m.kind, m.amount, m.actor_id, m.created_at, COALESCE(i.name, '')
		FROM movements m
		LEFT JOIN items i ON i.id = m.item_id`
	var conds []string
	var args []any
	pos := 1
	if filter.Kind != "" {
		conds = append(conds, fmt.Sprintf("m.kind = $%d", pos))
		args = append(args, string(filter.Kind))
		pos++
	}
	if filter.ItemID != "" {
		conds = append(conds, fmt.Sprintf("m.item_id = $%d", pos))
		args = append(args, filter.ItemID)
		pos++
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY m.created_at DESC, m.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, filter.Limit)
		pos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", pos)
		args = append(args, filter.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.MovementView, 0)
	for rows.Next() {
		var v entity.MovementView
		var kind string
		var actorID *string
		if err := rows.Scan(&v.ID, &v.ItemID, &kind, &v.Amount, &actorID, &v.CreatedAt, &v.ItemName); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		v.Kind = entity.MovementKind(kind)
		if actorID != nil {
			v.ActorID = *actorID
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}

// Totals suma entradas y salidas del producto.
func (r *MovementRepo) Totals(ctx context.Context, itemID string) (repository.LedgerTotals, error) {
	var t repository.LedgerTotals
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'Inbound'), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'Outbound'), 0)::BIGINT,
			COUNT(*)
		FROM movements WHERE item_id = $1`
	if err := r.q.QueryRow(ctx, query, itemID).Scan(&t.Inbound, &t.Outbound, &t.Count); err != nil {
		return t, fmt.Errorf("ledger totals: %w", err)
	}
	return t, nil
}
