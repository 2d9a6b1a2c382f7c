package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// maxRows límite implícito cuando se pide OFFSET sin LIMIT (MySQL no admite OFFSET solo).
const maxRows = "18446744073709551615"

// MovementRepo ledger sobre MySQL: solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar *sql.DB o *sql.Tx.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append inserta el movimiento; el ID sale de AUTO_INCREMENT.
func (r *MovementRepo) Append(ctx context.Context, movement *entity.MovementRecord) error {
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	var actorID sql.NullString
	if movement.ActorID != "" {
		actorID = sql.NullString{String: movement.ActorID, Valid: true}
	}
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO movements (item_id, kind, amount, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		movement.ItemID, string(movement.Kind), movement.Amount, actorID, movement.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("movement id: %w", err)
	}
	movement.ID = id
	return nil
}

func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementView, error) {
	query := `
		SELECT m.id, m.item_id, m.kind, m.amount, m.actor_id, m.created_at, COALESCE(i.name, '')
		FROM movements m
		LEFT JOIN items i ON i.id = m.item_id`
	var conds []string
	var args []any
	if filter.Kind != "" {
		conds = append(conds, "m.kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.ItemID != "" {
		conds = append(conds, "m.item_id = ?")
		args = append(args, filter.ItemID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY m.created_at DESC, m.id DESC"
	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		query += " LIMIT " + maxRows
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.MovementView, 0)
	for rows.Next() {
		var v entity.MovementView
		var kind string
		var actorID sql.NullString
		if err := rows.Scan(&v.ID, &v.ItemID, &kind, &v.Amount, &actorID, &v.CreatedAt, &v.ItemName); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		v.Kind = entity.MovementKind(kind)
		v.ActorID = actorID.String
		list = append(list, &v)
	}
	return list, rows.Err()
}

func (r *MovementRepo) Totals(ctx context.Context, itemID string) (repository.LedgerTotals, error) {
	var t repository.LedgerTotals
	err := r.q.QueryRowContext(ctx, `
		SELECT
			CAST(COALESCE(SUM(CASE WHEN kind = 'Inbound' THEN amount ELSE 0 END), 0) AS SIGNED),
			CAST(COALESCE(SUM(CASE WHEN kind = 'Outbound' THEN amount ELSE 0 END), 0) AS SIGNED),
			COUNT(*)
		FROM movements WHERE item_id = ?`, itemID,
	).Scan(&t.Inbound, &t.Outbound, &t.Count)
	if err != nil {
		return t, fmt.Errorf("ledger totals: %w", err)
	}
	return t, nil
}
