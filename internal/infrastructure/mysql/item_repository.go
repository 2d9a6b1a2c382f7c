package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, name, quantity, active, created_at, updated_at`

// ItemRepo implementación de ItemRepository sobre MySQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar *sql.DB o *sql.Tx.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Quantity, item.Active, item.CreatedAt.UTC(), item.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: ya existe un producto con ese nombre", domain.ErrConflict)
		}
		if isDataTooLong(err) {
			return domain.Invalid("el nombre del producto es demasiado largo")
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
}

// GetForUpdate bloquea la fila con SELECT ... FOR UPDATE (InnoDB).
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ? FOR UPDATE`, id)
}

func (r *ItemRepo) GetByName(ctx context.Context, name string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE name = ?`, name)
}

func (r *ItemRepo) getOne(ctx context.Context, query string, arg any) (*entity.Item, error) {
	var it entity.Item
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&it.ID, &it.Name, &it.Quantity, &it.Active, &it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &it, nil
}

func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	// Sin RowsAffected: MySQL cuenta 0 filas si los valores no cambian.
	existing, err := r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, item.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	_, err = r.q.ExecContext(ctx,
		`UPDATE items SET name = ?, quantity = ?, active = ?, updated_at = ? WHERE id = ?`,
		item.Name, item.Quantity, item.Active, item.UpdatedAt.UTC(), item.ID,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: ya existe un producto con ese nombre", domain.ErrConflict)
		}
		if isDataTooLong(err) {
			return domain.Invalid("el nombre del producto es demasiado largo")
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if filter.Active != nil {
		query += ` WHERE active = ?`
		args = append(args, *filter.Active)
	}
	query += ` ORDER BY name, id`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Item, 0)
	for rows.Next() {
		var it entity.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.Active, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}
