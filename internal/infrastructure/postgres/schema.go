package postgres

import (
	"context"
	"fmt"
)

// Schema DDL del servicio. Ledger sin FK hacia items: los movimientos sobreviven al borrado del producto.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE CHECK (char_length(name) <= 255),
	quantity   BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS movements (
	id         BIGSERIAL PRIMARY KEY,
	item_id    TEXT NOT NULL,
	kind       TEXT NOT NULL CHECK (kind IN ('Inbound', 'Outbound')),
	amount     BIGINT NOT NULL CHECK (amount > 0),
	actor_id   TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_movements_item_id ON movements (item_id);
CREATE INDEX IF NOT EXISTS idx_movements_created_at ON movements (created_at DESC, id DESC);
`

// Migrate aplica el esquema (idempotente).
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
