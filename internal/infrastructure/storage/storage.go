// Package storage selecciona el backend de persistencia según la configuración
// y expone sus piezas con los puertos del caso de uso.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/mysql"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// Backend store abierto: runner transaccional, repos de lectura y ciclo de vida.
type Backend struct {
	Driver    string
	TxRunner  inventory.TxRunner
	Items     repository.ItemRepository
	Movements repository.MovementRepository

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func()
}

// Open conecta el driver configurado (postgres, mysql o memory).
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:    config.DriverPostgres,
			TxRunner:  postgres.NewTxRunner(pool),
			Items:     postgres.NewItemRepository(pool),
			Movements: postgres.NewMovementRepository(pool),
			ping:      pool.Ping,
			migrate:   func(ctx context.Context) error { return postgres.Migrate(ctx, pool) },
			close:     pool.Close,
		}, nil

	case config.DriverMySQL:
		db, err := mysql.Open(ctx, cfg.MySQL.DSN)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:    config.DriverMySQL,
			TxRunner:  mysql.NewTxRunner(db),
			Items:     mysql.NewItemRepository(db),
			Movements: mysql.NewMovementRepository(db),
			ping:      db.PingContext,
			migrate:   func(ctx context.Context) error { return mysql.Migrate(ctx, db) },
			close:     func() { _ = db.Close() },
		}, nil

	case config.DriverMemory:
		store := memory.NewStore()
		return &Backend{
			Driver:    config.DriverMemory,
			TxRunner:  store,
			Items:     store.Items(),
			Movements: store.Movements(),
		}, nil
	}
	return nil, fmt.Errorf("store driver %q no soportado", cfg.Store.Driver)
}

// Ping verifica la conexión; el store en memoria siempre responde.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Migrate aplica el esquema (idempotente). No-op en memoria.
func (b *Backend) Migrate(ctx context.Context) error {
	if b.migrate == nil {
		return nil
	}
	if err := b.migrate(ctx); err != nil {
		return fmt.Errorf("migrar esquema %s: %w", b.Driver, err)
	}
	return nil
}

// Close libera las conexiones.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}
