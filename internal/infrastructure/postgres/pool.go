package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-ledger/pkg/config"
)

var (
	pgxPoolNewWithConfig = pgxpool.NewWithConfig
	connectRetries       = 10
	retryDelay           = 2 * time.Second
	pingTimeout          = 2 * time.Second
)

// NewPool crea un pool de conexiones PostgreSQL usando la configuración de la app.
// Reintenta la conexión mientras la BD arranca (docker compose); respeta la cancelación de ctx.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	var lastErr error
	for i := 0; i < connectRetries; i++ {
		pool, err := pgxPoolNewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("conectar a postgres: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("ping DB: reintentos agotados: %w", lastErr)
}
