// Comando migrate: aplica el esquema de productos y ledger en el store configurado.
//
// Uso: STORE_DRIVER=postgres DB_HOST=... go run ./cmd/migrate
package main

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/infrastructure/storage"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("conexión al store")
	}
	defer backend.Close()

	if err := backend.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migración")
	}
	log.Info().Str("driver", backend.Driver).Msg("esquema aplicado")
}
