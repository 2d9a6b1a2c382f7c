package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Mutator   *inventory.StockMutator
	Queries   *inventory.QueryService
	JWTSecret string
	JWTIssuer string
	Logger    zerolog.Logger
	// Ping verifica el store en /health; nil = solo liveness.
	Ping        func(ctx context.Context) error
	ServiceName string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestMiddleware(deps.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			if err := deps.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: "store no disponible"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	api := app.Group("/api")

	// Products (protegido). /history va antes de /:id.
	products := api.Group("/products", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	productHandler := NewProductHandler(deps.Mutator, deps.Queries)
	products.Get("/history", productHandler.History)
	products.Get("/history/report", productHandler.HistoryReport)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)
	products.Get("/:id/reconcile", productHandler.Reconcile)
	products.Patch("/:id/status", productHandler.SetStatus)
	products.Patch("/:id/withdraw", productHandler.Withdraw)
}
