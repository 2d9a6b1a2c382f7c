package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// HeaderIdempotencyKey cabecera opcional para salidas de inventario idempotentes.
const HeaderIdempotencyKey = "Idempotency-Key"

// ProductHandler maneja las peticiones HTTP de productos y su ledger (protegido).
type ProductHandler struct {
	mutator *inventory.StockMutator
	queries *inventory.QueryService
}

// NewProductHandler construye el handler.
func NewProductHandler(mutator *inventory.StockMutator, queries *inventory.QueryService) *ProductHandler {
	return &ProductHandler{mutator: mutator, queries: queries}
}

// Create godoc
// @Summary      Crear producto
// @Description  Crea un producto activo. Si quantity > 0 se registra una entrada inicial.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "name (o nombre) y quantity (o cantidad)"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.mutator.CreateItem(c.UserContext(), GetActor(c), in.ItemName(), in.InitialQuantity())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMutation(res))
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        active  query  bool  false  "Filtrar por estatus"
// @Success      200     {object}  dto.ProductListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var filter repository.ItemFilter
	if raw := c.Query("active", c.Query("activo")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "active debe ser true o false"})
		}
		filter.Active = &v
	}
	list, err := h.queries.ListItems(c.UserContext(), GetActor(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromItems(list))
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	item, err := h.queries.GetItem(c.UserContext(), GetActor(c), itemID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromItem(item))
}

// Update godoc
// @Summary      Actualizar producto
// @Description  Actualización parcial de name, quantity y active. Un cambio de cantidad registra
// @Description  una entrada o salida por la diferencia. Cambiar active requiere rol administrator.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.mutator.AdjustQuantity(c.UserContext(), GetActor(c), itemID(c), in.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromMutation(res))
}

// SetStatus godoc
// @Summary      Activar o desactivar producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.SetStatusRequest  true  "active (o activo), booleano"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/status [patch]
func (h *ProductHandler) SetStatus(c *fiber.Ctx) error {
	var in dto.SetStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	active := in.Value()
	if active == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "active es requerido"})
	}
	res, err := h.mutator.SetActive(c.UserContext(), GetActor(c), itemID(c), *active)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromMutation(res))
}

// Withdraw godoc
// @Summary      Sacar inventario
// @Description  Registra una salida. Con Idempotency-Key una clave repetida responde 409 DUPLICATE_REQUEST.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path    string  true   "ID del producto"
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body             body    dto.WithdrawRequest  true  "quantity (o cantidad) > 0"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/withdraw [patch]
func (h *ProductHandler) Withdraw(c *fiber.Ctx) error {
	var in dto.WithdrawRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	amount := in.Amount()
	if amount == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity es requerido"})
	}
	res, err := h.mutator.WithdrawOnce(c.UserContext(), GetActor(c), itemID(c), *amount, utils.CopyString(c.Get(HeaderIdempotencyKey)))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromMutation(res))
}

// Delete godoc
// @Summary      Eliminar producto
// @Description  Elimina el producto; su historial de movimientos se conserva.
// @Tags         products
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.mutator.DeleteItem(c.UserContext(), GetActor(c), itemID(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// History godoc
// @Summary      Historial de movimientos
// @Description  Más recientes primero. Un kind no reconocido se ignora.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        kind              query  string  false  "Inbound | Outbound (también Entrada | Salida)"
// @Param        tipo_movimiento   query  string  false  "Alias de kind"
// @Param        item_id           query  string  false  "Filtrar por producto"
// @Param        limit             query  int     false  "Límite"  default(100)
// @Param        offset            query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/products/history [get]
func (h *ProductHandler) History(c *fiber.Ctx) error {
	q := movementQuery(c)
	list, err := h.queries.ListMovements(c.UserContext(), GetActor(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromMovementViews(list, effectiveLimit(q.Limit), q.Offset))
}

// HistoryReport godoc
// @Summary      Historial de movimientos en PDF
// @Tags         movements
// @Security     Bearer
// @Produce      application/pdf
// @Param        kind     query  string  false  "Inbound | Outbound"
// @Param        item_id  query  string  false  "Filtrar por producto"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/products/history/report [get]
func (h *ProductHandler) HistoryReport(c *fiber.Ctx) error {
	pdf, filename, err := h.queries.MovementReport(c.UserContext(), GetActor(c), movementQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// Reconcile godoc
// @Summary      Conciliar cantidad contra el ledger
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/reconcile [get]
func (h *ProductHandler) Reconcile(c *fiber.Ctx) error {
	rec, err := h.queries.Reconcile(c.UserContext(), GetActor(c), itemID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromReconciliation(rec))
}

// itemID copia el parámetro: fasthttp reutiliza el buffer de la petición y el id
// puede terminar como clave de mapa en los stores.
func itemID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

func movementQuery(c *fiber.Ctx) inventory.MovementQuery {
	return inventory.MovementQuery{
		Kind:   utils.CopyString(c.Query("kind", c.Query("tipo_movimiento"))),
		ItemID: utils.CopyString(c.Query("item_id")),
		Limit:  c.QueryInt("limit", 0),
		Offset: max(c.QueryInt("offset", 0), 0),
	}
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return inventory.DefaultMovementLimit
	}
	return min(limit, inventory.MaxMovementLimit)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// writeError traduce la taxonomía de errores de dominio a status HTTP.
// Los fallos de infraestructura no exponen la causa al cliente.
func writeError(c *fiber.Ctx, err error) error {
	var stock *domain.InsufficientStockError
	switch {
	case errors.As(err, &stock):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   err.Error(),
			Available: &stock.Available,
			Requested: &stock.Requested,
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	case errors.Is(err, domain.ErrInactive):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "INACTIVE", Message: "producto no encontrado o no activo"})
	case errors.Is(err, domain.ErrDuplicateRequest):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_REQUEST", Message: "la solicitud ya fue procesada"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: "servicio no disponible, intente más tarde"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
