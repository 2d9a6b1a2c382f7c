package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CreateProductRequest entrada para crear un producto.
// Acepta también los nombres de campo heredados (nombre, cantidad).
type CreateProductRequest struct {
	Name     string `json:"name"`
	Nombre   string `json:"nombre"`
	Quantity *int64 `json:"quantity"`
	Cantidad *int64 `json:"cantidad"`
}

// ItemName nombre enviado, con prioridad para "name".
func (r CreateProductRequest) ItemName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Nombre
}

// InitialQuantity cantidad inicial enviada (0 si no viene).
func (r CreateProductRequest) InitialQuantity() int64 {
	if q := firstInt(r.Quantity, r.Cantidad); q != nil {
		return *q
	}
	return 0
}

// UpdateProductRequest actualización parcial; campo ausente = sin cambio.
type UpdateProductRequest struct {
	Name     *string `json:"name"`
	Nombre   *string `json:"nombre"`
	Quantity *int64  `json:"quantity"`
	Cantidad *int64  `json:"cantidad"`
	Active   *bool   `json:"active"`
	Activo   *bool   `json:"activo"`
}

// ToInput convierte la petición en el AdjustInput del caso de uso.
func (r UpdateProductRequest) ToInput() inventory.AdjustInput {
	in := inventory.AdjustInput{
		Name:     r.Name,
		Quantity: firstInt(r.Quantity, r.Cantidad),
		Active:   r.Active,
	}
	if in.Name == nil {
		in.Name = r.Nombre
	}
	if in.Active == nil {
		in.Active = r.Activo
	}
	return in
}

// SetStatusRequest cambio de estatus activo/inactivo.
type SetStatusRequest struct {
	Active *bool `json:"active"`
	Activo *bool `json:"activo"`
}

// Value estatus enviado; nil si no viene ninguno de los dos campos.
func (r SetStatusRequest) Value() *bool {
	if r.Active != nil {
		return r.Active
	}
	return r.Activo
}

// WithdrawRequest salida de inventario.
type WithdrawRequest struct {
	Quantity *int64 `json:"quantity"`
	Cantidad *int64 `json:"cantidad"`
}

// Amount cantidad a sacar; nil si no viene.
func (r WithdrawRequest) Amount() *int64 {
	return firstInt(r.Quantity, r.Cantidad)
}

func firstInt(a, b *int64) *int64 {
	if a != nil {
		return a
	}
	return b
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductListResponse lista de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID        int64     `json:"id"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name,omitempty"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	ActorID   string    `json:"actor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MutationResponse producto resultante y, si la cantidad cambió, el movimiento registrado.
type MutationResponse struct {
	Product  ProductResponse   `json:"product"`
	Movement *MovementResponse `json:"movement,omitempty"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconcileResponse comparación cantidad vs. ledger.
type ReconcileResponse struct {
	ItemID        string `json:"item_id"`
	Quantity      int64  `json:"quantity"`
	Inbound       int64  `json:"inbound"`
	Outbound      int64  `json:"outbound"`
	Movements     int64  `json:"movements"`
	LedgerBalance int64  `json:"ledger_balance"`
	Balanced      bool   `json:"balanced"`
}

// FromItem mapea la entidad a su respuesta.
func FromItem(it *entity.Item) ProductResponse {
	return ProductResponse{
		ID:        it.ID,
		Name:      it.Name,
		Quantity:  it.Quantity,
		Active:    it.Active,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

// FromItems mapea una lista de productos.
func FromItems(list []*entity.Item) ProductListResponse {
	out := ProductListResponse{Items: make([]ProductResponse, 0, len(list)), Total: len(list)}
	for _, it := range list {
		out.Items = append(out.Items, FromItem(it))
	}
	return out
}

// FromMovement mapea un registro del ledger.
func FromMovement(m *entity.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:        m.ID,
		ItemID:    m.ItemID,
		Kind:      string(m.Kind),
		Amount:    m.Amount,
		ActorID:   m.ActorID,
		CreatedAt: m.CreatedAt,
	}
}

// FromMutation mapea el resultado de una mutación.
func FromMutation(res *inventory.MutationResult) MutationResponse {
	out := MutationResponse{Product: FromItem(res.Item)}
	if res.Movement != nil {
		m := FromMovement(res.Movement)
		m.ItemName = res.Item.Name
		out.Movement = &m
	}
	return out
}

// FromMovementViews mapea una página del historial.
func FromMovementViews(list []*entity.MovementView, limit, offset int) MovementListResponse {
	out := MovementListResponse{
		Items: make([]MovementResponse, 0, len(list)),
		Page:  PageResponse{Limit: limit, Offset: offset},
	}
	for _, v := range list {
		m := FromMovement(&v.MovementRecord)
		m.ItemName = v.ItemName
		out.Items = append(out.Items, m)
	}
	return out
}

// FromReconciliation mapea el resultado de Reconcile.
func FromReconciliation(r *inventory.Reconciliation) ReconcileResponse {
	return ReconcileResponse{
		ItemID:        r.ItemID,
		Quantity:      r.Quantity,
		Inbound:       r.Inbound,
		Outbound:      r.Outbound,
		Movements:     r.Movements,
		LedgerBalance: r.LedgerBalance,
		Balanced:      r.Balanced,
	}
}
