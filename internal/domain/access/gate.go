// Package access centraliza la política de autorización por rol.
// Es la única tabla de permisos: ningún handler ni caso de uso decide permisos por su cuenta.
package access

import (
	"strings"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Operation operación sujeta a autorización.
type Operation string

// Operaciones del núcleo de inventario.
const (
	OpCreateItem          Operation = "CreateItem"
	OpAdjustQuantity      Operation = "AdjustQuantity" // campos name/quantity
	OpAdjustActive        Operation = "AdjustActive"   // campo active dentro de AdjustQuantity
	OpSetActive           Operation = "SetActive"
	OpWithdraw            Operation = "Withdraw"
	OpDeleteItem          Operation = "DeleteItem"
	OpViewMovementHistory Operation = "ViewMovementHistory"
	OpViewItems           Operation = "ViewItems"
)

// Operations lista todas las operaciones conocidas (orden estable).
var Operations = []Operation{
	OpCreateItem, OpAdjustQuantity, OpAdjustActive, OpSetActive,
	OpWithdraw, OpDeleteItem, OpViewMovementHistory, OpViewItems,
}

// Razones de decisión.
const (
	ReasonAllow       = "ROLE_ALLOWED"
	ReasonDeny        = "ROLE_DENIED"
	ReasonUnknownRole = "UNKNOWN_ROLE"
	ReasonUnknownOp   = "UNKNOWN_OPERATION"
)

// Decision resultado de Authorize.
type Decision struct {
	Allowed bool
	Reason  string
}

var (
	admin    = entity.RoleAdministrator
	stockist = entity.RoleStockist
	viewer   = entity.RoleViewer
)

// policy operación → roles permitidos.
var policy = map[Operation]map[entity.Role]bool{
	OpCreateItem:          {admin: true},
	OpAdjustQuantity:      {admin: true, stockist: true},
	OpAdjustActive:        {admin: true},
	OpSetActive:           {admin: true},
	OpWithdraw:            {admin: true, stockist: true},
	OpDeleteItem:          {admin: true},
	OpViewMovementHistory: {admin: true, stockist: true, viewer: true},
	OpViewItems:           {admin: true, stockist: true, viewer: true},
}

// Authorize función pura (rol, operación) → allow/deny.
func Authorize(role entity.Role, op Operation) Decision {
	if !ValidRole(role) {
		return Decision{Allowed: false, Reason: ReasonUnknownRole}
	}
	roles, ok := policy[op]
	if !ok {
		return Decision{Allowed: false, Reason: ReasonUnknownOp}
	}
	if roles[role] {
		return Decision{Allowed: true, Reason: ReasonAllow}
	}
	return Decision{Allowed: false, Reason: ReasonDeny}
}

// ValidRole indica si role pertenece al conjunto cerrado de roles.
func ValidRole(role entity.Role) bool {
	switch role {
	case entity.RoleAdministrator, entity.RoleStockist, entity.RoleViewer:
		return true
	}
	return false
}

// ParseRole convierte el claim de rol del token en un Role. Acepta los nombres
// heredados de la primera versión del sistema (administrador, almacenista, visualizador).
// Devuelve ok=false para roles desconocidos.
func ParseRole(s string) (entity.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "administrator", "administrador", "admin":
		return entity.RoleAdministrator, true
	case "stockist", "almacenista":
		return entity.RoleStockist, true
	case "viewer", "visualizador":
		return entity.RoleViewer, true
	}
	return entity.Role(s), false
}
