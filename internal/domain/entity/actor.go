package entity

// Role rol de un actor dentro del sistema.
type Role string

// Roles válidos (conjunto cerrado).
const (
	RoleAdministrator Role = "administrator"
	RoleStockist      Role = "stockist"
	RoleViewer        Role = "viewer"
)

// Actor identidad ya autenticada que ejecuta una operación (la resuelve la capa externa).
type Actor struct {
	ID   string // vacío = actor desconocido
	Role Role
}
