package entity

import (
	"strings"
	"time"
)

// MovementKind dirección de un movimiento de inventario.
type MovementKind string

// Tipos de movimiento de inventario.
const (
	MovementInbound  MovementKind = "Inbound"  // entrada
	MovementOutbound MovementKind = "Outbound" // salida
)

// ParseMovementKind acepta Inbound/Outbound (sin distinguir mayúsculas) y los valores
// históricos Entrada/Salida. ok=false si el valor no es reconocido.
func ParseMovementKind(s string) (MovementKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inbound", "in", "entrada":
		return MovementInbound, true
	case "outbound", "out", "salida":
		return MovementOutbound, true
	}
	return "", false
}

// Sign devuelve +1 para entradas y -1 para salidas.
func (k MovementKind) Sign() int64 {
	if k == MovementOutbound {
		return -1
	}
	return 1
}

// MovementRecord registro inmutable del ledger. Se crea una sola vez por cada
// cambio de cantidad confirmado; nunca se actualiza ni se borra.
type MovementRecord struct {
	ID        int64 // asignado por el store, monótono
	ItemID    string
	Kind      MovementKind
	Amount    int64  // magnitud > 0, sin signo
	ActorID   string // vacío = actor desconocido (NULL en BD)
	CreatedAt time.Time
}

// Signed devuelve la cantidad con signo según el tipo.
func (m *MovementRecord) Signed() int64 {
	return m.Kind.Sign() * m.Amount
}

// MovementView movimiento enriquecido con el nombre actual del producto.
// ItemName vacío si el producto fue eliminado.
type MovementView struct {
	MovementRecord
	ItemName string
}
