package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Item representa un producto del inventario con su cantidad disponible.
// Quantity solo cambia vía movimientos (siempre igual a la suma firmada del ledger).
type Item struct {
	ID        string
	Name      string // único entre todos los productos, incluidos los inactivos
	Quantity  int64  // nunca negativo
	Active    bool   // inactivo = no se puede sacar inventario, sigue siendo consultable
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaxNameLength largo máximo del nombre en caracteres (VARCHAR(255) en MySQL).
const MaxNameLength = 255

// NameTooLong informa si name excede MaxNameLength caracteres.
func NameTooLong(name string) bool {
	return utf8.RuneCountInString(name) > MaxNameLength
}

// NormalizeName recorta espacios y normaliza a NFC para que dos nombres visualmente
// idénticos choquen en el índice único.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
