package entity

import "github.com/shopspring/decimal"

// Tipos de ubicación.
const (
	LocationTypeReceiving  = "RECEIVING"
	LocationTypeStorage    = "STORAGE"
	LocationTypePicking    = "PICKING"
	LocationTypeReturns    = "RETURNS"
	LocationTypeQuarantine = "QUARANTINE"
)

// ValidLocationType indica si s es uno de los tipos de ubicación conocidos.
func ValidLocationType(s string) bool {
	switch s {
	case LocationTypeReceiving, LocationTypeStorage, LocationTypePicking,
		LocationTypeReturns, LocationTypeQuarantine:
		return true
	}
	return false
}

// Location representa una ubicación física dentro de una bodega.
// La identidad de negocio es (WhsCode, Code); nunca se borra físicamente
// una vez tiene historial en el libro de stock: se desactiva.
type Location struct {
	ID          int64
	WhsCode     string
	Code        string
	Name        string
	Section     string
	Aisle       string
	Rack        string
	Level       string
	Bin         string
	Type        string
	CapacityQty *decimal.Decimal // nil = capacidad ilimitada
	CapacityUoM string
	Attributes  string // JSON libre aplicado en la generación masiva
	IsActive    bool
}
