package entity

// Warehouse representa una bodega física identificada por su código corto (ej. "WH01").
type Warehouse struct {
	ID      int64
	WhsCode string
	Name    string
	Active  bool
}
