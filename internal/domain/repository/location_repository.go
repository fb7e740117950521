package repository

import "github.com/jhoicas/wms-api/internal/domain/entity"

// LocationFilter filtros del listado de ubicaciones por bodega.
type LocationFilter struct {
	CodeLike   string // subcadena del código
	Type       string // tipo exacto
	ActiveOnly bool
}

// LocationRepository define el puerto de persistencia para Location.
// La identidad de negocio (whs_code, code) es única y no se puede cambiar.
type LocationRepository interface {
	// Create persiste la ubicación; ErrDuplicate si (whs_code, code) ya existe.
	Create(loc *entity.Location) error
	GetByID(id int64) (*entity.Location, error)
	// GetForUpdate bloquea la fila de la ubicación (SELECT FOR UPDATE); es el
	// punto de serialización del chequeo de capacidad del destino.
	GetForUpdate(id int64) (*entity.Location, error)
	Exists(whsCode, code string) (bool, error)
	// ListByWarehouse devuelve las ubicaciones en orden de código.
	ListByWarehouse(whsCode string, f LocationFilter) ([]*entity.Location, error)
	// Search busca por subcadena de código o nombre, solo activas.
	Search(q, whsCode, locType string, limit int) ([]*entity.Location, error)
	Update(loc *entity.Location) error
}
