package repository

import "github.com/jhoicas/wms-api/internal/domain/entity"

// MovementFilter filtros del listado de la historia de movimientos.
type MovementFilter struct {
	WhsCode  string // coincide contra origen o destino
	ItemCode string
	Type     string
	Limit    int
}

// MovementRepository define el puerto de persistencia del libro de movimientos.
// Los movimientos son append-only: no hay update ni delete de registros.
type MovementRepository interface {
	Create(movement *entity.Movement) error
	List(f MovementFilter) ([]*entity.Movement, error)
	// SetERPDoc anota el documento ERP posteado sobre movimientos ya confirmados
	// (se invoca fuera de la transacción del libro, tras la llamada al puente).
	SetERPDoc(reference, docType string, docEntry int) error
}
