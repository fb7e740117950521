package repository

import "github.com/jhoicas/wms-api/internal/domain/entity"

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
type WarehouseRepository interface {
	Create(warehouse *entity.Warehouse) error
	GetByCode(whsCode string) (*entity.Warehouse, error)
	List(activeOnly bool) ([]*entity.Warehouse, error)
}
