package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-api/internal/domain/entity"
)

// StockSummary agregado de un ítem en una bodega (para conciliación con el ERP).
type StockSummary struct {
	WhsCode       string
	ItemCode      string
	ItemName      string
	TotalQty      decimal.Decimal
	UoM           string
	LocationCount int
}

// LocationUtilization utilización de una ubicación con capacidad declarada.
type LocationUtilization struct {
	LocationID     int64
	LocationCode   string
	CapacityQty    decimal.Decimal
	CapacityUoM    string
	CurrentQty     decimal.Decimal
	UtilizationPct decimal.Decimal
}

// StockRepository define el puerto para consultar/actualizar saldos por
// (bodega, ubicación, ítem, lote). Las mutaciones se usan dentro de
// transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve el saldo actual; si no hay fila, un saldo en cero (no error).
	Get(locationID int64, itemCode, lotNo string) (*entity.StockBalance, error)
	// GetForUpdate bloquea la fila del saldo (SELECT FOR UPDATE).
	GetForUpdate(locationID int64, itemCode, lotNo string) (*entity.StockBalance, error)
	// Upsert inserta o actualiza la cantidad del saldo.
	Upsert(balance *entity.StockBalance) error
	// AggregateQty suma todos los saldos de una ubicación (chequeo de capacidad).
	AggregateQty(locationID int64) (decimal.Decimal, error)
	// DistinctTuples cuenta las tuplas ítem/lote con saldo positivo en la ubicación.
	DistinctTuples(locationID int64) (int, error)

	// Proyecciones de solo lectura (snapshot consistente: una sola consulta).
	ListByLocation(locationID int64) ([]*entity.StockBalance, error)
	ListByItem(whsCode, itemCode string) ([]*entity.StockBalance, error)
	Summary(whsCode, itemCode string) (*StockSummary, error)
	LowUtilization(whsCode string, thresholdPct float64) ([]*LocationUtilization, error)
}
