package movement

import (
	"context"

	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

// StockQueryUseCase proyecciones de solo lectura sobre el libro de stock.
// Cada proyección es una sola consulta: refleja un snapshot consistente y
// nunca devuelve estado a medio escribir.
type StockQueryUseCase struct {
	locationRepo repository.LocationRepository
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
}

// NewStockQueryUseCase construye el caso de uso de consultas.
func NewStockQueryUseCase(
	locationRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
) *StockQueryUseCase {
	return &StockQueryUseCase{
		locationRepo: locationRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
	}
}

// BalancesByLocation devuelve los saldos positivos de una ubicación.
func (uc *StockQueryUseCase) BalancesByLocation(ctx context.Context, locationID int64) ([]*entity.StockBalance, error) {
	if _, err := uc.locationRepo.GetByID(locationID); err != nil {
		return nil, err
	}
	return uc.stockRepo.ListByLocation(locationID)
}

// BalancesByItem devuelve dónde está un ítem dentro de una bodega.
func (uc *StockQueryUseCase) BalancesByItem(ctx context.Context, whsCode, itemCode string) ([]*entity.StockBalance, error) {
	if whsCode == "" || itemCode == "" {
		return nil, domain.ErrInvalidInput
	}
	balances, err := uc.stockRepo.ListByItem(whsCode, itemCode)
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		return nil, domain.ErrNotFound
	}
	return balances, nil
}

// Summary agregado de un ítem para conciliación contra el ERP.
func (uc *StockQueryUseCase) Summary(ctx context.Context, whsCode, itemCode string) (*repository.StockSummary, error) {
	if whsCode == "" || itemCode == "" {
		return nil, domain.ErrInvalidInput
	}
	summary, err := uc.stockRepo.Summary(whsCode, itemCode)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, domain.ErrNotFound
	}
	return summary, nil
}

// LowUtilization ubicaciones capacitadas por debajo del umbral, ascendente
// por utilización. Las ubicaciones sin capacidad declarada no aparecen.
func (uc *StockQueryUseCase) LowUtilization(ctx context.Context, whsCode string, thresholdPct float64) ([]*repository.LocationUtilization, error) {
	if thresholdPct <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.stockRepo.LowUtilization(whsCode, thresholdPct)
}

// History lista el libro de movimientos con filtros.
func (uc *StockQueryUseCase) History(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return uc.movementRepo.List(f)
}
