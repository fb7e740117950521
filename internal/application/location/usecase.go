package location

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/pattern"
	"github.com/jhoicas/wms-api/internal/domain/repository"
	"github.com/jhoicas/wms-api/pkg/logger"
)

// RegistryUseCase administra el catálogo de ubicaciones: CRUD, búsqueda,
// generación masiva desde patrón y consultas de capacidad.
type RegistryUseCase struct {
	warehouseRepo repository.WarehouseRepository
	locationRepo  repository.LocationRepository
	stockRepo     repository.StockRepository
	auditRepo     repository.AuditRepository
	maxExpansion  int64 // tope de combinaciones por corrida de generación
	log           *logger.Logger
}

// NewRegistryUseCase construye el caso de uso del registro de ubicaciones.
func NewRegistryUseCase(
	warehouseRepo repository.WarehouseRepository,
	locationRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
	maxExpansion int,
	log *logger.Logger,
) *RegistryUseCase {
	return &RegistryUseCase{
		warehouseRepo: warehouseRepo,
		locationRepo:  locationRepo,
		stockRepo:     stockRepo,
		auditRepo:     auditRepo,
		maxExpansion:  int64(maxExpansion),
		log:           log,
	}
}

// CreateWarehouse registra una bodega nueva.
func (uc *RegistryUseCase) CreateWarehouse(ctx context.Context, user string, req dto.CreateWarehouseRequest) (*entity.Warehouse, error) {
	if req.WhsCode == "" || len(req.WhsCode) > 8 {
		return nil, domain.ErrInvalidInput
	}
	wh := &entity.Warehouse{WhsCode: req.WhsCode, Name: req.Name, Active: true}
	if err := uc.warehouseRepo.Create(wh); err != nil {
		return nil, err
	}
	uc.audit(user, "create_warehouse", req)
	return wh, nil
}

// ListWarehouses lista las bodegas registradas.
func (uc *RegistryUseCase) ListWarehouses(ctx context.Context) ([]*entity.Warehouse, error) {
	return uc.warehouseRepo.List(false)
}

// Create registra una ubicación individual. ErrDuplicate si (whs, code) ya existe.
func (uc *RegistryUseCase) Create(ctx context.Context, user, whsCode string, req dto.CreateLocationRequest) (*entity.Location, error) {
	if whsCode == "" || req.Code == "" {
		return nil, domain.ErrInvalidInput
	}
	if req.Type != "" && !entity.ValidLocationType(req.Type) {
		return nil, domain.ErrInvalidInput
	}
	if req.CapacityQty != nil && req.CapacityQty.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireWarehouse(whsCode); err != nil {
		return nil, err
	}

	loc := &entity.Location{
		WhsCode:     whsCode,
		Code:        req.Code,
		Name:        req.Name,
		Section:     req.Section,
		Aisle:       req.Aisle,
		Rack:        req.Rack,
		Level:       req.Level,
		Bin:         req.Bin,
		Type:        req.Type,
		CapacityQty: req.CapacityQty,
		CapacityUoM: req.CapacityUoM,
		Attributes:  req.Attributes,
		IsActive:    true,
	}
	if err := uc.locationRepo.Create(loc); err != nil {
		return nil, err
	}
	uc.audit(user, "create_location", req)
	return loc, nil
}

// Get devuelve una ubicación por id.
func (uc *RegistryUseCase) Get(ctx context.Context, id int64) (*entity.Location, error) {
	return uc.locationRepo.GetByID(id)
}

// List lista las ubicaciones de una bodega con filtros, en orden de código.
func (uc *RegistryUseCase) List(ctx context.Context, whsCode string, f repository.LocationFilter) ([]*entity.Location, error) {
	if err := uc.requireWarehouse(whsCode); err != nil {
		return nil, err
	}
	return uc.locationRepo.ListByWarehouse(whsCode, f)
}

// Search busca ubicaciones activas por subcadena de código o nombre.
func (uc *RegistryUseCase) Search(ctx context.Context, q, whsCode, locType string, limit int) ([]*entity.Location, error) {
	if q == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return uc.locationRepo.Search(q, whsCode, locType, limit)
}

// Update aplica un patch parcial. La identidad (whs, code) no se puede cambiar;
// para retirar una ubicación con historial se desactiva, nunca se borra.
func (uc *RegistryUseCase) Update(ctx context.Context, user string, id int64, req dto.UpdateLocationRequest) (*entity.Location, error) {
	loc, err := uc.locationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req.Type != nil {
		if !entity.ValidLocationType(*req.Type) {
			return nil, domain.ErrInvalidInput
		}
		loc.Type = *req.Type
	}
	if req.CapacityQty != nil {
		if req.CapacityQty.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		loc.CapacityQty = req.CapacityQty
	}
	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Section != nil {
		loc.Section = *req.Section
	}
	if req.Aisle != nil {
		loc.Aisle = *req.Aisle
	}
	if req.Rack != nil {
		loc.Rack = *req.Rack
	}
	if req.Level != nil {
		loc.Level = *req.Level
	}
	if req.Bin != nil {
		loc.Bin = *req.Bin
	}
	if req.CapacityUoM != nil {
		loc.CapacityUoM = *req.CapacityUoM
	}
	if req.Attributes != nil {
		loc.Attributes = *req.Attributes
	}
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}
	if err := uc.locationRepo.Update(loc); err != nil {
		return nil, err
	}
	uc.audit(user, "update_location", map[string]any{"location_id": id, "patch": req})
	return loc, nil
}

// BulkGenerate expande el patrón y crea las ubicaciones que no existan.
// La validación del patrón es todo-o-nada; las inserciones son idempotentes
// por código: re-ejecutar el mismo patrón no crea duplicados ni falla, solo
// incrementa skipped. La cancelación del contexto detiene la corrida dejando
// lo ya insertado (la re-corrida lo salta).
func (uc *RegistryUseCase) BulkGenerate(ctx context.Context, user, whsCode string, req dto.BulkGenerateRequest) (*dto.BulkGenerateResponse, error) {
	if req.Type != "" && !entity.ValidLocationType(req.Type) {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireWarehouse(whsCode); err != nil {
		return nil, err
	}

	p, err := pattern.Parse(req.Pattern)
	if err != nil {
		return nil, err
	}
	codes, err := p.Expand(ctx, uc.maxExpansion)
	if err != nil {
		return nil, err
	}

	resp := &dto.BulkGenerateResponse{}
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exists, err := uc.locationRepo.Exists(whsCode, code)
		if err != nil {
			return nil, err
		}
		if exists {
			resp.Skipped++
			continue
		}
		section, aisle, rack, level, bin := pattern.Hierarchy(code)
		loc := &entity.Location{
			WhsCode:    whsCode,
			Code:       code,
			Section:    section,
			Aisle:      aisle,
			Rack:       rack,
			Level:      level,
			Bin:        bin,
			Type:       req.Type,
			Attributes: req.Attributes,
			IsActive:   true,
		}
		if err := uc.locationRepo.Create(loc); err != nil {
			// carrera con otra corrida del mismo patrón: contar como saltada
			if errors.Is(err, domain.ErrDuplicate) {
				resp.Skipped++
				continue
			}
			return nil, err
		}
		resp.Created++
	}

	uc.audit(user, "bulk_generate_locations", map[string]any{
		"warehouse": whsCode,
		"pattern":   req.Pattern,
		"created":   resp.Created,
		"skipped":   resp.Skipped,
	})
	return resp, nil
}

// CapacitySnapshot devuelve la foto de capacidad de una ubicación. Sin
// capacidad declarada la utilización no se computa (destino ilimitado).
func (uc *RegistryUseCase) CapacitySnapshot(ctx context.Context, id int64) (*dto.CapacitySnapshotResponse, error) {
	loc, err := uc.locationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	current, err := uc.stockRepo.AggregateQty(id)
	if err != nil {
		return nil, err
	}
	items, err := uc.stockRepo.DistinctTuples(id)
	if err != nil {
		return nil, err
	}

	snap := &dto.CapacitySnapshotResponse{
		LocationID:   loc.ID,
		LocationCode: loc.Code,
		CapacityQty:  loc.CapacityQty,
		CapacityUoM:  loc.CapacityUoM,
		CurrentQty:   current,
		CurrentItems: items,
	}
	if loc.CapacityQty != nil && loc.CapacityQty.GreaterThan(decimal.Zero) {
		pct := current.Div(*loc.CapacityQty).Mul(decimal.NewFromInt(100))
		snap.UtilizationPct = &pct
	}
	return snap, nil
}

func (uc *RegistryUseCase) requireWarehouse(whsCode string) error {
	wh, err := uc.warehouseRepo.GetByCode(whsCode)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.ErrNotFound
	}
	return nil
}

func (uc *RegistryUseCase) audit(user, action string, payload any) {
	if uc.auditRepo == nil {
		return
	}
	if err := uc.auditRepo.Append(entity.NewAuditEntry(user, action, payload)); err != nil {
		uc.log.Warn().Err(err).Str("action", action).Msg("no se pudo escribir la auditoría")
	}
}
