package movement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
	"github.com/jhoicas/wms-api/pkg/logger"
)

// DestinationPolicy decide si una ubicación puede recibir stock en un put-away.
// Es un punto de extensión: la política por defecto rechaza destinos inactivos
// y de cuarentena.
type DestinationPolicy func(loc *entity.Location) error

// DefaultPutawayPolicy política estándar de destino para put-away.
func DefaultPutawayPolicy(loc *entity.Location) error {
	if !loc.IsActive {
		return domain.ErrLocationInactive
	}
	if loc.Type == entity.LocationTypeQuarantine {
		return domain.ErrQuarantineRestricted
	}
	return nil
}

// ExecuteMovementUseCase ejecuta las cuatro operaciones de inventario
// (PUTAWAY, ISSUE, INTERNAL_MOVE, TRANSFER) contra el libro de stock de forma
// transaccional, con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
// Un lote se aplica completo o no se aplica: cualquier línea inválida o sin
// saldo revierte todas las demás.
type ExecuteMovementUseCase struct {
	txRunner      TxRunner
	warehouseRepo repository.WarehouseRepository
	locationRepo  repository.LocationRepository
	movementRepo  repository.MovementRepository // atado al pool, para anotar el doc ERP tras el commit
	auditRepo     repository.AuditRepository
	erp           ERPBridge
	putawayPolicy DestinationPolicy
	log           *logger.Logger
}

// NewExecuteMovementUseCase construye el caso de uso. erp puede ser nil
// (modo local: los transfers no postean documento).
func NewExecuteMovementUseCase(
	txRunner TxRunner,
	warehouseRepo repository.WarehouseRepository,
	locationRepo repository.LocationRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	erp ERPBridge,
	log *logger.Logger,
) *ExecuteMovementUseCase {
	return &ExecuteMovementUseCase{
		txRunner:      txRunner,
		warehouseRepo: warehouseRepo,
		locationRepo:  locationRepo,
		movementRepo:  movementRepo,
		auditRepo:     auditRepo,
		erp:           erp,
		putawayPolicy: DefaultPutawayPolicy,
		log:           log,
	}
}

// SetPutawayPolicy reemplaza la política de destino (hook de pruebas/negocio).
func (uc *ExecuteMovementUseCase) SetPutawayPolicy(p DestinationPolicy) {
	uc.putawayPolicy = p
}

// ── Put-away ──────────────────────────────────────────────────────────────────

// ExecutePutaway ingresa stock en ubicaciones de destino. Una línea por
// movimiento; el chequeo de capacidad del destino corre dentro de la tx.
func (uc *ExecuteMovementUseCase) ExecutePutaway(ctx context.Context, user string, req dto.PutawayRequest) (*dto.MovementResponse, error) {
	if req.Whs == "" || len(req.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireWarehouse(req.Whs); err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		if line.Item == "" || !line.Qty.GreaterThan(decimal.Zero) || line.ToLocationID == nil {
			return nil, domain.ErrInvalidInput
		}
		loc, err := uc.locationRepo.GetByID(*line.ToLocationID)
		if err != nil {
			return nil, err
		}
		if loc.WhsCode != req.Whs {
			return nil, domain.ErrNotFound
		}
		if err := uc.putawayPolicy(loc); err != nil {
			return nil, err
		}
	}

	key := uuid.New().String()
	ref := "PUTAWAY-" + key
	now := time.Now().UTC()

	err := uc.txRunner.Run(ctx, func(
		locRepo repository.LocationRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error {
		for _, line := range req.Lines {
			if err := applyIncrement(locRepo, stockRepo, req.Whs, *line.ToLocationID, line, now); err != nil {
				return err
			}
			if err := movRepo.Create(&entity.Movement{
				Type:           entity.MovementTypePutaway,
				ToWhs:          req.Whs,
				ToLocationID:   line.ToLocationID,
				ItemCode:       line.Item,
				LotNo:          line.Lot,
				Qty:            line.Qty,
				UoM:            line.UoM,
				Reference:      ref,
				IdempotencyKey: key,
				CreatedBy:      user,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(user, "putaway", req)
	return &dto.MovementResponse{Ok: true, MovementsCreated: len(req.Lines), Reference: ref}, nil
}

// ── Issue ─────────────────────────────────────────────────────────────────────

// ExecuteIssue retira stock de ubicaciones de origen. Falla con
// ErrInsufficientStock (y no toca ningún saldo) si alguna línea excede el
// saldo disponible.
func (uc *ExecuteMovementUseCase) ExecuteIssue(ctx context.Context, user string, req dto.IssueRequest) (*dto.MovementResponse, error) {
	if req.Whs == "" || len(req.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireWarehouse(req.Whs); err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		if line.Item == "" || !line.Qty.GreaterThan(decimal.Zero) || line.FromLocationID == nil {
			return nil, domain.ErrInvalidInput
		}
		loc, err := uc.locationRepo.GetByID(*line.FromLocationID)
		if err != nil {
			return nil, err
		}
		if loc.WhsCode != req.Whs {
			return nil, domain.ErrNotFound
		}
	}

	key := uuid.New().String()
	ref := "ISSUE-" + key
	if req.Reason != "" {
		ref = "ISSUE-" + req.Reason + "-" + key
	}
	now := time.Now().UTC()

	err := uc.txRunner.Run(ctx, func(
		locRepo repository.LocationRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error {
		for _, line := range req.Lines {
			if err := applyDecrement(stockRepo, *line.FromLocationID, line.Item, line.Lot, line.Qty, now); err != nil {
				return err
			}
			if err := movRepo.Create(&entity.Movement{
				Type:           entity.MovementTypeIssue,
				FromWhs:        req.Whs,
				FromLocationID: line.FromLocationID,
				ItemCode:       line.Item,
				LotNo:          line.Lot,
				Qty:            line.Qty,
				UoM:            line.UoM,
				Reference:      ref,
				IdempotencyKey: key,
				CreatedBy:      user,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(user, "issue", req)
	return &dto.MovementResponse{Ok: true, MovementsCreated: len(req.Lines), Reference: ref}, nil
}

// ── Internal move ─────────────────────────────────────────────────────────────

// ExecuteInternalMove traslada stock entre ubicaciones de la misma bodega.
// Equivale a un issue+putaway aplicado atómicamente: un único registro
// INTERNAL_MOVE por línea, una sola transacción para todo el lote.
func (uc *ExecuteMovementUseCase) ExecuteInternalMove(ctx context.Context, user string, req dto.InternalMoveRequest) (*dto.MovementResponse, error) {
	if req.Whs == "" || len(req.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireWarehouse(req.Whs); err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		if line.Item == "" || !line.Qty.GreaterThan(decimal.Zero) ||
			line.FromLocationID == nil || line.ToLocationID == nil ||
			*line.FromLocationID == *line.ToLocationID {
			return nil, domain.ErrInvalidInput
		}
		from, err := uc.locationRepo.GetByID(*line.FromLocationID)
		if err != nil {
			return nil, err
		}
		to, err := uc.locationRepo.GetByID(*line.ToLocationID)
		if err != nil {
			return nil, err
		}
		// ambas ubicaciones deben pertenecer a la bodega declarada
		if from.WhsCode != req.Whs || to.WhsCode != req.Whs {
			return nil, domain.ErrNotFound
		}
		if !to.IsActive {
			return nil, domain.ErrLocationInactive
		}
	}

	key := uuid.New().String()
	ref := "INTERNAL-" + key
	now := time.Now().UTC()

	err := uc.txRunner.Run(ctx, func(
		locRepo repository.LocationRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error {
		for _, line := range req.Lines {
			// los extremos se bloquean en orden ascendente de id: dos
			// traslados opuestos sobre las mismas ubicaciones toman los
			// locks en el mismo orden y no pueden interbloquearse
			if *line.ToLocationID < *line.FromLocationID {
				if err := applyIncrement(locRepo, stockRepo, req.Whs, *line.ToLocationID, line, now); err != nil {
					return err
				}
				if err := applyDecrement(stockRepo, *line.FromLocationID, line.Item, line.Lot, line.Qty, now); err != nil {
					return err
				}
			} else {
				if err := applyDecrement(stockRepo, *line.FromLocationID, line.Item, line.Lot, line.Qty, now); err != nil {
					return err
				}
				if err := applyIncrement(locRepo, stockRepo, req.Whs, *line.ToLocationID, line, now); err != nil {
					return err
				}
			}
			if err := movRepo.Create(&entity.Movement{
				Type:           entity.MovementTypeInternalMove,
				FromWhs:        req.Whs,
				FromLocationID: line.FromLocationID,
				ToWhs:          req.Whs,
				ToLocationID:   line.ToLocationID,
				ItemCode:       line.Item,
				LotNo:          line.Lot,
				Qty:            line.Qty,
				UoM:            line.UoM,
				Reference:      ref,
				IdempotencyKey: key,
				CreatedBy:      user,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(user, "internal_move", req)
	return &dto.MovementResponse{Ok: true, MovementsCreated: len(req.Lines), Reference: ref}, nil
}

// ── Warehouse transfer ────────────────────────────────────────────────────────

// ExecuteTransfer traslada stock entre bodegas distintas. El libro local
// confirma primero; el documento ERP se postea después del commit, sin
// sostener ningún lock. Un fallo del ERP no revierte el libro: se devuelve
// como advertencia con la referencia idempotente para reintento fuera de banda.
func (uc *ExecuteMovementUseCase) ExecuteTransfer(ctx context.Context, user string, req dto.TransferRequest) (*dto.MovementResponse, error) {
	if req.FromWhs == "" || req.ToWhs == "" || req.FromWhs == req.ToWhs || len(req.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireWarehouse(req.FromWhs); err != nil {
		return nil, err
	}
	if err := uc.requireWarehouse(req.ToWhs); err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		if line.Item == "" || !line.Qty.GreaterThan(decimal.Zero) ||
			line.FromLocationID == nil || line.ToLocationID == nil {
			return nil, domain.ErrInvalidInput
		}
		from, err := uc.locationRepo.GetByID(*line.FromLocationID)
		if err != nil {
			return nil, err
		}
		to, err := uc.locationRepo.GetByID(*line.ToLocationID)
		if err != nil {
			return nil, err
		}
		// cada extremo se valida dentro de su propia bodega
		if from.WhsCode != req.FromWhs || to.WhsCode != req.ToWhs {
			return nil, domain.ErrNotFound
		}
		if !to.IsActive {
			return nil, domain.ErrLocationInactive
		}
	}

	key := uuid.New().String()
	ref := "TRANSFER-" + key
	now := time.Now().UTC()

	err := uc.txRunner.Run(ctx, func(
		locRepo repository.LocationRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error {
		for _, line := range req.Lines {
			if err := applyDecrement(stockRepo, *line.FromLocationID, line.Item, line.Lot, line.Qty, now); err != nil {
				return err
			}
			if err := applyIncrement(locRepo, stockRepo, req.ToWhs, *line.ToLocationID, line, now); err != nil {
				return err
			}
			if err := movRepo.Create(&entity.Movement{
				Type:           entity.MovementTypeTransfer,
				FromWhs:        req.FromWhs,
				FromLocationID: line.FromLocationID,
				ToWhs:          req.ToWhs,
				ToLocationID:   line.ToLocationID,
				ItemCode:       line.Item,
				LotNo:          line.Lot,
				Qty:            line.Qty,
				UoM:            line.UoM,
				Reference:      ref,
				IdempotencyKey: key,
				CreatedBy:      user,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(user, "warehouse_transfer", req)
	resp := &dto.MovementResponse{Ok: true, MovementsCreated: len(req.Lines), Reference: ref}

	// Posteo ERP tras el commit local: fire-and-forward con su propia política
	// de timeout/reintentos dentro del cliente.
	if uc.erp != nil {
		doc := ERPDocument{FromWhs: req.FromWhs, ToWhs: req.ToWhs, Reference: ref}
		for _, line := range req.Lines {
			doc.Lines = append(doc.Lines, ERPLine{Item: line.Item, Lot: line.Lot, Qty: line.Qty})
		}
		result, erpErr := uc.erp.InventoryTransfer(ctx, doc)
		if erpErr != nil {
			uc.log.Warn().Err(erpErr).Str("reference", ref).
				Msg("posteo ERP de transfer falló; el libro local queda confirmado, reintentar fuera de banda")
			resp.ERPWarning = warningFor(erpErr, ref)
		} else {
			if err := uc.movementRepo.SetERPDoc(ref, "InventoryTransfer", result.DocEntry); err != nil {
				uc.log.Warn().Err(err).Str("reference", ref).Msg("no se pudo anotar el doc ERP en los movimientos")
			}
			resp.ERPDocEntry = &result.DocEntry
		}
	}
	return resp, nil
}

// ── Ajustes de conteo (misma transacción del caller) ─────────────────────────

// AdjustmentLine un ajuste correctivo derivado de una varianza de conteo.
type AdjustmentLine struct {
	Whs        string
	LocationID int64
	Item       string
	Lot        string
	Variance   decimal.Decimal // counted - expected; el signo decide PUTAWAY o ISSUE
	Reference  string
	User       string
}

// ApplyAdjustmentInTx postea un movimiento correctivo usando los repositorios
// proporcionados (misma transacción del caller). Lo usa el motor de conteos
// para que el movimiento y la marca adjusted de la línea confirmen juntos.
func (uc *ExecuteMovementUseCase) ApplyAdjustmentInTx(
	locRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	adj AdjustmentLine,
	now time.Time,
) error {
	if adj.Variance.IsZero() {
		return nil
	}
	qty := adj.Variance.Abs()
	line := dto.MovementLine{Item: adj.Item, Lot: adj.Lot, Qty: qty}

	if adj.Variance.GreaterThan(decimal.Zero) {
		if err := applyIncrement(locRepo, stockRepo, adj.Whs, adj.LocationID, line, now); err != nil {
			return err
		}
		return movRepo.Create(&entity.Movement{
			Type:         entity.MovementTypePutaway,
			ToWhs:        adj.Whs,
			ToLocationID: &adj.LocationID,
			ItemCode:     adj.Item,
			LotNo:        adj.Lot,
			Qty:          qty,
			Reference:    adj.Reference,
			CreatedBy:    adj.User,
			CreatedAt:    now,
		})
	}

	if err := applyDecrement(stockRepo, adj.LocationID, adj.Item, adj.Lot, qty, now); err != nil {
		return err
	}
	return movRepo.Create(&entity.Movement{
		Type:           entity.MovementTypeIssue,
		FromWhs:        adj.Whs,
		FromLocationID: &adj.LocationID,
		ItemCode:       adj.Item,
		LotNo:          adj.Lot,
		Qty:            qty,
		Reference:      adj.Reference,
		CreatedBy:      adj.User,
		CreatedAt:      now,
	})
}

// ── Helpers de transacción ────────────────────────────────────────────────────

// applyDecrement bloquea el saldo de origen y lo reduce; ErrInsufficientStock
// si la cantidad post-decremento quedaría negativa (el saldo no se toca).
func applyDecrement(stockRepo repository.StockRepository, locationID int64, item, lot string, qty decimal.Decimal, now time.Time) error {
	balance, err := stockRepo.GetForUpdate(locationID, item, lot)
	if err != nil {
		return err
	}
	if balance.Qty.LessThan(qty) {
		return domain.ErrInsufficientStock
	}
	balance.Qty = balance.Qty.Sub(qty)
	balance.LastUpdated = now
	return stockRepo.Upsert(balance)
}

// applyIncrement suma al saldo de destino con chequeo de capacidad. La fila de
// la ubicación se bloquea primero: ese lock serializa los put-away concurrentes
// al mismo destino para que el agregado no rebase la capacidad.
func applyIncrement(locRepo repository.LocationRepository, stockRepo repository.StockRepository, whs string, locationID int64, line dto.MovementLine, now time.Time) error {
	loc, err := locRepo.GetForUpdate(locationID)
	if err != nil {
		return err
	}
	if loc.CapacityQty != nil {
		aggregate, err := stockRepo.AggregateQty(locationID)
		if err != nil {
			return err
		}
		if aggregate.Add(line.Qty).GreaterThan(*loc.CapacityQty) {
			return domain.ErrCapacityExceeded
		}
	}
	balance, err := stockRepo.GetForUpdate(locationID, line.Item, line.Lot)
	if err != nil {
		return err
	}
	balance.WhsCode = whs
	balance.Qty = balance.Qty.Add(line.Qty)
	if line.UoM != "" {
		balance.UoM = line.UoM
	}
	balance.LastUpdated = now
	return stockRepo.Upsert(balance)
}

func (uc *ExecuteMovementUseCase) requireWarehouse(whsCode string) error {
	wh, err := uc.warehouseRepo.GetByCode(whsCode)
	if err != nil {
		return err
	}
	if wh == nil || !wh.Active {
		return domain.ErrNotFound
	}
	return nil
}

// audit registra la operación en el rastro de auditoría; un fallo de auditoría
// no tumba la operación ya confirmada.
func (uc *ExecuteMovementUseCase) audit(user, action string, payload any) {
	if uc.auditRepo == nil {
		return
	}
	if err := uc.auditRepo.Append(entity.NewAuditEntry(user, action, payload)); err != nil {
		uc.log.Warn().Err(err).Str("action", action).Msg("no se pudo escribir la auditoría")
	}
}

func warningFor(err error, ref string) *dto.ERPWarning {
	if ext, ok := err.(*ExternalError); ok {
		return &dto.ERPWarning{Code: ext.Code, Message: ext.Message, Reference: ref}
	}
	return &dto.ERPWarning{Code: "CONNECTION_ERROR", Message: err.Error(), Reference: ref}
}
