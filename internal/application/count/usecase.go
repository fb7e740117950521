package count

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/application/movement"
	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
	"github.com/jhoicas/wms-api/pkg/logger"
)

// UseCase implementa el ciclo de vida del conteo cíclico: crear la sesión con
// el snapshot congelado, digitar cantidades y aplicar los ajustes resultantes.
type UseCase struct {
	txRunner      movement.TxRunner
	warehouseRepo repository.WarehouseRepository
	locationRepo  repository.LocationRepository
	stockRepo     repository.StockRepository
	countRepo     repository.CountRepository
	auditRepo     repository.AuditRepository
	movementUC    *movement.ExecuteMovementUseCase
	log           *logger.Logger

	// applyLocks serializa el apply por sesión: dos apply concurrentes sobre la
	// misma sesión no deben duplicar movimientos correctivos.
	applyLocks sync.Map // sessionID -> *sync.Mutex
}

// NewUseCase construye el caso de uso de conteos cíclicos.
func NewUseCase(
	txRunner movement.TxRunner,
	warehouseRepo repository.WarehouseRepository,
	locationRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	countRepo repository.CountRepository,
	auditRepo repository.AuditRepository,
	movementUC *movement.ExecuteMovementUseCase,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		warehouseRepo: warehouseRepo,
		locationRepo:  locationRepo,
		stockRepo:     stockRepo,
		countRepo:     countRepo,
		auditRepo:     auditRepo,
		movementUC:    movementUC,
		log:           log,
	}
}

// Create abre una sesión de conteo congelando la cantidad esperada de cada
// tupla ubicación/ítem/lote con saldo en el scope. Ubicaciones sin saldo no
// generan líneas.
func (uc *UseCase) Create(ctx context.Context, req dto.CreateCountRequest, user string) (*dto.CountSessionResponse, []dto.CountDetailResponse, error) {
	if req.Whs == "" {
		return nil, nil, fmt.Errorf("%w: whs es requerido", domain.ErrInvalidInput)
	}
	if len(req.Locations) == 0 {
		return nil, nil, fmt.Errorf("%w: la sesión requiere al menos una ubicación", domain.ErrInvalidInput)
	}
	if _, err := uc.warehouseRepo.GetByCode(req.Whs); err != nil {
		return nil, nil, err
	}

	session := &entity.CountSession{
		WhsCode:   req.Whs,
		Status:    entity.CountStatusOpen,
		CreatedBy: user,
		CreatedAt: time.Now().UTC(),
	}
	var details []*entity.CountDetail

	// Snapshot y sesión en una sola transacción: el expected queda congelado
	// de forma consistente frente a movimientos concurrentes.
	err := uc.txRunner.RunCount(ctx, func(
		locRepo repository.LocationRepository,
		stockRepo repository.StockRepository,
		_ repository.MovementRepository,
		countRepo repository.CountRepository,
	) error {
		for _, locID := range req.Locations {
			loc, err := locRepo.GetByID(locID)
			if err != nil {
				return fmt.Errorf("ubicacion %d: %w", locID, err)
			}
			if loc.WhsCode != req.Whs {
				return fmt.Errorf("%w: la ubicación %s pertenece a %s", domain.ErrInvalidInput, loc.Code, loc.WhsCode)
			}
		}
		if err := countRepo.CreateSession(session); err != nil {
			return err
		}
		for _, locID := range req.Locations {
			balances, err := stockRepo.ListByLocation(locID)
			if err != nil {
				return err
			}
			for _, b := range balances {
				if !b.Qty.IsPositive() {
					continue
				}
				d := &entity.CountDetail{
					SessionID:   session.ID,
					LocationID:  locID,
					ItemCode:    b.ItemCode,
					LotNo:       b.LotNo,
					ExpectedQty: b.Qty,
				}
				if err := countRepo.CreateDetail(d); err != nil {
					return err
				}
				details = append(details, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	uc.audit(user, "count.create", map[string]any{
		"sessionId": session.ID,
		"whs":       req.Whs,
		"locations": req.Locations,
		"lines":     len(details),
	})
	resp := toSessionResponse(session)
	return resp, toDetailResponses(details), nil
}

// Get devuelve una sesión y sus líneas.
func (uc *UseCase) Get(ctx context.Context, id int64) (*dto.CountSessionResponse, []dto.CountDetailResponse, error) {
	session, err := uc.countRepo.GetSession(id)
	if err != nil {
		return nil, nil, err
	}
	details, err := uc.countRepo.ListDetails(id)
	if err != nil {
		return nil, nil, err
	}
	return toSessionResponse(session), toDetailResponses(details), nil
}

// List devuelve sesiones filtradas por almacén y/o estado.
func (uc *UseCase) List(ctx context.Context, whs, status string, limit int) ([]dto.CountSessionResponse, error) {
	if status != "" && status != entity.CountStatusOpen &&
		status != entity.CountStatusClosed && status != entity.CountStatusApplied {
		return nil, fmt.Errorf("%w: estado de sesión desconocido: %s", domain.ErrInvalidInput, status)
	}
	if limit <= 0 {
		limit = 50
	} else if limit > 200 {
		limit = 200
	}
	sessions, err := uc.countRepo.ListSessions(whs, status, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CountSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, *toSessionResponse(s))
	}
	return out, nil
}

// EnterCounts registra cantidades contadas sobre una sesión abierta. Re-digitar
// una línea sobreescribe la cantidad anterior; las líneas se validan todas
// antes de escribir alguna.
func (uc *UseCase) EnterCounts(ctx context.Context, sessionID int64, req dto.EnterCountsRequest, user string) error {
	if len(req.Counts) == 0 {
		return fmt.Errorf("%w: counts no puede estar vacío", domain.ErrInvalidInput)
	}
	session, err := uc.countRepo.GetSession(sessionID)
	if err != nil {
		return err
	}
	if session.Terminal() {
		return fmt.Errorf("%w: la sesión %d está %s", domain.ErrInvalidState, sessionID, session.Status)
	}
	for _, c := range req.Counts {
		if c.CountedQty.IsNegative() {
			return fmt.Errorf("%w: cantidad contada negativa para la línea %d", domain.ErrInvalidInput, c.DetailID)
		}
		d, err := uc.countRepo.GetDetail(c.DetailID)
		if err != nil {
			return err
		}
		if d.SessionID != sessionID {
			return fmt.Errorf("%w: la línea %d no pertenece a la sesión %d", domain.ErrInvalidInput, c.DetailID, sessionID)
		}
	}
	for _, c := range req.Counts {
		if err := uc.countRepo.SetCountedQty(c.DetailID, c.CountedQty); err != nil {
			return err
		}
	}
	uc.audit(user, "count.enter", map[string]any{"sessionId": sessionID, "lines": len(req.Counts)})
	return nil
}

// Apply cierra la sesión. Con createAdjustments=false se cierra sin tocar el
// libro (CLOSED). Con true, postea un movimiento correctivo por cada línea
// digitada con varianza (las líneas sin cantidad contada se saltan):
// PUTAWAY si sobra, ISSUE si falta. Cada línea confirma en su propia
// transacción junto con su marca adjusted; la sesión pasa a APPLIED solo cuando
// todas las líneas con varianza quedaron posteadas, y permanece OPEN si alguna
// falló para permitir el reintento (las ya ajustadas no se repiten).
func (uc *UseCase) Apply(ctx context.Context, sessionID int64, req dto.ApplyCountRequest, user string) (*dto.ApplyCountResponse, error) {
	mu := uc.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := uc.countRepo.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, fmt.Errorf("%w: la sesión %d está %s", domain.ErrInvalidState, sessionID, session.Status)
	}
	details, err := uc.countRepo.ListDetails(sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if !req.CreateAdjustments {
		if err := uc.countRepo.UpdateSessionStatus(sessionID, entity.CountStatusClosed, now); err != nil {
			return nil, err
		}
		uc.audit(user, "count.close", map[string]any{"sessionId": sessionID})
		return &dto.ApplyCountResponse{SessionID: sessionID, Status: entity.CountStatusClosed}, nil
	}

	reference := fmt.Sprintf("COUNT-%d", sessionID)
	if req.Comment != "" {
		reference = fmt.Sprintf("COUNT-%d-%s", sessionID, req.Comment)
	}

	resp := &dto.ApplyCountResponse{SessionID: sessionID}
	allOK := true
	for _, d := range details {
		// las líneas sin cantidad digitada no participan del apply
		variance := d.Variance()
		if variance == nil || variance.IsZero() || d.Adjusted {
			continue
		}
		line := dto.CountLineResult{
			DetailID: d.ID,
			Item:     d.ItemCode,
			Lot:      d.LotNo,
			Variance: *variance,
		}
		adj := movement.AdjustmentLine{
			Whs:        session.WhsCode,
			LocationID: d.LocationID,
			Item:       d.ItemCode,
			Lot:        d.LotNo,
			Variance:   *variance,
			Reference:  reference,
			User:       user,
		}
		detailID := d.ID
		err := uc.txRunner.RunCount(ctx, func(
			locRepo repository.LocationRepository,
			stockRepo repository.StockRepository,
			movRepo repository.MovementRepository,
			countRepo repository.CountRepository,
		) error {
			if err := uc.movementUC.ApplyAdjustmentInTx(locRepo, stockRepo, movRepo, adj, now); err != nil {
				return err
			}
			return countRepo.MarkAdjusted(detailID)
		})
		if err != nil {
			allOK = false
			line.Error = err.Error()
			uc.log.Warn().Err(err).
				Int64("session_id", sessionID).
				Int64("detail_id", detailID).
				Msg("ajuste de conteo fallido; la línea queda pendiente")
		} else {
			line.Adjusted = true
		}
		resp.Lines = append(resp.Lines, line)
	}

	if allOK {
		if err := uc.countRepo.UpdateSessionStatus(sessionID, entity.CountStatusApplied, now); err != nil {
			return nil, err
		}
		resp.Status = entity.CountStatusApplied
	} else {
		resp.Status = entity.CountStatusOpen
	}
	uc.audit(user, "count.apply", map[string]any{
		"sessionId": sessionID,
		"status":    resp.Status,
		"lines":     len(resp.Lines),
	})
	return resp, nil
}

func (uc *UseCase) lockFor(sessionID int64) *sync.Mutex {
	v, _ := uc.applyLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (uc *UseCase) audit(user, action string, payload any) {
	if uc.auditRepo == nil {
		return
	}
	if err := uc.auditRepo.Append(entity.NewAuditEntry(user, action, payload)); err != nil {
		uc.log.Warn().Err(err).Str("action", action).Msg("no se pudo registrar auditoría")
	}
}

func toSessionResponse(s *entity.CountSession) *dto.CountSessionResponse {
	return &dto.CountSessionResponse{
		ID:        s.ID,
		WhsCode:   s.WhsCode,
		Status:    s.Status,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt,
		ClosedAt:  s.ClosedAt,
	}
}

func toDetailResponses(details []*entity.CountDetail) []dto.CountDetailResponse {
	out := make([]dto.CountDetailResponse, 0, len(details))
	for _, d := range details {
		out = append(out, dto.CountDetailResponse{
			ID:          d.ID,
			LocationID:  d.LocationID,
			ItemCode:    d.ItemCode,
			LotNo:       d.LotNo,
			ExpectedQty: d.ExpectedQty,
			CountedQty:  d.CountedQty,
			Adjusted:    d.Adjusted,
		})
	}
	return out
}
