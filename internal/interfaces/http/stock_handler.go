package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/application/movement"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

// StockHandler maneja las consultas de saldos y la historia de movimientos.
type StockHandler struct {
	uc               *movement.StockQueryUseCase
	defaultThreshold float64
}

// NewStockHandler construye el handler. defaultThreshold es el umbral de
// utilización baja cuando la query no lo especifica.
func NewStockHandler(uc *movement.StockQueryUseCase, defaultThreshold float64) *StockHandler {
	return &StockHandler{uc: uc, defaultThreshold: defaultThreshold}
}

func toBalanceResponses(balances []*entity.StockBalance) []dto.StockBalanceResponse {
	out := make([]dto.StockBalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.StockBalanceResponse{
			WhsCode:     b.WhsCode,
			LocationID:  b.LocationID,
			ItemCode:    b.ItemCode,
			ItemName:    b.ItemName,
			LotNo:       b.LotNo,
			Qty:         b.Qty,
			UoM:         b.UoM,
			LastUpdated: b.LastUpdated,
		})
	}
	return out
}

// ByLocation godoc
// @Summary      Saldos de una ubicación
// @Tags         stock
// @Produce      json
// @Param        id  path  int  true  "ID de la ubicación"
// @Success      200  {array}   dto.StockBalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/by-location/{id} [get]
func (h *StockHandler) ByLocation(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	balances, err := h.uc.BalancesByLocation(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toBalanceResponses(balances))
}

// ByItem godoc
// @Summary      Saldos de un ítem por ubicación en una bodega
// @Tags         stock
// @Produce      json
// @Param        whs   query  string  true  "código de bodega"
// @Param        item  query  string  true  "código de ítem"
// @Success      200  {array}   dto.StockBalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/by-item [get]
func (h *StockHandler) ByItem(c *fiber.Ctx) error {
	balances, err := h.uc.BalancesByItem(c.Context(), c.Query("whs"), c.Query("item"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toBalanceResponses(balances))
}

// Summary godoc
// @Summary      Total agregado de un ítem en una bodega
// @Tags         stock
// @Produce      json
// @Param        whs   query  string  true  "código de bodega"
// @Param        item  query  string  true  "código de ítem"
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/summary [get]
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	s, err := h.uc.Summary(c.Context(), c.Query("whs"), c.Query("item"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StockSummaryResponse{
		WhsCode:       s.WhsCode,
		ItemCode:      s.ItemCode,
		ItemName:      s.ItemName,
		TotalQty:      s.TotalQty,
		UoM:           s.UoM,
		LocationCount: s.LocationCount,
	})
}

// LowStock godoc
// @Summary      Ubicaciones capacitadas con utilización baja
// @Tags         stock
// @Produce      json
// @Param        whs            query  string  true   "código de bodega"
// @Param        threshold_pct  query  number  false  "umbral de utilización en %"
// @Success      200  {array}   dto.LowUtilizationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/low-stock [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	threshold := c.QueryFloat("threshold_pct", h.defaultThreshold)
	utils, err := h.uc.LowUtilization(c.Context(), c.Query("whs"), threshold)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LowUtilizationResponse, 0, len(utils))
	for _, u := range utils {
		out = append(out, dto.LowUtilizationResponse{
			LocationID:     u.LocationID,
			LocationCode:   u.LocationCode,
			CapacityQty:    u.CapacityQty,
			CapacityUoM:    u.CapacityUoM,
			CurrentQty:     u.CurrentQty,
			UtilizationPct: u.UtilizationPct,
		})
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Historia de movimientos
// @Tags         stock
// @Produce      json
// @Param        whs    query  string  false  "filtra por bodega origen o destino"
// @Param        item   query  string  false  "filtra por ítem"
// @Param        type   query  string  false  "filtra por tipo de movimiento"
// @Param        limit  query  int     false  "máximo de registros (default 100)"
// @Success      200  {array}  dto.MovementHistoryResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	movs, err := h.uc.History(c.Context(), repository.MovementFilter{
		WhsCode:  c.Query("whs"),
		ItemCode: c.Query("item"),
		Type:     c.Query("type"),
		Limit:    c.QueryInt("limit"),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementHistoryResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovementHistoryResponse{
			ID:             m.ID,
			Type:           m.Type,
			FromWhs:        m.FromWhs,
			FromLocationID: m.FromLocationID,
			ToWhs:          m.ToWhs,
			ToLocationID:   m.ToLocationID,
			ItemCode:       m.ItemCode,
			LotNo:          m.LotNo,
			Qty:            m.Qty,
			Reference:      m.Reference,
			ERPDocEntry:    m.ERPDocEntry,
			CreatedBy:      m.CreatedBy,
			CreatedAt:      m.CreatedAt,
		})
	}
	return c.JSON(out)
}
