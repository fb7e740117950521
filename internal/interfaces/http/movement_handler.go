package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/application/movement"
)

// MovementHandler maneja las operaciones de inventario (putaway, issue, traslados).
type MovementHandler struct {
	uc *movement.ExecuteMovementUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *movement.ExecuteMovementUseCase) *MovementHandler {
	return &MovementHandler{uc: uc}
}

// Putaway godoc
// @Summary      Acomodo de mercancía en ubicaciones
// @Description  Incrementa el saldo de cada línea en su ubicación destino.
//               El lote es todo-o-nada: si una línea falla no se aplica ninguna.
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PutawayRequest  true  "whs, lines[]"
// @Success      201  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/operations/putaway [post]
func (h *MovementHandler) Putaway(c *fiber.Ctx) error {
	var in dto.PutawayRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.ExecutePutaway(c.Context(), actingUser(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Issue godoc
// @Summary      Salida de mercancía desde ubicaciones
// @Description  Decrementa saldos; falla con INSUFFICIENT_STOCK si una línea
//               excede el saldo disponible (todo-o-nada).
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueRequest  true  "whs, reason, lines[]"
// @Success      201  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/operations/issue [post]
func (h *MovementHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.ExecuteIssue(c.Context(), actingUser(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// InternalMove godoc
// @Summary      Traslado entre ubicaciones de la misma bodega
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InternalMoveRequest  true  "whs, lines[] con from y to"
// @Success      201  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/operations/move-internal [post]
func (h *MovementHandler) InternalMove(c *fiber.Ctx) error {
	var in dto.InternalMoveRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.ExecuteInternalMove(c.Context(), actingUser(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Transfer godoc
// @Summary      Traslado entre bodegas
// @Description  Confirma el libro local y postea el documento en el ERP tras el
//               commit. Si el ERP falla, la respuesta incluye erpWarning y el
//               traslado local queda firme.
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "fromWhs, toWhs, lines[]"
// @Success      201  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/operations/transfer-warehouse [post]
func (h *MovementHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.ExecuteTransfer(c.Context(), actingUser(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}
