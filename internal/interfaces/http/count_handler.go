package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/wms-api/internal/application/count"
	"github.com/jhoicas/wms-api/internal/application/dto"
)

// CountHandler maneja las peticiones HTTP del conteo cíclico.
type CountHandler struct {
	uc *count.UseCase
}

// NewCountHandler construye el handler.
func NewCountHandler(uc *count.UseCase) *CountHandler {
	return &CountHandler{uc: uc}
}

// Create godoc
// @Summary      Abrir sesión de conteo
// @Description  Congela la cantidad esperada de cada ítem/lote con saldo en las
//               ubicaciones del scope.
// @Tags         counts
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCountRequest  true  "whs, locations[]"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts [post]
func (h *CountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCountRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	session, details, err := h.uc.Create(c.Context(), in, actingUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session": session,
		"details": details,
	})
}

// List godoc
// @Summary      Listar sesiones de conteo
// @Tags         counts
// @Produce      json
// @Param        whs     query  string  false  "filtrar por bodega"
// @Param        status  query  string  false  "OPEN, CLOSED o APPLIED"
// @Param        limit   query  int     false  "máximo de sesiones (default 50)"
// @Success      200  {array}   dto.CountSessionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/counts [get]
func (h *CountHandler) List(c *fiber.Ctx) error {
	sessions, err := h.uc.List(c.Context(), c.Query("whs"), c.Query("status"), c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sessions)
}

// Get godoc
// @Summary      Obtener sesión de conteo
// @Tags         counts
// @Produce      json
// @Param        id  path  int  true  "ID de la sesión"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id} [get]
func (h *CountHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	session, details, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"session": session,
		"details": details,
	})
}

// Details godoc
// @Summary      Líneas de detalle de una sesión
// @Tags         counts
// @Produce      json
// @Param        id  path  int  true  "ID de la sesión"
// @Success      200  {array}   dto.CountDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/details [get]
func (h *CountHandler) Details(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	_, details, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(details)
}

// Enter godoc
// @Summary      Digitar cantidades contadas
// @Description  Re-digitar una línea sobreescribe la cantidad anterior. Solo
//               sobre sesiones abiertas.
// @Tags         counts
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la sesión"
// @Param        body  body  dto.EnterCountsRequest  true  "counts[]"
// @Success      200  {object}  dto.OkResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/enter [put]
func (h *CountHandler) Enter(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.EnterCountsRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := h.uc.EnterCounts(c.Context(), id, in, actingUser(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OkResponse{Ok: true})
}

// Apply godoc
// @Summary      Aplicar o cerrar una sesión de conteo
// @Description  Con createAdjustments=true postea un movimiento correctivo por
//               cada línea con varianza; la sesión pasa a APPLIED solo si todas
//               las líneas quedaron posteadas, si no permanece OPEN y el apply
//               se puede reintentar sin duplicar ajustes.
// @Tags         counts
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la sesión"
// @Param        body  body  dto.ApplyCountRequest  true  "createAdjustments, comment"
// @Success      200  {object}  dto.ApplyCountResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/apply [post]
func (h *CountHandler) Apply(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.ApplyCountRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.Apply(c.Context(), id, in, actingUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
