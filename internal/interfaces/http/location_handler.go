package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/application/location"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

// LocationHandler maneja las peticiones HTTP del registro de ubicaciones y bodegas.
type LocationHandler struct {
	uc *location.RegistryUseCase
}

// NewLocationHandler construye el handler.
func NewLocationHandler(uc *location.RegistryUseCase) *LocationHandler {
	return &LocationHandler{uc: uc}
}

func toLocationResponse(l *entity.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:          l.ID,
		WhsCode:     l.WhsCode,
		Code:        l.Code,
		Name:        l.Name,
		Section:     l.Section,
		Aisle:       l.Aisle,
		Rack:        l.Rack,
		Level:       l.Level,
		Bin:         l.Bin,
		Type:        l.Type,
		CapacityQty: l.CapacityQty,
		CapacityUoM: l.CapacityUoM,
		IsActive:    l.IsActive,
	}
}

func toLocationResponses(locs []*entity.Location) []dto.LocationResponse {
	out := make([]dto.LocationResponse, 0, len(locs))
	for _, l := range locs {
		out = append(out, toLocationResponse(l))
	}
	return out
}

// CreateWarehouse godoc
// @Summary      Crear bodega
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWarehouseRequest  true  "whsCode, name"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouses [post]
func (h *LocationHandler) CreateWarehouse(c *fiber.Ctx) error {
	var in dto.CreateWarehouseRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	w, err := h.uc.CreateWarehouse(c.Context(), actingUser(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": w.ID, "whsCode": w.WhsCode, "name": w.Name, "active": w.Active,
	})
}

// ListWarehouses godoc
// @Summary      Listar bodegas
// @Tags         warehouses
// @Produce      json
// @Success      200  {array}  map[string]interface{}
// @Router       /api/warehouses [get]
func (h *LocationHandler) ListWarehouses(c *fiber.Ctx) error {
	ws, err := h.uc.ListWarehouses(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]fiber.Map, 0, len(ws))
	for _, w := range ws {
		out = append(out, fiber.Map{
			"id": w.ID, "whsCode": w.WhsCode, "name": w.Name, "active": w.Active,
		})
	}
	return c.JSON(out)
}

// CreateLocation godoc
// @Summary      Crear ubicación
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        whs   path  string  true  "código de bodega"
// @Param        body  body  dto.CreateLocationRequest  true  "code, type, capacityQty..."
// @Success      201  {object}  dto.LocationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{whs}/locations [post]
func (h *LocationHandler) CreateLocation(c *fiber.Ctx) error {
	var in dto.CreateLocationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	loc, err := h.uc.Create(c.Context(), actingUser(c), c.Params("whs"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLocationResponse(loc))
}

// ListLocations godoc
// @Summary      Listar ubicaciones de una bodega
// @Tags         locations
// @Produce      json
// @Param        whs          path   string  true   "código de bodega"
// @Param        code_like    query  string  false  "subcadena del código"
// @Param        type         query  string  false  "tipo de ubicación"
// @Param        active_only  query  bool    false  "solo activas"
// @Success      200  {array}   dto.LocationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{whs}/locations [get]
func (h *LocationHandler) ListLocations(c *fiber.Ctx) error {
	f := repository.LocationFilter{
		CodeLike:   c.Query("code_like"),
		Type:       c.Query("type"),
		ActiveOnly: c.QueryBool("active_only"),
	}
	locs, err := h.uc.List(c.Context(), c.Params("whs"), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toLocationResponses(locs))
}

// BulkGenerate godoc
// @Summary      Generar ubicaciones desde un patrón
// @Description  Expande el patrón y crea las ubicaciones faltantes. Idempotente:
//               las existentes se cuentan como skipped.
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        whs   path  string  true  "código de bodega"
// @Param        body  body  dto.BulkGenerateRequest  true  "pattern, type, attributes"
// @Success      200  {object}  dto.BulkGenerateResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{whs}/locations/bulk-generate [post]
func (h *LocationHandler) BulkGenerate(c *fiber.Ctx) error {
	var in dto.BulkGenerateRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.BulkGenerate(c.Context(), actingUser(c), c.Params("whs"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// GetLocation godoc
// @Summary      Obtener ubicación por ID
// @Tags         locations
// @Produce      json
// @Param        id  path  int  true  "ID de la ubicación"
// @Success      200  {object}  dto.LocationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/locations/{id} [get]
func (h *LocationHandler) GetLocation(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	loc, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toLocationResponse(loc))
}

// UpdateLocation godoc
// @Summary      Actualizar ubicación (patch parcial)
// @Description  La identidad (whs, code) no se puede cambiar. Desactivar con isActive=false.
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la ubicación"
// @Param        body  body  dto.UpdateLocationRequest  true  "campos a cambiar"
// @Success      200  {object}  dto.LocationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/locations/{id} [put]
func (h *LocationHandler) UpdateLocation(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateLocationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	loc, err := h.uc.Update(c.Context(), actingUser(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toLocationResponse(loc))
}

// Capacity godoc
// @Summary      Foto de capacidad de una ubicación
// @Tags         locations
// @Produce      json
// @Param        id  path  int  true  "ID de la ubicación"
// @Success      200  {object}  dto.CapacitySnapshotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/locations/{id}/capacity [get]
func (h *LocationHandler) Capacity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	snap, err := h.uc.CapacitySnapshot(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}

// SearchBins godoc
// @Summary      Buscar ubicaciones activas por código o nombre
// @Tags         locations
// @Produce      json
// @Param        q      query  string  true   "subcadena a buscar"
// @Param        whs    query  string  false  "filtrar por bodega"
// @Param        type   query  string  false  "filtrar por tipo"
// @Param        limit  query  int     false  "máximo de resultados (default 50)"
// @Success      200  {array}   dto.LocationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/bins/search [get]
func (h *LocationHandler) SearchBins(c *fiber.Ctx) error {
	locs, err := h.uc.Search(c.Context(), c.Query("q"), c.Query("whs"), c.Query("type"), c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toLocationResponses(locs))
}
