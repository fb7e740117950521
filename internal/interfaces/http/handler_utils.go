package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/domain"
)

// HeaderUser header con el usuario que ejecuta la operación.
const HeaderUser = "X-User"

// actingUser devuelve el usuario del header X-User, o "system" si no viene.
func actingUser(c *fiber.Ctx) string {
	if u := c.Get(HeaderUser); u != "" {
		return u
	}
	return "system"
}

// parseID parsea un parámetro de ruta como ID numérico.
func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return id, nil
}

// respondError mapea los errores de dominio a status HTTP y código de máquina.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrPatternTooLarge):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "PATTERN_TOO_LARGE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_LOCATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrCapacityExceeded):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CAPACITY_EXCEEDED", Message: err.Error()})
	case errors.Is(err, domain.ErrLocationInactive):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOCATION_INACTIVE", Message: err.Error()})
	case errors.Is(err, domain.ErrQuarantineRestricted):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "QUARANTINE_RESTRICTED", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
