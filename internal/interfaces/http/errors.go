package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/b2b-stock-api/internal/application/dto"
	"github.com/jhoicas/b2b-stock-api/internal/domain"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// errorStatus traduce un error de dominio a (status, código).
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable, "UNAVAILABLE"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde con dto.ErrorResponse. Los 5xx se registran y no exponen el detalle.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("route", c.Route().Path).Int("status", status).Msg("error en petición")
		if status == fiber.StatusInternalServerError {
			msg = "error interno"
		}
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "cuerpo inválido"})
}
