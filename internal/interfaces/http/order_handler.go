package http

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/b2b-stock-api/internal/application/dto"
	"github.com/jhoicas/b2b-stock-api/internal/application/order"
	"github.com/jhoicas/b2b-stock-api/internal/application/ports"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// HeaderIdempotencyKey header opcional de POST /api/orders.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay marca una respuesta servida desde el store de idempotencia.
const HeaderIdempotentReplay = "Idempotent-Replayed"

// OrderHandler maneja las peticiones HTTP de pedidos.
type OrderHandler struct {
	uc    *order.LifecycleUseCase
	slips *order.SlipUseCase
	idem  ports.IdempotencyStore // nil = sin idempotencia
	log   *logger.Logger
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *order.LifecycleUseCase, slips *order.SlipUseCase, idem ports.IdempotencyStore, log *logger.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, slips: slips, idem: idem, log: log}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Descuenta el stock de todos los productos en una sola unidad atómica.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string            false  "Clave de idempotencia"
// @Param        body             body    dto.OrderRequest  true   "companyId, companyName, email, region, items"
// @Success      201  {object}  dto.OrderResponse
// @Success      200  {object}  dto.OrderResponse  "Respuesta repetida por Idempotency-Key"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.OrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := in.Validate(); err != nil {
		return writeError(c, h.log, err)
	}

	ctx := c.UserContext()
	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	started := false
	if key != "" && h.idem != nil {
		cached, ok, err := h.idem.Begin(ctx, key)
		if err != nil {
			h.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency begin")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: "almacén de idempotencia no disponible"})
		}
		if !ok {
			if cached == nil {
				return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "petición con la misma Idempotency-Key en curso"})
			}
			c.Set(HeaderIdempotentReplay, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(fiber.StatusOK).Send(cached)
		}
		started = true
	}

	o, err := h.uc.Create(ctx, order.CreateInput{
		CompanyID:   in.CompanyID,
		CompanyName: strings.TrimSpace(in.CompanyName),
		Email:       strings.TrimSpace(in.Email),
		Region:      strings.TrimSpace(in.Region),
		Items:       in.EntityItems(),
	})
	if err != nil {
		if started {
			if abortErr := h.idem.Abort(ctx, key); abortErr != nil {
				h.log.Warn().Err(abortErr).Str("idempotency_key", key).Msg("idempotency abort")
			}
		}
		return writeError(c, h.log, err)
	}

	body, err := json.Marshal(dto.OrderFromEntity(o))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if started {
		// Sin respuesta guardada la clave quedaría "en curso" hasta su TTL: se libera.
		if err := h.idem.Complete(ctx, key, body); err != nil {
			h.log.Warn().Err(err).Str("idempotency_key", key).Str("order_id", o.OrderID).Msg("idempotency complete")
			if abortErr := h.idem.Abort(ctx, key); abortErr != nil {
				h.log.Error().Err(abortErr).Str("idempotency_key", key).Str("order_id", o.OrderID).Msg("idempotency abort")
			}
		}
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusCreated).Send(body)
}

// ListByCompany godoc
// @Summary      Listar pedidos de una empresa (más recientes primero)
// @Tags         orders
// @Produce      json
// @Param        companyId  path  string  true  "ID de la empresa"
// @Success      200  {object}  dto.OrderListResponse
// @Router       /api/orders/company/{companyId} [get]
func (h *OrderHandler) ListByCompany(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), c.Params("companyId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OrderListFromEntities(list))
}

// Get godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Produce      json
// @Param        companyId  path  string  true  "ID de la empresa"
// @Param        orderId    path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{companyId}/{orderId} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.uc.Get(c.UserContext(), c.Params("companyId"), c.Params("orderId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OrderFromEntity(o))
}

// Update godoc
// @Summary      Reemplazar los ítems de un pedido
// @Description  Ajusta el stock solo por la diferencia neta por producto.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        companyId  path  string            true  "ID de la empresa"
// @Param        orderId    path  string            true  "ID del pedido"
// @Param        body       body  dto.OrderRequest  true  "Mismo cuerpo que la creación"
// @Success      200  {object}  dto.OrderUpdatedResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{companyId}/{orderId} [patch]
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var in dto.OrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := in.Validate(); err != nil {
		return writeError(c, h.log, err)
	}
	o, err := h.uc.Update(c.UserContext(), c.Params("companyId"), c.Params("orderId"), in.EntityItems())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OrderUpdatedFromEntity(o))
}

// Delete godoc
// @Summary      Eliminar pedido y devolver su reserva al stock
// @Tags         orders
// @Produce      json
// @Param        companyId  path  string  true  "ID de la empresa"
// @Param        orderId    path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderDeletedResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{companyId}/{orderId} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	key := dto.OrderKey{CompanyID: strings.TrimSpace(c.Params("companyId")), OrderID: c.Params("orderId")}
	if err := h.uc.Delete(c.UserContext(), key.CompanyID, key.OrderID); err != nil {
		return writeError(c, h.log, err)
	}
	h.log.Info().Str("order", key.String()).Msg("pedido eliminado")
	return c.JSON(dto.OrderDeletedResponse{OK: true, Deleted: key})
}

// Slip godoc
// @Summary      Descargar comprobante PDF del pedido
// @Tags         orders
// @Produce      application/pdf
// @Param        companyId  path  string  true  "ID de la empresa"
// @Param        orderId    path  string  true  "ID del pedido"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{companyId}/{orderId}/pdf [get]
func (h *OrderHandler) Slip(c *fiber.Ctx) error {
	pdf, filename, err := h.slips.Download(c.UserContext(), c.Params("companyId"), c.Params("orderId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
