package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/b2b-stock-api/internal/application/dto"
	"github.com/jhoicas/b2b-stock-api/internal/application/inventory"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// StockHandler maneja las peticiones HTTP de registros de stock.
type StockHandler struct {
	uc  *inventory.StockUseCase
	log *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase, log *logger.Logger) *StockHandler {
	return &StockHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar stock de una empresa
// @Tags         stock
// @Produce      json
// @Param        companyId  path  string  true  "ID de la empresa"
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{companyId} [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), c.Params("companyId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockListFromEntities(list))
}

// Upsert godoc
// @Summary      Crear o reemplazar un registro de stock
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        companyId  path  string                  true  "ID de la empresa"
// @Param        body       body  dto.UpsertStockRequest  true  "productId, name, qtyAvailable, lowThreshold"
// @Success      201  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{companyId} [post]
func (h *StockHandler) Upsert(c *fiber.Ctx) error {
	var in dto.UpsertStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	rec, err := h.uc.Upsert(c.UserContext(), c.Params("companyId"), inventory.UpsertInput{
		ProductID:    in.ProductID,
		Name:         in.Name,
		QtyAvailable: in.QtyAvailable,
		LowThreshold: in.LowThreshold,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.StockFromEntity(rec))
}

// Add godoc
// @Summary      Ajustar stock (suma con signo)
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        companyId  path  string               true  "ID de la empresa"
// @Param        productId  path  string               true  "ID del producto"
// @Param        body       body  dto.AddStockRequest  true  "amount distinto de 0"
// @Success      200  {object}  dto.AddStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/{companyId}/{productId}/add [post]
func (h *StockHandler) Add(c *fiber.Ctx) error {
	var in dto.AddStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	rec, err := h.uc.Add(c.UserContext(), c.Params("companyId"), c.Params("productId"), in.Amount)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AddStockResponse{OK: true, Stock: dto.StockFromEntity(rec)})
}
