package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/b2b-stock-api/internal/application/inventory"
	"github.com/jhoicas/b2b-stock-api/internal/application/order"
	"github.com/jhoicas/b2b-stock-api/internal/application/ports"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC     *inventory.StockUseCase
	OrderUC     *order.LifecycleUseCase
	SlipUC      *order.SlipUseCase
	Idempotency ports.IdempotencyStore // opcional
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log.Component("http")
	api := app.Group("/api", RequestLogger(log))

	// Stock
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC, log)
	stock.Get("/:companyId", stockHandler.List)
	stock.Post("/:companyId", stockHandler.Upsert)
	stock.Post("/:companyId/:productId/add", stockHandler.Add)

	// Orders. /company/:companyId va antes que /:companyId/:orderId.
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC, deps.SlipUC, deps.Idempotency, log)
	orders.Post("/", orderHandler.Create)
	orders.Get("/company/:companyId", orderHandler.ListByCompany)
	orders.Get("/:companyId/:orderId", orderHandler.Get)
	orders.Patch("/:companyId/:orderId", orderHandler.Update)
	orders.Delete("/:companyId/:orderId", orderHandler.Delete)
	orders.Get("/:companyId/:orderId/pdf", orderHandler.Slip)
}

// RequestLogger registra cada petición con su status y duración.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("petición")
		return err
	}
}
