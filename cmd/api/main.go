package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/b2b-stock-api/internal/application/alerts"
	"github.com/jhoicas/b2b-stock-api/internal/application/inventory"
	"github.com/jhoicas/b2b-stock-api/internal/application/order"
	"github.com/jhoicas/b2b-stock-api/internal/application/ports"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
	infrakafka "github.com/jhoicas/b2b-stock-api/internal/infrastructure/kafka"
	"github.com/jhoicas/b2b-stock-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/b2b-stock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/b2b-stock-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/b2b-stock-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/b2b-stock-api/internal/interfaces/http"
	"github.com/jhoicas/b2b-stock-api/pkg/config"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// stores agrupa los puertos de almacenamiento elegidos por STORE_DRIVER.
type stores struct {
	stock  repository.StockRepository
	orders repository.OrderRepository
	tx     repository.TransactWriter
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st := openStores(ctx, cfg, log)
	defer st.close()

	// Alertas de stock bajo: Kafka si hay brokers; si no, solo se evalúan y registran.
	var publisher ports.Publisher
	if cfg.Kafka.Enabled() {
		writer := infrakafka.NewWriter(cfg.Kafka.Brokers)
		defer func() { _ = writer.Close() }()
		publisher = infrakafka.NewPublisher(writer, log)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.LowStockTopic).Msg("publicación de alertas habilitada")
	}
	notifier := alerts.NewNotifier(st.stock, publisher, cfg.Kafka.LowStockTopic, log)

	// Idempotencia de POST /api/orders: solo con Redis configurado.
	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb := infraredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no responde; idempotencia deshabilitada")
		} else {
			idem = infraredis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		}
	}

	stockUC := inventory.NewStockUseCase(st.stock, st.tx, notifier, log)
	lifecycleUC := order.NewLifecycleUseCase(st.orders, st.tx, notifier)
	slipUC := order.NewSlipUseCase(lifecycleUC, st.stock, infrapdf.NewMarotoSlipGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "B2B Stock API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:     stockUC,
		OrderUC:     lifecycleUC,
		SlipUC:      slipUC,
		Idempotency: idem,
		Log:         log,
	})

	go func() {
		addr := cfg.HTTP.Addr()
		log.Info().Str("addr", addr).Msg("servidor HTTP escuchando")
		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) stores {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		mem := memory.NewStore()
		return stores{stock: mem.Stock(), orders: mem.Orders(), tx: mem, close: func() {}}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	tables := postgres.NewTables(cfg.Tables.Inventory, cfg.Tables.Orders)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("esquema PostgreSQL")
	}
	return stores{
		stock:  postgres.NewStockRepository(pool, tables),
		orders: postgres.NewOrderRepository(pool, tables),
		tx:     postgres.NewTxWriter(pool, tables),
		close:  pool.Close,
	}
}
