package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/wms-api/internal/application/count"
	"github.com/jhoicas/wms-api/internal/application/location"
	"github.com/jhoicas/wms-api/internal/application/movement"
	infraerp "github.com/jhoicas/wms-api/internal/infrastructure/erp"
	"github.com/jhoicas/wms-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/wms-api/internal/interfaces/http"
	"github.com/jhoicas/wms-api/pkg/config"
	"github.com/jhoicas/wms-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	warehouseRepo := postgres.NewWarehouseRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	countRepo := postgres.NewCountRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	erpClient := infraerp.NewClient(cfg.ERP, log)
	defer erpClient.Shutdown()

	registryUC := location.NewRegistryUseCase(
		warehouseRepo, locationRepo, stockRepo, auditRepo,
		cfg.WMS.MaxPatternExpansion, log,
	)
	movementUC := movement.NewExecuteMovementUseCase(
		txRunner, warehouseRepo, locationRepo, movementRepo, auditRepo, erpClient, log,
	)
	stockQueryUC := movement.NewStockQueryUseCase(locationRepo, stockRepo, movementRepo)
	countUC := count.NewUseCase(
		txRunner, warehouseRepo, locationRepo, stockRepo, countRepo, auditRepo, movementUC, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "WMS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RegistryUC:        registryUC,
		MovementUC:        movementUC,
		StockQueryUC:      stockQueryUC,
		CountUC:           countUC,
		LowStockThreshold: cfg.WMS.LowStockThresholdPct,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
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
