package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/wms-api/internal/application/count"
	"github.com/jhoicas/wms-api/internal/application/location"
	"github.com/jhoicas/wms-api/internal/application/movement"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RegistryUC        *location.RegistryUseCase
	MovementUC        *movement.ExecuteMovementUseCase
	StockQueryUC      *movement.StockQueryUseCase
	CountUC           *count.UseCase
	LowStockThreshold float64
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	locationHandler := NewLocationHandler(deps.RegistryUC)
	movementHandler := NewMovementHandler(deps.MovementUC)
	stockHandler := NewStockHandler(deps.StockQueryUC, deps.LowStockThreshold)
	countHandler := NewCountHandler(deps.CountUC)

	// Bodegas y registro de ubicaciones
	warehouses := api.Group("/warehouses")
	warehouses.Post("/", locationHandler.CreateWarehouse)
	warehouses.Get("/", locationHandler.ListWarehouses)
	warehouses.Post("/:whs/locations", locationHandler.CreateLocation)
	warehouses.Get("/:whs/locations", locationHandler.ListLocations)
	warehouses.Post("/:whs/locations/bulk-generate", locationHandler.BulkGenerate)

	locations := api.Group("/locations")
	locations.Get("/:id", locationHandler.GetLocation)
	locations.Put("/:id", locationHandler.UpdateLocation)
	locations.Get("/:id/capacity", locationHandler.Capacity)

	api.Get("/bins/search", locationHandler.SearchBins)

	// Operaciones de inventario
	operations := api.Group("/operations")
	operations.Post("/putaway", movementHandler.Putaway)
	operations.Post("/issue", movementHandler.Issue)
	operations.Post("/move-internal", movementHandler.InternalMove)
	operations.Post("/transfer-warehouse", movementHandler.Transfer)

	// Consultas de stock
	stock := api.Group("/stock")
	stock.Get("/by-location/:id", stockHandler.ByLocation)
	stock.Get("/by-item", stockHandler.ByItem)
	stock.Get("/summary", stockHandler.Summary)
	stock.Get("/low-stock", stockHandler.LowStock)
	stock.Get("/movements", stockHandler.Movements)

	// Conteo cíclico
	counts := api.Group("/counts")
	counts.Post("/", countHandler.Create)
	counts.Get("/", countHandler.List)
	counts.Get("/:id", countHandler.Get)
	counts.Get("/:id/details", countHandler.Details)
	counts.Put("/:id/enter", countHandler.Enter)
	counts.Post("/:id/apply", countHandler.Apply)
}
