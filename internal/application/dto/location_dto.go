package dto

import "github.com/shopspring/decimal"

// CreateLocationRequest body para POST /api/warehouses/:whs/locations.
type CreateLocationRequest struct {
	Code        string           `json:"code"`
	Name        string           `json:"name,omitempty"`
	Section     string           `json:"section,omitempty"`
	Aisle       string           `json:"aisle,omitempty"`
	Rack        string           `json:"rack,omitempty"`
	Level       string           `json:"level,omitempty"`
	Bin         string           `json:"bin,omitempty"`
	Type        string           `json:"type"`
	CapacityQty *decimal.Decimal `json:"capacityQty,omitempty"`
	CapacityUoM string           `json:"capacityUom,omitempty"`
	Attributes  string           `json:"attributes,omitempty"`
}

// UpdateLocationRequest patch parcial de una ubicación. Los campos nil no se
// tocan; la identidad (whs, code) nunca se puede cambiar.
type UpdateLocationRequest struct {
	Name        *string          `json:"name,omitempty"`
	Section     *string          `json:"section,omitempty"`
	Aisle       *string          `json:"aisle,omitempty"`
	Rack        *string          `json:"rack,omitempty"`
	Level       *string          `json:"level,omitempty"`
	Bin         *string          `json:"bin,omitempty"`
	Type        *string          `json:"type,omitempty"`
	CapacityQty *decimal.Decimal `json:"capacityQty,omitempty"`
	CapacityUoM *string          `json:"capacityUom,omitempty"`
	Attributes  *string          `json:"attributes,omitempty"`
	IsActive    *bool            `json:"isActive,omitempty"`
}

// LocationResponse representación de una ubicación en respuestas.
type LocationResponse struct {
	ID          int64            `json:"id"`
	WhsCode     string           `json:"whsCode"`
	Code        string           `json:"code"`
	Name        string           `json:"name,omitempty"`
	Section     string           `json:"section,omitempty"`
	Aisle       string           `json:"aisle,omitempty"`
	Rack        string           `json:"rack,omitempty"`
	Level       string           `json:"level,omitempty"`
	Bin         string           `json:"bin,omitempty"`
	Type        string           `json:"type,omitempty"`
	CapacityQty *decimal.Decimal `json:"capacityQty,omitempty"`
	CapacityUoM string           `json:"capacityUom,omitempty"`
	IsActive    bool             `json:"isActive"`
}

// BulkGenerateRequest body para la generación masiva desde patrón.
type BulkGenerateRequest struct {
	Pattern    string `json:"pattern"`
	Type       string `json:"type"`
	Attributes string `json:"attributes,omitempty"`
}

// BulkGenerateResponse resultado idempotente de la generación masiva.
type BulkGenerateResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// CapacitySnapshotResponse foto de capacidad de una ubicación.
// UtilizationPct es nil cuando la ubicación no declara capacidad
// (capacidad ilimitada: la utilización no se computa).
type CapacitySnapshotResponse struct {
	LocationID     int64            `json:"locationId"`
	LocationCode   string           `json:"locationCode"`
	CapacityQty    *decimal.Decimal `json:"capacityQty,omitempty"`
	CapacityUoM    string           `json:"capacityUom,omitempty"`
	CurrentQty     decimal.Decimal  `json:"currentQty"`
	CurrentItems   int              `json:"currentItems"`
	UtilizationPct *decimal.Decimal `json:"utilizationPct,omitempty"`
}

// CreateWarehouseRequest body para POST /api/warehouses.
type CreateWarehouseRequest struct {
	WhsCode string `json:"whsCode"`
	Name    string `json:"name,omitempty"`
}
