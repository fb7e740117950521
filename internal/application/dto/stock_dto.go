package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalanceResponse un saldo ítem/lote en una ubicación.
type StockBalanceResponse struct {
	WhsCode     string          `json:"whsCode"`
	LocationID  int64           `json:"locationId"`
	ItemCode    string          `json:"itemCode"`
	ItemName    string          `json:"itemName,omitempty"`
	LotNo       string          `json:"lotNo,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	UoM         string          `json:"uom,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// StockSummaryResponse agregado de un ítem en una bodega.
type StockSummaryResponse struct {
	WhsCode       string          `json:"whsCode"`
	ItemCode      string          `json:"itemCode"`
	ItemName      string          `json:"itemName,omitempty"`
	TotalQty      decimal.Decimal `json:"totalQty"`
	UoM           string          `json:"uom,omitempty"`
	LocationCount int             `json:"locationCount"`
}

// LowUtilizationResponse ubicación capacitada por debajo del umbral.
type LowUtilizationResponse struct {
	LocationID     int64           `json:"locationId"`
	LocationCode   string          `json:"locationCode"`
	CapacityQty    decimal.Decimal `json:"capacityQty"`
	CapacityUoM    string          `json:"capacityUom,omitempty"`
	CurrentQty     decimal.Decimal `json:"currentQty"`
	UtilizationPct decimal.Decimal `json:"utilizationPct"`
}

// MovementHistoryResponse un registro del libro de movimientos.
type MovementHistoryResponse struct {
	ID             int64           `json:"id"`
	Type           string          `json:"type"`
	FromWhs        string          `json:"fromWhs,omitempty"`
	FromLocationID *int64          `json:"fromLocationId,omitempty"`
	ToWhs          string          `json:"toWhs,omitempty"`
	ToLocationID   *int64          `json:"toLocationId,omitempty"`
	ItemCode       string          `json:"itemCode"`
	LotNo          string          `json:"lotNo,omitempty"`
	Qty            decimal.Decimal `json:"qty"`
	Reference      string          `json:"reference,omitempty"`
	ERPDocEntry    *int            `json:"erpDocEntry,omitempty"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
}
