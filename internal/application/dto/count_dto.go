package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCountRequest body para POST /api/counts. El scope es el conjunto de
// ubicaciones a congelar en la sesión.
type CreateCountRequest struct {
	Whs       string  `json:"whs"`
	Locations []int64 `json:"locations"`
}

// CountEntry una cantidad contada para una línea de detalle.
type CountEntry struct {
	DetailID   int64           `json:"detailId"`
	CountedQty decimal.Decimal `json:"countedQty"`
}

// EnterCountsRequest body para PUT /api/counts/:id/enter.
type EnterCountsRequest struct {
	Counts []CountEntry `json:"counts"`
}

// ApplyCountRequest body para POST /api/counts/:id/apply.
type ApplyCountRequest struct {
	CreateAdjustments bool   `json:"createAdjustments"`
	Comment           string `json:"comment,omitempty"`
}

// CountLineResult resultado por línea del apply (el éxito parcial se reporta
// línea a línea; las fallidas quedan sin ajustar y se reintentan).
type CountLineResult struct {
	DetailID int64           `json:"detailId"`
	Item     string          `json:"item"`
	Lot      string          `json:"lot,omitempty"`
	Variance decimal.Decimal `json:"variance"`
	Adjusted bool            `json:"adjusted"`
	Error    string          `json:"error,omitempty"`
}

// ApplyCountResponse resultado del apply de una sesión.
type ApplyCountResponse struct {
	SessionID int64             `json:"sessionId"`
	Status    string            `json:"status"`
	Lines     []CountLineResult `json:"lines"`
}

// CountSessionResponse representación de una sesión en respuestas.
type CountSessionResponse struct {
	ID        int64      `json:"id"`
	WhsCode   string     `json:"whsCode"`
	Status    string     `json:"status"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

// CountDetailResponse una línea de detalle de la sesión.
type CountDetailResponse struct {
	ID          int64            `json:"id"`
	LocationID  int64            `json:"locationId"`
	ItemCode    string           `json:"itemCode"`
	LotNo       string           `json:"lotNo,omitempty"`
	ExpectedQty decimal.Decimal  `json:"expectedQty"`
	CountedQty  *decimal.Decimal `json:"countedQty,omitempty"`
	Adjusted    bool             `json:"adjusted"`
}
