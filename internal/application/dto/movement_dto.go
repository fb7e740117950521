package dto

import "github.com/shopspring/decimal"

// MovementLine línea de una operación de inventario. Según la operación se
// exige FromLocationID, ToLocationID o ambos.
type MovementLine struct {
	Item           string          `json:"item"`
	Lot            string          `json:"lot,omitempty"`
	Qty            decimal.Decimal `json:"qty"`
	UoM            string          `json:"uom,omitempty"`
	FromLocationID *int64          `json:"fromLocationId,omitempty"`
	ToLocationID   *int64          `json:"toLocationId,omitempty"`
}

// PutawayRequest body para POST /api/operations/putaway.
// Cada línea requiere toLocationId; el destino debe estar activo.
type PutawayRequest struct {
	Whs   string         `json:"whs"`
	Lines []MovementLine `json:"lines"`
}

// IssueRequest body para POST /api/operations/issue.
// Cada línea requiere fromLocationId y qty <= saldo disponible.
type IssueRequest struct {
	Whs    string         `json:"whs"`
	Reason string         `json:"reason,omitempty"`
	Lines  []MovementLine `json:"lines"`
}

// InternalMoveRequest body para POST /api/operations/move-internal.
// Origen y destino deben pertenecer a la misma bodega.
type InternalMoveRequest struct {
	Whs   string         `json:"whs"`
	Lines []MovementLine `json:"lines"`
}

// TransferRequest body para POST /api/operations/transfer-warehouse.
// fromWhs != toWhs; el posteo del documento ERP se hace tras el commit local.
type TransferRequest struct {
	FromWhs string         `json:"fromWhs"`
	ToWhs   string         `json:"toWhs"`
	Lines   []MovementLine `json:"lines"`
}

// ERPWarning fallo no fatal del puente ERP: el libro local ya quedó confirmado
// y el reenvío fuera de banda usa Reference como clave idempotente.
type ERPWarning struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
}

// MovementResponse resultado de una operación de inventario.
type MovementResponse struct {
	Ok               bool        `json:"ok"`
	MovementsCreated int         `json:"movementsCreated"`
	Reference        string      `json:"reference"`
	ERPDocEntry      *int        `json:"erpDocEntry,omitempty"`
	ERPWarning       *ERPWarning `json:"erpWarning,omitempty"`
}
