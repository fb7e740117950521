package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypePutaway      = "PUTAWAY"       // entrada a ubicación (solo destino)
	MovementTypeIssue        = "ISSUE"         // salida de ubicación (solo origen)
	MovementTypeInternalMove = "INTERNAL_MOVE" // traslado dentro de la misma bodega
	MovementTypeTransfer     = "TRANSFER"      // traslado entre bodegas
)

// Movement es el registro inmutable de un movimiento de inventario (append-only).
// PUTAWAY solo lleva destino; ISSUE solo origen; INTERNAL_MOVE y TRANSFER ambos.
// Los saldos se mantienen incrementalmente pero deben equivaler siempre al
// plegado de la historia de movimientos.
type Movement struct {
	ID             int64
	Type           string
	FromWhs        string
	FromLocationID *int64
	ToWhs          string
	ToLocationID   *int64
	ItemCode       string
	LotNo          string
	Qty            decimal.Decimal // siempre positiva; el signo lo da el tipo y el extremo
	UoM            string
	Reference      string // correlaciona con el documento ERP cuando se postea
	ERPDocType     string
	ERPDocEntry    *int
	IdempotencyKey string
	CreatedBy      string
	CreatedAt      time.Time
}
