package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance representa el saldo actual de un ítem/lote en una ubicación.
// Invariante: Qty >= 0 siempre; la suma de los saldos de un (ítem, lote) en todas
// las ubicaciones es igual al neto de los movimientos registrados para esa tupla.
// Un saldo que llega a cero se conserva (no se borra) para continuidad de auditoría.
type StockBalance struct {
	ID          int64
	WhsCode     string
	LocationID  int64
	ItemCode    string
	ItemName    string
	LotNo       string // vacío = ítem sin lote
	Qty         decimal.Decimal
	UoM         string
	LastUpdated time.Time
}
