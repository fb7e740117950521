package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una sesión de conteo cíclico. Las transiciones son monótonas:
// OPEN -> CLOSED (sin ajustes) u OPEN -> APPLIED (ajustes posteados); ambos terminales.
const (
	CountStatusOpen    = "OPEN"
	CountStatusClosed  = "CLOSED"
	CountStatusApplied = "APPLIED"
)

// CountSession representa una sesión de conteo cíclico sobre un conjunto de ubicaciones.
type CountSession struct {
	ID        int64
	WhsCode   string
	Status    string
	CreatedBy string
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Terminal indica si la sesión ya no admite mutaciones.
func (s *CountSession) Terminal() bool {
	return s.Status == CountStatusClosed || s.Status == CountStatusApplied
}

// CountDetail es una línea de conteo: la cantidad esperada queda congelada al crear
// la sesión; CountedQty es nil hasta que el operario la digita. Adjusted solo pasa a
// true cuando el movimiento correctivo de la línea quedó posteado (apply idempotente).
type CountDetail struct {
	ID          int64
	SessionID   int64
	LocationID  int64
	ItemCode    string
	LotNo       string
	ExpectedQty decimal.Decimal
	CountedQty  *decimal.Decimal
	Adjusted    bool
}

// Variance devuelve counted - expected, o nil si aún no hay cantidad digitada.
func (d *CountDetail) Variance() *decimal.Decimal {
	if d.CountedQty == nil {
		return nil
	}
	v := d.CountedQty.Sub(d.ExpectedQty)
	return &v
}
