package movement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza la atomicidad del libro de stock:
// decremento + incremento + append del movimiento son una sola unidad.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		locRepo repository.LocationRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error) error

	// RunCount agrega el repositorio de conteos a la misma transacción
	// (el posteo del movimiento correctivo y la marca adjusted de la línea
	// deben confirmar juntos).
	RunCount(ctx context.Context, fn func(
		locRepo repository.LocationRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		countRepo repository.CountRepository,
	) error) error
}

// ERPLine línea de un documento hacia el ERP.
type ERPLine struct {
	Item string          `json:"item"`
	Lot  string          `json:"lot,omitempty"`
	Qty  decimal.Decimal `json:"qty"`
}

// ERPDocument documento finalizado de movimiento/ajuste para el ERP.
// Reference es la clave idempotente: reenviar con la misma referencia
// no duplica el documento.
type ERPDocument struct {
	FromWhs   string    `json:"fromWhs,omitempty"`
	ToWhs     string    `json:"toWhs,omitempty"`
	Whs       string    `json:"whs,omitempty"`
	Reference string    `json:"reference"`
	Lines     []ERPLine `json:"lines"`
}

// ERPPostResult referencia del documento posteado en el ERP.
type ERPPostResult struct {
	DocEntry int
}

// ERPBridge es el puerto de salida hacia el servicio puente del ERP.
// Se inyecta como colaborador para habilitar dobles de prueba; nunca es
// estado global. Las llamadas son I/O y no deben ejecutarse sosteniendo
// ninguna transacción ni lock del libro.
type ERPBridge interface {
	GoodsReceipt(ctx context.Context, doc ERPDocument) (*ERPPostResult, error)
	GoodsIssue(ctx context.Context, doc ERPDocument) (*ERPPostResult, error)
	InventoryTransfer(ctx context.Context, doc ERPDocument) (*ERPPostResult, error)
}

// ExternalError fallo estructurado del puente ERP. El estado local ya quedó
// confirmado cuando aparece: se reporta, no se revierte.
type ExternalError struct {
	Code    string
	Message string
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("erp: %s: %s", e.Code, e.Message)
}
