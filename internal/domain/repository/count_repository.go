package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-api/internal/domain/entity"
)

// CountRepository define el puerto de persistencia de sesiones de conteo cíclico.
type CountRepository interface {
	// CreateSession persiste la sesión y asigna su ID.
	CreateSession(session *entity.CountSession) error
	GetSession(id int64) (*entity.CountSession, error)
	ListSessions(whsCode, status string, limit int) ([]*entity.CountSession, error)
	// UpdateSessionStatus transiciona el estado y fija closed_at.
	UpdateSessionStatus(id int64, status string, closedAt time.Time) error

	CreateDetail(detail *entity.CountDetail) error
	GetDetail(id int64) (*entity.CountDetail, error)
	ListDetails(sessionID int64) ([]*entity.CountDetail, error)
	SetCountedQty(detailID int64, qty decimal.Decimal) error
	MarkAdjusted(detailID int64) error
}
