package repository

import "github.com/jhoicas/wms-api/internal/domain/entity"

// AuditRepository define el puerto del rastro de auditoría WMS.
type AuditRepository interface {
	Append(entry *entity.AuditEntry) error
	List(userName, action string, limit int) ([]*entity.AuditEntry, error)
}
