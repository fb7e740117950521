package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implementación del rastro de auditoría sobre PostgreSQL.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador de auditoría.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Append agrega una entrada al rastro.
func (r *AuditRepo) Append(e *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_log (ts, user_name, action, payload, payload_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		e.Ts, e.UserName, e.Action, e.Payload, e.PayloadHash,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// List devuelve entradas del rastro, más recientes primero.
func (r *AuditRepo) List(userName, action string, limit int) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, ts, user_name, action, payload, payload_hash
		FROM audit_log WHERE 1=1`
	var args []any
	if userName != "" {
		args = append(args, userName)
		query += fmt.Sprintf(" AND user_name = $%d", len(args))
	}
	if action != "" {
		args = append(args, action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		err := rows.Scan(&e.ID, &e.Ts, &e.UserName, &e.Action, &e.Payload, &e.PayloadHash)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
