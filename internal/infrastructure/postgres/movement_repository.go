package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del libro de movimientos sobre PostgreSQL.
// El libro es append-only: solo insert y un update acotado a los campos ERP.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *MovementRepo) Create(m *entity.Movement) error {
	query := `
		INSERT INTO movements (type, from_whs, from_location_id, to_whs, to_location_id,
			item_code, lot_no, qty, uom, reference, erp_doc_type, erp_doc_entry,
			idempotency_key, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	fromWhs := nullable(m.FromWhs)
	toWhs := nullable(m.ToWhs)
	docType := nullable(m.ERPDocType)
	err := r.q.QueryRow(context.Background(), query,
		m.Type, fromWhs, m.FromLocationID, toWhs, m.ToLocationID,
		m.ItemCode, m.LotNo, m.Qty, m.UoM, m.Reference, docType, m.ERPDocEntry,
		m.IdempotencyKey, m.CreatedBy, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// List devuelve la historia de movimientos, más recientes primero.
func (r *MovementRepo) List(f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `
		SELECT id, type, COALESCE(from_whs, ''), from_location_id, COALESCE(to_whs, ''),
			to_location_id, item_code, lot_no, qty, uom, reference,
			COALESCE(erp_doc_type, ''), erp_doc_entry, idempotency_key, created_by, created_at
		FROM movements WHERE 1=1`
	var args []any
	if f.WhsCode != "" {
		args = append(args, f.WhsCode)
		query += fmt.Sprintf(" AND (from_whs = $%d OR to_whs = $%d)", len(args), len(args))
	}
	if f.ItemCode != "" {
		args = append(args, f.ItemCode)
		query += fmt.Sprintf(" AND item_code = $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		err := rows.Scan(
			&m.ID, &m.Type, &m.FromWhs, &m.FromLocationID, &m.ToWhs,
			&m.ToLocationID, &m.ItemCode, &m.LotNo, &m.Qty, &m.UoM, &m.Reference,
			&m.ERPDocType, &m.ERPDocEntry, &m.IdempotencyKey, &m.CreatedBy, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// SetERPDoc anota el documento ERP posteado sobre los movimientos de una referencia.
func (r *MovementRepo) SetERPDoc(reference, docType string, docEntry int) error {
	query := `
		UPDATE movements SET erp_doc_type = $2, erp_doc_entry = $3
		WHERE reference = $1 AND erp_doc_entry IS NULL`
	_, err := r.q.Exec(context.Background(), query, reference, docType, docEntry)
	if err != nil {
		return fmt.Errorf("set erp doc: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
