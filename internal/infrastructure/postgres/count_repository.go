package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

var _ repository.CountRepository = (*CountRepo)(nil)

// CountRepo implementación de CountRepository sobre PostgreSQL (usable con pool o tx).
type CountRepo struct {
	q Querier
}

// NewCountRepository construye el adaptador de conteos. Pasar pool o tx (Querier).
func NewCountRepository(q Querier) *CountRepo {
	return &CountRepo{q: q}
}

// CreateSession persiste la sesión y asigna su ID.
func (r *CountRepo) CreateSession(s *entity.CountSession) error {
	query := `
		INSERT INTO count_sessions (whs_code, status, created_by, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		s.WhsCode, s.Status, s.CreatedBy, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create count session: %w", err)
	}
	return nil
}

// GetSession obtiene una sesión por ID.
func (r *CountRepo) GetSession(id int64) (*entity.CountSession, error) {
	query := `
		SELECT id, whs_code, status, created_by, created_at, closed_at
		FROM count_sessions WHERE id = $1`
	var s entity.CountSession
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&s.ID, &s.WhsCode, &s.Status, &s.CreatedBy, &s.CreatedAt, &s.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sesion de conteo %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get count session: %w", err)
	}
	return &s, nil
}

// ListSessions devuelve sesiones filtradas por bodega y/o estado, más recientes primero.
func (r *CountRepo) ListSessions(whsCode, status string, limit int) ([]*entity.CountSession, error) {
	query := `
		SELECT id, whs_code, status, created_by, created_at, closed_at
		FROM count_sessions WHERE 1=1`
	var args []any
	if whsCode != "" {
		args = append(args, whsCode)
		query += fmt.Sprintf(" AND whs_code = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list count sessions: %w", err)
	}
	defer rows.Close()

	var out []*entity.CountSession
	for rows.Next() {
		var s entity.CountSession
		err := rows.Scan(&s.ID, &s.WhsCode, &s.Status, &s.CreatedBy, &s.CreatedAt, &s.ClosedAt)
		if err != nil {
			return nil, fmt.Errorf("scan count session: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// UpdateSessionStatus transiciona el estado y fija closed_at. Solo opera sobre
// sesiones abiertas: las terminales no cambian.
func (r *CountRepo) UpdateSessionStatus(id int64, status string, closedAt time.Time) error {
	query := `
		UPDATE count_sessions SET status = $2, closed_at = $3
		WHERE id = $1 AND status = 'OPEN'`
	cmd, err := r.q.Exec(context.Background(), query, id, status, closedAt)
	if err != nil {
		return fmt.Errorf("update count session status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("sesion de conteo %d no está abierta: %w", id, domain.ErrInvalidState)
	}
	return nil
}

// CreateDetail persiste una línea de detalle y asigna su ID.
func (r *CountRepo) CreateDetail(d *entity.CountDetail) error {
	query := `
		INSERT INTO count_details (session_id, location_id, item_code, lot_no, expected_qty, adjusted)
		VALUES ($1, $2, $3, $4, $5, false)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		d.SessionID, d.LocationID, d.ItemCode, d.LotNo, d.ExpectedQty,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("create count detail: %w", err)
	}
	return nil
}

// GetDetail obtiene una línea de detalle por ID.
func (r *CountRepo) GetDetail(id int64) (*entity.CountDetail, error) {
	query := `
		SELECT id, session_id, location_id, item_code, lot_no, expected_qty, counted_qty, adjusted
		FROM count_details WHERE id = $1`
	var d entity.CountDetail
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&d.ID, &d.SessionID, &d.LocationID, &d.ItemCode, &d.LotNo,
		&d.ExpectedQty, &d.CountedQty, &d.Adjusted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("linea de conteo %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get count detail: %w", err)
	}
	return &d, nil
}

// ListDetails devuelve las líneas de una sesión en orden de creación.
func (r *CountRepo) ListDetails(sessionID int64) ([]*entity.CountDetail, error) {
	query := `
		SELECT id, session_id, location_id, item_code, lot_no, expected_qty, counted_qty, adjusted
		FROM count_details WHERE session_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list count details: %w", err)
	}
	defer rows.Close()

	var out []*entity.CountDetail
	for rows.Next() {
		var d entity.CountDetail
		err := rows.Scan(&d.ID, &d.SessionID, &d.LocationID, &d.ItemCode, &d.LotNo,
			&d.ExpectedQty, &d.CountedQty, &d.Adjusted)
		if err != nil {
			return nil, fmt.Errorf("scan count detail: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// SetCountedQty registra la cantidad contada de una línea (re-digitar sobreescribe).
func (r *CountRepo) SetCountedQty(detailID int64, qty decimal.Decimal) error {
	query := `UPDATE count_details SET counted_qty = $2 WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query, detailID, qty)
	if err != nil {
		return fmt.Errorf("set counted qty: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("linea de conteo %d: %w", detailID, domain.ErrNotFound)
	}
	return nil
}

// MarkAdjusted marca la línea como ajustada (su movimiento correctivo quedó posteado).
func (r *CountRepo) MarkAdjusted(detailID int64) error {
	query := `UPDATE count_details SET adjusted = true WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query, detailID)
	if err != nil {
		return fmt.Errorf("mark adjusted: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("linea de conteo %d: %w", detailID, domain.ErrNotFound)
	}
	return nil
}
