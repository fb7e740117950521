package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación de LocationRepository sobre PostgreSQL (usable con pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de ubicaciones. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

const locationColumns = `
	id, whs_code, code, name, section, aisle, rack, level, bin,
	type, capacity_qty, capacity_uom, attributes, is_active`

func scanLocation(row pgx.Row) (*entity.Location, error) {
	var l entity.Location
	err := row.Scan(
		&l.ID, &l.WhsCode, &l.Code, &l.Name, &l.Section, &l.Aisle, &l.Rack,
		&l.Level, &l.Bin, &l.Type, &l.CapacityQty, &l.CapacityUoM,
		&l.Attributes, &l.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persiste una ubicación; ErrDuplicate si (whs_code, code) ya existe.
func (r *LocationRepo) Create(loc *entity.Location) error {
	query := `
		INSERT INTO locations (whs_code, code, name, section, aisle, rack, level, bin,
			type, capacity_qty, capacity_uom, attributes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		loc.WhsCode, loc.Code, loc.Name, loc.Section, loc.Aisle, loc.Rack,
		loc.Level, loc.Bin, loc.Type, loc.CapacityQty, loc.CapacityUoM,
		loc.Attributes, loc.IsActive,
	).Scan(&loc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(id int64) (*entity.Location, error) {
	query := `SELECT` + locationColumns + ` FROM locations WHERE id = $1`
	loc, err := scanLocation(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ubicacion %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

// GetForUpdate obtiene la ubicación bloqueando la fila (SELECT FOR UPDATE).
// Es el punto de serialización del chequeo de capacidad del destino.
func (r *LocationRepo) GetForUpdate(id int64) (*entity.Location, error) {
	query := `SELECT` + locationColumns + ` FROM locations WHERE id = $1 FOR UPDATE`
	loc, err := scanLocation(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ubicacion %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get location for update: %w", err)
	}
	return loc, nil
}

// Exists indica si ya existe una ubicación con esa identidad de negocio.
func (r *LocationRepo) Exists(whsCode, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM locations WHERE whs_code = $1 AND code = $2)`
	var exists bool
	if err := r.q.QueryRow(context.Background(), query, whsCode, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists location: %w", err)
	}
	return exists, nil
}

// ListByWarehouse devuelve las ubicaciones de una bodega en orden de código.
func (r *LocationRepo) ListByWarehouse(whsCode string, f repository.LocationFilter) ([]*entity.Location, error) {
	query := `SELECT` + locationColumns + ` FROM locations WHERE whs_code = $1`
	args := []any{whsCode}
	if f.CodeLike != "" {
		args = append(args, "%"+f.CodeLike+"%")
		query += fmt.Sprintf(" AND code ILIKE $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.ActiveOnly {
		query += " AND is_active"
	}
	query += " ORDER BY code"

	return r.queryLocations(query, args...)
}

// Search busca ubicaciones activas por subcadena de código o nombre.
func (r *LocationRepo) Search(q, whsCode, locType string, limit int) ([]*entity.Location, error) {
	query := `SELECT` + locationColumns + ` FROM locations
		WHERE is_active AND (code ILIKE $1 OR name ILIKE $1)`
	args := []any{"%" + q + "%"}
	if whsCode != "" {
		args = append(args, whsCode)
		query += fmt.Sprintf(" AND whs_code = $%d", len(args))
	}
	if locType != "" {
		args = append(args, locType)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY whs_code, code LIMIT $%d", len(args))

	return r.queryLocations(query, args...)
}

// Update actualiza los campos mutables; la identidad (whs_code, code) no cambia.
func (r *LocationRepo) Update(loc *entity.Location) error {
	query := `
		UPDATE locations SET name = $2, section = $3, aisle = $4, rack = $5,
			level = $6, bin = $7, type = $8, capacity_qty = $9, capacity_uom = $10,
			attributes = $11, is_active = $12
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		loc.ID, loc.Name, loc.Section, loc.Aisle, loc.Rack, loc.Level, loc.Bin,
		loc.Type, loc.CapacityQty, loc.CapacityUoM, loc.Attributes, loc.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("ubicacion %d: %w", loc.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *LocationRepo) queryLocations(query string, args ...any) ([]*entity.Location, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []*entity.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}
