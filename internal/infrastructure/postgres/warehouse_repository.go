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

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega.
func (r *WarehouseRepo) Create(warehouse *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (whs_code, name, active)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		warehouse.WhsCode, warehouse.Name, warehouse.Active,
	).Scan(&warehouse.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByCode obtiene una bodega por su código corto.
func (r *WarehouseRepo) GetByCode(whsCode string) (*entity.Warehouse, error) {
	query := `
		SELECT id, whs_code, name, active
		FROM warehouses WHERE whs_code = $1`
	var w entity.Warehouse
	err := r.q.QueryRow(context.Background(), query, whsCode).Scan(
		&w.ID, &w.WhsCode, &w.Name, &w.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bodega %s: %w", whsCode, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// List devuelve las bodegas en orden de código.
func (r *WarehouseRepo) List(activeOnly bool) ([]*entity.Warehouse, error) {
	query := `
		SELECT id, whs_code, name, active
		FROM warehouses`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY whs_code`

	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()

	var out []*entity.Warehouse
	for rows.Next() {
		var w entity.Warehouse
		if err := rows.Scan(&w.ID, &w.WhsCode, &w.Name, &w.Active); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}
