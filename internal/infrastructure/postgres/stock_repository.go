package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const balanceColumns = `
	id, whs_code, location_id, item_code, item_name, lot_no, qty, uom, last_updated`

func scanBalance(row pgx.Row) (*entity.StockBalance, error) {
	var b entity.StockBalance
	err := row.Scan(
		&b.ID, &b.WhsCode, &b.LocationID, &b.ItemCode, &b.ItemName,
		&b.LotNo, &b.Qty, &b.UoM, &b.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Get devuelve el saldo actual de un ítem/lote en una ubicación; si no hay
// fila devuelve un saldo en cero, no un error.
func (r *StockRepo) Get(locationID int64, itemCode, lotNo string) (*entity.StockBalance, error) {
	query := `SELECT` + balanceColumns + `
		FROM stock_balances WHERE location_id = $1 AND item_code = $2 AND lot_no = $3`
	b, err := scanBalance(r.q.QueryRow(context.Background(), query, locationID, itemCode, lotNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{
				LocationID: locationID, ItemCode: itemCode, LotNo: lotNo, Qty: decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return b, nil
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(locationID int64, itemCode, lotNo string) (*entity.StockBalance, error) {
	query := `SELECT` + balanceColumns + `
		FROM stock_balances WHERE location_id = $1 AND item_code = $2 AND lot_no = $3
		FOR UPDATE`
	b, err := scanBalance(r.q.QueryRow(context.Background(), query, locationID, itemCode, lotNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{
				LocationID: locationID, ItemCode: itemCode, LotNo: lotNo, Qty: decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stock balance for update: %w", err)
	}
	return b, nil
}

// Upsert inserta o actualiza la cantidad del saldo. Los saldos en cero se
// conservan para continuidad de auditoría.
func (r *StockRepo) Upsert(balance *entity.StockBalance) error {
	query := `
		INSERT INTO stock_balances (whs_code, location_id, item_code, item_name, lot_no, qty, uom, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (location_id, item_code, lot_no)
		DO UPDATE SET qty = EXCLUDED.qty, item_name = EXCLUDED.item_name,
			uom = EXCLUDED.uom, last_updated = now()`
	_, err := r.q.Exec(context.Background(), query,
		balance.WhsCode, balance.LocationID, balance.ItemCode, balance.ItemName,
		balance.LotNo, balance.Qty, balance.UoM,
	)
	if err != nil {
		return fmt.Errorf("upsert stock balance: %w", err)
	}
	return nil
}

// AggregateQty suma todos los saldos de una ubicación (chequeo de capacidad).
func (r *StockRepo) AggregateQty(locationID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(qty), 0) FROM stock_balances WHERE location_id = $1`
	var total decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, locationID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("aggregate qty: %w", err)
	}
	return total, nil
}

// DistinctTuples cuenta las tuplas ítem/lote con saldo positivo en la ubicación.
func (r *StockRepo) DistinctTuples(locationID int64) (int, error) {
	query := `SELECT COUNT(*) FROM stock_balances WHERE location_id = $1 AND qty > 0`
	var n int
	if err := r.q.QueryRow(context.Background(), query, locationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("distinct tuples: %w", err)
	}
	return n, nil
}

// ListByLocation devuelve los saldos de una ubicación.
func (r *StockRepo) ListByLocation(locationID int64) ([]*entity.StockBalance, error) {
	query := `SELECT` + balanceColumns + `
		FROM stock_balances WHERE location_id = $1 ORDER BY item_code, lot_no`
	return r.queryBalances(query, locationID)
}

// ListByItem devuelve los saldos de un ítem en una bodega, por ubicación.
func (r *StockRepo) ListByItem(whsCode, itemCode string) ([]*entity.StockBalance, error) {
	query := `SELECT` + balanceColumns + `
		FROM stock_balances WHERE whs_code = $1 AND item_code = $2
		ORDER BY location_id, lot_no`
	return r.queryBalances(query, whsCode, itemCode)
}

// Summary agrega el total del ítem en la bodega (conciliación con el ERP).
func (r *StockRepo) Summary(whsCode, itemCode string) (*repository.StockSummary, error) {
	query := `
		SELECT COALESCE(SUM(qty), 0), COALESCE(MAX(item_name), ''), COALESCE(MAX(uom), ''),
			COUNT(DISTINCT location_id) FILTER (WHERE qty > 0)
		FROM stock_balances WHERE whs_code = $1 AND item_code = $2`
	s := &repository.StockSummary{WhsCode: whsCode, ItemCode: itemCode}
	err := r.q.QueryRow(context.Background(), query, whsCode, itemCode).Scan(
		&s.TotalQty, &s.ItemName, &s.UoM, &s.LocationCount,
	)
	if err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}
	return s, nil
}

// LowUtilization devuelve ubicaciones activas con capacidad declarada cuya
// utilización está por debajo del umbral (candidatas a consolidación).
func (r *StockRepo) LowUtilization(whsCode string, thresholdPct float64) ([]*repository.LocationUtilization, error) {
	query := `
		SELECT l.id, l.code, l.capacity_qty, l.capacity_uom,
			COALESCE(SUM(b.qty), 0) AS current_qty,
			ROUND(COALESCE(SUM(b.qty), 0) / l.capacity_qty * 100, 2) AS utilization_pct
		FROM locations l
		LEFT JOIN stock_balances b ON b.location_id = l.id
		WHERE l.whs_code = $1 AND l.is_active AND l.capacity_qty > 0
		GROUP BY l.id, l.code, l.capacity_qty, l.capacity_uom
		HAVING COALESCE(SUM(b.qty), 0) / l.capacity_qty * 100 < $2
		ORDER BY utilization_pct, l.code`
	rows, err := r.q.Query(context.Background(), query, whsCode, thresholdPct)
	if err != nil {
		return nil, fmt.Errorf("low utilization: %w", err)
	}
	defer rows.Close()

	var out []*repository.LocationUtilization
	for rows.Next() {
		var u repository.LocationUtilization
		err := rows.Scan(&u.LocationID, &u.LocationCode, &u.CapacityQty,
			&u.CapacityUoM, &u.CurrentQty, &u.UtilizationPct)
		if err != nil {
			return nil, fmt.Errorf("scan utilization: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *StockRepo) queryBalances(query string, args ...any) ([]*entity.StockBalance, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stock balances: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
