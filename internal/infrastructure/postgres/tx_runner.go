package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/wms-api/internal/application/movement"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

var _ movement.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	locRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	locRepo := NewLocationRepository(tx)
	stockRepo := NewStockRepository(tx)
	movRepo := NewMovementRepository(tx)

	if err := fn(locRepo, stockRepo, movRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunCount inicia una transacción que además incluye el repositorio de conteos
// (el movimiento correctivo y la marca adjusted deben confirmar juntos).
func (r *TxRunner) RunCount(ctx context.Context, fn func(
	locRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	countRepo repository.CountRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	locRepo := NewLocationRepository(tx)
	stockRepo := NewStockRepository(tx)
	movRepo := NewMovementRepository(tx)
	countRepo := NewCountRepository(tx)

	if err := fn(locRepo, stockRepo, movRepo, countRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
