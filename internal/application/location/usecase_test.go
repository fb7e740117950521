package location_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/wms-api/internal/application/apptest"
	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/application/location"
	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
	"github.com/jhoicas/wms-api/pkg/logger"
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func ptr[T any](v T) *T { return &v }

func newFixture(t *testing.T) (*apptest.Store, *location.RegistryUseCase) {
	t.Helper()
	store := apptest.NewStore()
	store.SeedWarehouse("WH01")
	uc := location.NewRegistryUseCase(
		store.Warehouses(), store.Locations(), store.Stocks(), store.Audits(),
		10000, logger.Nop(),
	)
	return store, uc
}

// ──────────────────────────────────────────────────────────────────────────────
// Bodegas
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateWarehouse(t *testing.T) {
	_, uc := newFixture(t)
	ctx := context.Background()

	wh, err := uc.CreateWarehouse(ctx, "ana", dto.CreateWarehouseRequest{WhsCode: "WH02", Name: "Norte"})
	require.NoError(t, err)
	assert.True(t, wh.Active)

	// código vacío o de más de 8 caracteres
	_, err = uc.CreateWarehouse(ctx, "ana", dto.CreateWarehouseRequest{WhsCode: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateWarehouse(ctx, "ana", dto.CreateWarehouseRequest{WhsCode: "WAREHOUSE1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// duplicado
	_, err = uc.CreateWarehouse(ctx, "ana", dto.CreateWarehouseRequest{WhsCode: "WH02"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	whs, err := uc.ListWarehouses(ctx)
	require.NoError(t, err)
	assert.Len(t, whs, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// CRUD de ubicaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ValidaYRegistra(t *testing.T) {
	_, uc := newFixture(t)
	ctx := context.Background()

	loc, err := uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{
		Code: "A-01-01", Type: entity.LocationTypeStorage, CapacityQty: ptr(qty(100)),
	})
	require.NoError(t, err)
	assert.True(t, loc.IsActive)
	assert.NotZero(t, loc.ID)

	// duplicado dentro de la misma bodega
	_, err = uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{Code: "A-01-01"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// tipo desconocido
	_, err = uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{Code: "A-01-02", Type: "SHELF"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// capacidad negativa
	_, err = uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{
		Code: "A-01-03", CapacityQty: ptr(qty(-1)),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// bodega inexistente
	_, err = uc.Create(ctx, "ana", "WH99", dto.CreateLocationRequest{Code: "A-01-01"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_PatchParcial(t *testing.T) {
	_, uc := newFixture(t)
	ctx := context.Background()

	loc, err := uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{
		Code: "A-01-01", Name: "Estante A", Type: entity.LocationTypeStorage,
	})
	require.NoError(t, err)

	got, err := uc.Update(ctx, "ana", loc.ID, dto.UpdateLocationRequest{
		CapacityQty: ptr(qty(50)),
		IsActive:    ptr(false),
	})
	require.NoError(t, err)
	require.NotNil(t, got.CapacityQty)
	assert.True(t, got.CapacityQty.Equal(qty(50)))
	assert.False(t, got.IsActive)
	// los campos no presentes en el patch no se tocan
	assert.Equal(t, "Estante A", got.Name)
	assert.Equal(t, entity.LocationTypeStorage, got.Type)

	_, err = uc.Update(ctx, "ana", loc.ID, dto.UpdateLocationRequest{Type: ptr("SHELF")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Update(ctx, "ana", 9999, dto.UpdateLocationRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearch_RequiereConsulta(t *testing.T) {
	_, uc := newFixture(t)
	_, err := uc.Search(context.Background(), "", "WH01", "", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestList_FiltraPorBodega(t *testing.T) {
	_, uc := newFixture(t)
	ctx := context.Background()
	_, err := uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{Code: "A-01-01", Type: entity.LocationTypeStorage})
	require.NoError(t, err)

	locs, err := uc.List(ctx, "WH01", repository.LocationFilter{})
	require.NoError(t, err)
	assert.Len(t, locs, 1)

	_, err = uc.List(ctx, "WH99", repository.LocationFilter{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Generación masiva
// ──────────────────────────────────────────────────────────────────────────────

func TestBulkGenerate_ExpandeYEsIdempotente(t *testing.T) {
	_, uc := newFixture(t)
	ctx := context.Background()

	res, err := uc.BulkGenerate(ctx, "ana", "WH01", dto.BulkGenerateRequest{
		Pattern: "SEC{01-02}-BIN{01-02}", Type: entity.LocationTypeStorage,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Created)
	assert.Equal(t, 0, res.Skipped)

	locs, err := uc.List(ctx, "WH01", repository.LocationFilter{})
	require.NoError(t, err)
	require.Len(t, locs, 4)
	assert.Equal(t, "SEC01-BIN01", locs[0].Code)
	// atributos jerárquicos posicionales derivados del código
	assert.Equal(t, "SEC01", locs[0].Section)
	assert.Equal(t, "BIN01", locs[0].Aisle)
	assert.True(t, locs[0].IsActive)

	// re-corrida: todo saltado, nada duplicado
	res, err = uc.BulkGenerate(ctx, "ana", "WH01", dto.BulkGenerateRequest{
		Pattern: "SEC{01-02}-BIN{01-02}", Type: entity.LocationTypeStorage,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 4, res.Skipped)
}

func TestBulkGenerate_PatronInvalido(t *testing.T) {
	_, uc := newFixture(t)
	ctx := context.Background()

	// rango invertido: validación todo-o-nada, no se crea nada
	_, err := uc.BulkGenerate(ctx, "ana", "WH01", dto.BulkGenerateRequest{Pattern: "SEC{05-01}"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	locs, err := uc.List(ctx, "WH01", repository.LocationFilter{})
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestBulkGenerate_ExpansionSobreTope(t *testing.T) {
	store := apptest.NewStore()
	store.SeedWarehouse("WH01")
	uc := location.NewRegistryUseCase(
		store.Warehouses(), store.Locations(), store.Stocks(), store.Audits(),
		10, logger.Nop(),
	)

	_, err := uc.BulkGenerate(context.Background(), "ana", "WH01", dto.BulkGenerateRequest{
		Pattern: "A{01-10}-B{01-10}",
	})
	assert.ErrorIs(t, err, domain.ErrPatternTooLarge)
}

// ──────────────────────────────────────────────────────────────────────────────
// Capacidad
// ──────────────────────────────────────────────────────────────────────────────

func TestCapacitySnapshot(t *testing.T) {
	store, uc := newFixture(t)
	ctx := context.Background()

	withCap, err := uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{
		Code: "A-01-01", Type: entity.LocationTypeStorage, CapacityQty: ptr(qty(100)),
	})
	require.NoError(t, err)
	noCap, err := uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{
		Code: "A-01-02", Type: entity.LocationTypeStorage,
	})
	require.NoError(t, err)

	store.SeedBalance("WH01", withCap.ID, "ITEM-001", "", qty(20))
	store.SeedBalance("WH01", withCap.ID, "ITEM-002", "L1", qty(5))

	snap, err := uc.CapacitySnapshot(ctx, withCap.ID)
	require.NoError(t, err)
	assert.True(t, snap.CurrentQty.Equal(qty(25)))
	assert.Equal(t, 2, snap.CurrentItems)
	require.NotNil(t, snap.UtilizationPct)
	assert.True(t, snap.UtilizationPct.Equal(qty(25)))

	// sin capacidad declarada la utilización no se computa
	snap, err = uc.CapacitySnapshot(ctx, noCap.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.UtilizationPct)
	assert.True(t, snap.CurrentQty.IsZero())
}

func TestOperacionesDelRegistro_EscribenAuditoria(t *testing.T) {
	store, uc := newFixture(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, "ana", "WH01", dto.CreateLocationRequest{Code: "A-01-01", Type: entity.LocationTypeStorage})
	require.NoError(t, err)

	entries := store.AuditEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, "ana", entries[0].UserName)
	assert.Equal(t, "create_location", entries[0].Action)
}
