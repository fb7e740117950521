package count_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/wms-api/internal/application/apptest"
	"github.com/jhoicas/wms-api/internal/application/count"
	"github.com/jhoicas/wms-api/internal/application/dto"
	"github.com/jhoicas/wms-api/internal/application/movement"
	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newFixture(t *testing.T) (*apptest.Store, *count.UseCase, map[string]int64) {
	t.Helper()
	store := apptest.NewStore()
	store.SeedWarehouse("WH01")

	ids := map[string]int64{
		"a1": store.SeedLocation(&entity.Location{
			WhsCode: "WH01", Code: "A-01-01", Type: entity.LocationTypeStorage, IsActive: true,
		}),
		"a2": store.SeedLocation(&entity.Location{
			WhsCode: "WH01", Code: "A-01-02", Type: entity.LocationTypeStorage, IsActive: true,
		}),
	}

	movementUC := movement.NewExecuteMovementUseCase(
		store, store.Warehouses(), store.Locations(), store.MovementLog(),
		store.Audits(), nil, logger.Nop(),
	)
	uc := count.NewUseCase(
		store, store.Warehouses(), store.Locations(), store.Stocks(),
		store.Counts(), store.Audits(), movementUC, logger.Nop(),
	)
	return store, uc, ids
}

func createSession(t *testing.T, uc *count.UseCase, locs ...int64) (int64, []dto.CountDetailResponse) {
	t.Helper()
	session, details, err := uc.Create(context.Background(), dto.CreateCountRequest{
		Whs: "WH01", Locations: locs,
	}, "ana")
	require.NoError(t, err)
	return session.ID, details
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_CongelaElSnapshot(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "L1", qty(10))
	store.SeedBalance("WH01", ids["a1"], "ITEM-002", "", qty(4))
	store.SeedBalance("WH01", ids["a2"], "ITEM-003", "", decimal.Zero) // sin saldo: no genera línea

	sessionID, details := createSession(t, uc, ids["a1"], ids["a2"])
	require.Len(t, details, 2)
	assert.True(t, details[0].ExpectedQty.Equal(qty(10)))
	assert.Nil(t, details[0].CountedQty)

	session, _, err := uc.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusOpen, session.Status)
	assert.Equal(t, "ana", session.CreatedBy)
}

func TestCreate_UbicacionDeOtraBodega(t *testing.T) {
	store, uc, _ := newFixture(t)
	store.SeedWarehouse("WH02")
	otherID := store.SeedLocation(&entity.Location{
		WhsCode: "WH02", Code: "B-01-01", Type: entity.LocationTypeStorage, IsActive: true,
	})

	_, _, err := uc.Create(context.Background(), dto.CreateCountRequest{
		Whs: "WH01", Locations: []int64{otherID},
	}, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_SinUbicaciones(t *testing.T) {
	_, uc, _ := newFixture(t)
	_, _, err := uc.Create(context.Background(), dto.CreateCountRequest{Whs: "WH01"}, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Digitación
// ──────────────────────────────────────────────────────────────────────────────

func TestEnterCounts_SobreescribeYValida(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	sessionID, details := createSession(t, uc, ids["a1"])

	err := uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: details[0].ID, CountedQty: qty(9)}},
	}, "ana")
	require.NoError(t, err)

	// re-digitar sobreescribe
	err = uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: details[0].ID, CountedQty: qty(7)}},
	}, "ana")
	require.NoError(t, err)

	d := store.Detail(details[0].ID)
	require.NotNil(t, d.CountedQty)
	assert.True(t, d.CountedQty.Equal(qty(7)))
}

func TestEnterCounts_CantidadNegativa(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	sessionID, details := createSession(t, uc, ids["a1"])

	err := uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: details[0].ID, CountedQty: qty(-1)}},
	}, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnterCounts_LineaDeOtraSesion(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	store.SeedBalance("WH01", ids["a2"], "ITEM-002", "", qty(5))
	s1, _ := createSession(t, uc, ids["a1"])
	_, d2 := createSession(t, uc, ids["a2"])

	err := uc.EnterCounts(context.Background(), s1, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: d2[0].ID, CountedQty: qty(5)}},
	}, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Apply
// ──────────────────────────────────────────────────────────────────────────────

// Ciclo completo: esperado 10, contado 7 → un ISSUE de 3, línea ajustada,
// saldo final 7, sesión APPLIED, re-apply rechazado.
func TestApply_CicloCompletoConFaltante(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	sessionID, details := createSession(t, uc, ids["a1"])

	require.NoError(t, uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: details[0].ID, CountedQty: qty(7)}},
	}, "ana"))

	res, err := uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{
		CreateAdjustments: true, Comment: "auditoria",
	}, "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusApplied, res.Status)
	require.Len(t, res.Lines, 1)
	assert.True(t, res.Lines[0].Adjusted)
	assert.True(t, res.Lines[0].Variance.Equal(qty(-3)))

	assert.True(t, store.BalanceQty(ids["a1"], "ITEM-001", "").Equal(qty(7)))

	movs := store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeIssue, movs[0].Type)
	assert.True(t, movs[0].Qty.Equal(qty(3)))
	assert.Contains(t, movs[0].Reference, "COUNT-")
	assert.Contains(t, movs[0].Reference, "auditoria")

	assert.True(t, store.Detail(details[0].ID).Adjusted)

	// re-apply sobre sesión terminal
	_, err = uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{CreateAdjustments: true}, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestApply_SobranteGeneraPutaway(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	sessionID, details := createSession(t, uc, ids["a1"])

	require.NoError(t, uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: details[0].ID, CountedQty: qty(12)}},
	}, "ana"))

	res, err := uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{CreateAdjustments: true}, "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusApplied, res.Status)

	assert.True(t, store.BalanceQty(ids["a1"], "ITEM-001", "").Equal(qty(12)))
	movs := store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypePutaway, movs[0].Type)
	assert.True(t, movs[0].Qty.Equal(qty(2)))
}

func TestApply_SinVarianzaNoGeneraMovimientos(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	sessionID, details := createSession(t, uc, ids["a1"])

	require.NoError(t, uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: details[0].ID, CountedQty: qty(10)}},
	}, "ana"))

	res, err := uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{CreateAdjustments: true}, "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusApplied, res.Status)
	assert.Empty(t, res.Lines)
	assert.Empty(t, store.Movements())
}

func TestApply_CerrarSinAjustes(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	sessionID, details := createSession(t, uc, ids["a1"])

	require.NoError(t, uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: details[0].ID, CountedQty: qty(3)}},
	}, "ana"))

	res, err := uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{CreateAdjustments: false}, "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusClosed, res.Status)
	assert.Empty(t, store.Movements(), "cerrar no toca el libro")
	assert.True(t, store.BalanceQty(ids["a1"], "ITEM-001", "").Equal(qty(10)))

	// CLOSED es terminal
	_, err = uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{CreateAdjustments: true}, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// Una sesión parcialmente digitada es válida: las líneas sin cantidad contada
// se saltan y solo las digitadas con varianza generan ajuste.
func TestApply_SesionParcialmenteContada(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	store.SeedBalance("WH01", ids["a2"], "ITEM-002", "", qty(5))
	sessionID, details := createSession(t, uc, ids["a1"], ids["a2"])

	// solo se digita la primera línea
	require.NoError(t, uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: details[0].ID, CountedQty: qty(7)}},
	}, "ana"))

	res, err := uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{CreateAdjustments: true}, "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusApplied, res.Status)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, details[0].ID, res.Lines[0].DetailID)
	assert.True(t, res.Lines[0].Adjusted)

	// la línea digitada ajusta; la no digitada no toca el libro
	assert.True(t, store.BalanceQty(ids["a1"], "ITEM-001", "").Equal(qty(7)))
	assert.True(t, store.BalanceQty(ids["a2"], "ITEM-002", "").Equal(qty(5)))
	assert.False(t, store.Detail(details[1].ID).Adjusted)
	require.Len(t, store.Movements(), 1)
}

// Si una línea falla al postear su ajuste, la sesión permanece OPEN y el
// reintento solo postea las pendientes (las ajustadas no se duplican).
func TestApply_FalloParcialPermiteReintento(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	store.SeedBalance("WH01", ids["a2"], "ITEM-002", "", qty(5))
	sessionID, details := createSession(t, uc, ids["a1"], ids["a2"])

	require.NoError(t, uc.EnterCounts(context.Background(), sessionID, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{
			{DetailID: details[0].ID, CountedQty: qty(8)}, // varianza -2, aplicable
			{DetailID: details[1].ID, CountedQty: qty(1)}, // varianza -4, fallará
		},
	}, "ana"))

	// vaciar la segunda ubicación tras el snapshot: el ISSUE de 4 no tendrá saldo
	movementUC := movement.NewExecuteMovementUseCase(
		store, store.Warehouses(), store.Locations(), store.MovementLog(),
		store.Audits(), nil, logger.Nop(),
	)
	fromID := ids["a2"]
	_, err := movementUC.ExecuteIssue(context.Background(), "otro", dto.IssueRequest{
		Whs: "WH01",
		Lines: []dto.MovementLine{
			{Item: "ITEM-002", Qty: qty(3), FromLocationID: &fromID},
		},
	})
	require.NoError(t, err)

	res, err := uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{CreateAdjustments: true}, "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusOpen, res.Status, "la sesión permanece abierta para reintento")
	require.Len(t, res.Lines, 2)
	assert.True(t, res.Lines[0].Adjusted)
	assert.False(t, res.Lines[1].Adjusted)
	assert.NotEmpty(t, res.Lines[1].Error)

	// la línea buena quedó firme
	assert.True(t, store.BalanceQty(ids["a1"], "ITEM-001", "").Equal(qty(8)))
	assert.True(t, store.Detail(details[0].ID).Adjusted)
	assert.False(t, store.Detail(details[1].ID).Adjusted)

	// reponer saldo y reintentar: solo la línea pendiente postea
	store.SeedBalance("WH01", ids["a2"], "ITEM-002", "", qty(4))
	res, err = uc.Apply(context.Background(), sessionID, dto.ApplyCountRequest{CreateAdjustments: true}, "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusApplied, res.Status)
	require.Len(t, res.Lines, 1, "la línea ya ajustada no se repite")
	assert.Equal(t, details[1].ID, res.Lines[0].DetailID)

	// un solo ajuste por línea en el libro para ITEM-001
	issues := 0
	for _, m := range store.Movements() {
		if m.Type == entity.MovementTypeIssue && m.ItemCode == "ITEM-001" {
			issues++
		}
	}
	assert.Equal(t, 1, issues)
}

func TestList_FiltraPorEstado(t *testing.T) {
	store, uc, ids := newFixture(t)
	store.SeedBalance("WH01", ids["a1"], "ITEM-001", "", qty(10))
	s1, d1 := createSession(t, uc, ids["a1"])
	createSession(t, uc, ids["a1"])

	require.NoError(t, uc.EnterCounts(context.Background(), s1, dto.EnterCountsRequest{
		Counts: []dto.CountEntry{{DetailID: d1[0].ID, CountedQty: qty(10)}},
	}, "ana"))
	_, err := uc.Apply(context.Background(), s1, dto.ApplyCountRequest{CreateAdjustments: true}, "ana")
	require.NoError(t, err)

	open, err := uc.List(context.Background(), "WH01", entity.CountStatusOpen, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)

	applied, err := uc.List(context.Background(), "WH01", entity.CountStatusApplied, 0)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, s1, applied[0].ID)

	_, err = uc.List(context.Background(), "WH01", "BOGUS", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
