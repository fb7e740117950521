package pattern_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/pattern"
)

// ──────────────────────────────────────────────────────────────────────────────
// La expansión de patrones es el orden canónico que toda implementación debe
// reproducir: producto cartesiano en orden lexicográfico anidado según el orden
// declarado de los tokens, con el ancho zero-padded preservado.
// ──────────────────────────────────────────────────────────────────────────────

func TestExpand_VectorCanonico(t *testing.T) {
	p, err := pattern.Parse("SEC{01-02}-BIN{01-02}")
	require.NoError(t, err)

	codes, err := p.Expand(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"SEC01-BIN01",
		"SEC01-BIN02",
		"SEC02-BIN01",
		"SEC02-BIN02",
	}, codes, "la expansión debe ser el producto cartesiano en orden anidado")
}

func TestExpand_PreservaAnchoDelPadding(t *testing.T) {
	p, err := pattern.Parse("RK{008-010}")
	require.NoError(t, err)

	codes, err := p.Expand(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"RK008", "RK009", "RK010"}, codes)
}

func TestExpand_SegmentoLiteral(t *testing.T) {
	// Los segmentos sin rango se repiten tal cual en cada combinación.
	p, err := pattern.Parse("RECV-DOCK{1-2}")
	require.NoError(t, err)

	codes, err := p.Expand(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"RECV-DOCK1", "RECV-DOCK2"}, codes)
}

func TestCount_ProductoDeCardinalidades(t *testing.T) {
	p, err := pattern.Parse("SEC{01-03}-AIS{01-10}-RK{01-05}-LV{01-04}-BIN{01-30}")
	require.NoError(t, err)
	assert.Equal(t, int64(3*10*5*4*30), p.Count())
}

func TestExpand_RechazaPatronSobredimensionado(t *testing.T) {
	p, err := pattern.Parse("SEC{01-03}-AIS{01-10}-RK{01-05}-LV{01-04}-BIN{01-30}")
	require.NoError(t, err)

	// 18000 combinaciones contra un tope de 10000: debe fallar antes de generar.
	codes, err := p.Expand(context.Background(), 10000)
	assert.ErrorIs(t, err, domain.ErrPatternTooLarge)
	assert.Nil(t, codes)
}

func TestExpand_DesbordeDelProductoNoEvadeElTope(t *testing.T) {
	// 65536^4 = 2^64 da la vuelta completa del int64 y cae en 0: el conteo
	// debe saturar en vez de envolver, y el tope rechazar de inmediato.
	p, err := pattern.Parse("A{00001-65536}-B{00001-65536}-C{00001-65536}-D{00001-65536}")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<63-1), p.Count())

	codes, err := p.Expand(context.Background(), 10000)
	assert.ErrorIs(t, err, domain.ErrPatternTooLarge)
	assert.Nil(t, codes)
}

func TestExpand_CancelacionDelContexto(t *testing.T) {
	p, err := pattern.Parse("A{01-99}-B{01-99}")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Expand(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_ErroresDeValidacion(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
	}{
		{"vacío", ""},
		{"solo espacios", "   "},
		{"rango sin guion", "SEC{0103}"},
		{"límite no numérico", "SEC{aa-03}"},
		{"límite superior no numérico", "SEC{01-xx}"},
		{"lo mayor que hi", "SEC{05-01}"},
		{"anchos distintos", "SEC{1-010}"},
		{"llave sin cerrar", "SEC{01-03"},
		{"límite vacío", "SEC{-03}"},
		{"token vacío entre guiones", "SEC{01-02}--BIN{01-02}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pattern.Parse(tc.pattern)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput,
				"todo patrón malformado debe reportarse como error de validación")
		})
	}
}

func TestParse_ErrorEstructurado(t *testing.T) {
	_, err := pattern.Parse("SEC{01-02}-RK{05-01}")
	require.Error(t, err)

	var verr *pattern.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Pos)
	assert.Equal(t, "RK{05-01}", verr.Segment)
}

func TestExpand_DeterministaEntreCorreridas(t *testing.T) {
	p, err := pattern.Parse("SEC{01-02}-AIS{01-03}")
	require.NoError(t, err)

	first, err := p.Expand(context.Background(), 0)
	require.NoError(t, err)
	second, err := p.Expand(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, first, second, "el mismo patrón siempre produce la misma secuencia")
}

func TestHierarchy_DescomposicionPosicional(t *testing.T) {
	section, aisle, rack, level, bin := pattern.Hierarchy("SEC01-AIS02-RK03-LV04-BIN05")
	assert.Equal(t, "SEC01", section)
	assert.Equal(t, "AIS02", aisle)
	assert.Equal(t, "RK03", rack)
	assert.Equal(t, "LV04", level)
	assert.Equal(t, "BIN05", bin)

	// Códigos cortos dejan vacíos los niveles faltantes.
	section, aisle, rack, level, bin = pattern.Hierarchy("RECV-DOCK1")
	assert.Equal(t, "RECV", section)
	assert.Equal(t, "DOCK1", aisle)
	assert.Empty(t, rack)
	assert.Empty(t, level)
	assert.Empty(t, bin)
}
