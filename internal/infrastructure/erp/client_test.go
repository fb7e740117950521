package erp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/wms-api/internal/application/movement"
	"github.com/jhoicas/wms-api/pkg/config"
	"github.com/jhoicas/wms-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func testDoc(ref string) movement.ERPDocument {
	return movement.ERPDocument{
		FromWhs:   "WH01",
		ToWhs:     "WH02",
		Reference: ref,
		Lines: []movement.ERPLine{
			{Item: "ITEM-001", Qty: decimal.NewFromInt(5)},
		},
	}
}

func newTestClient(t *testing.T, baseURL string, retries int) *Client {
	t.Helper()
	return NewClient(config.ERPConfig{
		BaseURL:        baseURL,
		TimeoutSeconds: 5,
		MaxRetries:     retries,
	}, logger.Nop())
}

// serverWith registra /health sano y delega el resto al handler dado.
func serverWith(handler http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", handler)
	return httptest.NewServer(mux)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestInventoryTransfer_OK(t *testing.T) {
	var gotPath, gotKey string
	srv := serverWith(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"docEntry": 4711}`))
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	res, err := c.InventoryTransfer(context.Background(), testDoc("TRF-abc"))
	require.NoError(t, err)
	assert.Equal(t, 4711, res.DocEntry)
	assert.Equal(t, "/Inventory/Transfer", gotPath)
	assert.Equal(t, "TRF-abc", gotKey, "la referencia debe viajar como Idempotency-Key")
}

func TestPost_ReintentaAnte5xx(t *testing.T) {
	var calls atomic.Int32
	srv := serverWith(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"docEntry": 1}`))
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	res, err := c.GoodsReceipt(context.Background(), testDoc("PUT-x"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.DocEntry)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPost_NoReintentaAnte4xx(t *testing.T) {
	var calls atomic.Int32
	srv := serverWith(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"lote desconocido"}`))
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.GoodsIssue(context.Background(), testDoc("ISS-x"))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "un rechazo del ERP no debe reintentarse")

	var extErr *movement.ExternalError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "ERP_REJECTED", extErr.Code)
}

func TestPost_AgotaReintentos(t *testing.T) {
	var calls atomic.Int32
	srv := serverWith(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	_, err := c.GoodsReceipt(context.Background(), testDoc("PUT-y"))
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	var extErr *movement.ExternalError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "ERP_SERVER", extErr.Code)
}

func TestEnsureReady_PingUnaVezYTrasShutdown(t *testing.T) {
	var healthCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"docEntry": 1}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	_, err := c.GoodsReceipt(context.Background(), testDoc("a"))
	require.NoError(t, err)
	_, err = c.GoodsReceipt(context.Background(), testDoc("b"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), healthCalls.Load(), "health se verifica una sola vez")

	c.Shutdown()
	_, err = c.GoodsReceipt(context.Background(), testDoc("c"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), healthCalls.Load(), "tras Shutdown se vuelve a verificar")
}

func TestEnsureReady_ServicioCaido(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	_, err := c.GoodsReceipt(context.Background(), testDoc("x"))
	require.Error(t, err)

	var extErr *movement.ExternalError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "ERP_UNAVAILABLE", extErr.Code)
}
