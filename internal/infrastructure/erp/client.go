package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jhoicas/wms-api/internal/application/movement"
	"github.com/jhoicas/wms-api/pkg/config"
	"github.com/jhoicas/wms-api/pkg/logger"
)

var _ movement.ERPBridge = (*Client)(nil)

// Rutas del servicio puente (SAP DI service).
const (
	pathGoodsReceipt = "/Inventory/GoodReceipt"
	pathGoodsIssue   = "/Inventory/GoodIssue"
	pathTransfer     = "/Inventory/Transfer"
	pathHealth       = "/health"
)

// Client implementa ERPBridge contra el servicio puente HTTP del ERP.
// La conexión se verifica perezosamente bajo mutex: el primer posteo hace ping
// a /health una sola vez; tras Shutdown se vuelve a verificar. El cliente se
// inyecta como colaborador, nunca como estado global.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	log        *logger.Logger

	mu    sync.Mutex
	ready bool
}

// NewClient construye el cliente del puente ERP con la configuración de la app.
func NewClient(cfg config.ERPConfig, log *logger.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: retries,
		log:        log,
	}
}

// GoodsReceipt postea una entrada de mercancía en el ERP.
func (c *Client) GoodsReceipt(ctx context.Context, doc movement.ERPDocument) (*movement.ERPPostResult, error) {
	return c.post(ctx, pathGoodsReceipt, doc)
}

// GoodsIssue postea una salida de mercancía en el ERP.
func (c *Client) GoodsIssue(ctx context.Context, doc movement.ERPDocument) (*movement.ERPPostResult, error) {
	return c.post(ctx, pathGoodsIssue, doc)
}

// InventoryTransfer postea un traslado entre bodegas en el ERP.
func (c *Client) InventoryTransfer(ctx context.Context, doc movement.ERPDocument) (*movement.ERPPostResult, error) {
	return c.post(ctx, pathTransfer, doc)
}

// Shutdown descarta la conexión verificada; el siguiente posteo vuelve a hacer ping.
func (c *Client) Shutdown() {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()
}

// ensureReady verifica el servicio puente una sola vez bajo mutex.
func (c *Client) ensureReady(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathHealth, nil)
	if err != nil {
		return fmt.Errorf("erp health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &movement.ExternalError{Code: "ERP_UNAVAILABLE", Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &movement.ExternalError{
			Code:    "ERP_UNAVAILABLE",
			Message: fmt.Sprintf("health respondió %d", resp.StatusCode),
		}
	}
	c.ready = true
	return nil
}

// postResponse es el body esperado del servicio puente.
type postResponse struct {
	DocEntry int    `json:"docEntry"`
	Error    string `json:"error,omitempty"`
}

// post envía el documento con la referencia como Idempotency-Key y reintenta
// con backoff lineal ante errores de red o respuestas 5xx.
func (c *Client) post(ctx context.Context, path string, doc movement.ERPDocument) (*movement.ERPPostResult, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal erp document: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * time.Second):
			}
		}
		result, retry, err := c.doPost(ctx, path, doc.Reference, body)
		if err == nil {
			return result, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		c.log.Warn().Err(err).
			Str("path", path).
			Str("reference", doc.Reference).
			Int("attempt", attempt).
			Msg("reintentando posteo al ERP")
	}
	return nil, lastErr
}

// doPost ejecuta un intento; retry indica si el fallo es transitorio (red o 5xx).
func (c *Client) doPost(ctx context.Context, path, reference string, body []byte) (*movement.ERPPostResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("erp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", reference)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, &movement.ExternalError{Code: "ERP_NETWORK", Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, &movement.ExternalError{Code: "ERP_NETWORK", Message: err.Error()}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, true, &movement.ExternalError{
			Code:    "ERP_SERVER",
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(raw, 200)),
		}
	case resp.StatusCode >= 400:
		return nil, false, &movement.ExternalError{
			Code:    "ERP_REJECTED",
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(raw, 200)),
		}
	}

	var pr postResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, false, &movement.ExternalError{Code: "ERP_BAD_RESPONSE", Message: err.Error()}
	}
	if pr.Error != "" {
		return nil, false, &movement.ExternalError{Code: "ERP_REJECTED", Message: pr.Error}
	}
	return &movement.ERPPostResult{DocEntry: pr.DocEntry}, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
