package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/b2b-stock-api/internal/application/alerts"
	"github.com/jhoicas/b2b-stock-api/internal/application/dto"
	"github.com/jhoicas/b2b-stock-api/internal/application/inventory"
	"github.com/jhoicas/b2b-stock-api/internal/application/order"
	"github.com/jhoicas/b2b-stock-api/internal/application/ports"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/b2b-stock-api/internal/interfaces/http"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []ports.Message
}

func (p *recordingPublisher) Publish(_ context.Context, m ports.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, m)
	return nil
}

// memIdempotency store de idempotencia en memoria con la misma semántica que el de Redis.
type memIdempotency struct {
	mu          sync.Mutex
	data        map[string][]byte // nil = en curso
	completeErr error
}

func (m *memIdempotency) Begin(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		m.data[key] = nil
		return nil, true, nil
	}
	return v, false, nil
}

func (m *memIdempotency) Complete(_ context.Context, key string, resp []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	m.data[key] = resp
	return nil
}

func (m *memIdempotency) Abort(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type fakeSlips struct{}

func (fakeSlips) GenerateOrderSlip(context.Context, *entity.Order, map[string]*entity.StockRecord) ([]byte, error) {
	return []byte("%PDF-1.3 test"), nil
}

type testEnv struct {
	app   *fiber.App
	store *memory.Store
	pub   *recordingPublisher
	idem  *memIdempotency
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	idem := &memIdempotency{data: map[string][]byte{}}
	log := logger.Nop()

	notifier := alerts.NewNotifier(store.Stock(), pub, "low-stock", log)
	lifecycle := order.NewLifecycleUseCase(store.Orders(), store, notifier)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		StockUC:     inventory.NewStockUseCase(store.Stock(), store, notifier, log),
		OrderUC:     lifecycle,
		SlipUC:      order.NewSlipUseCase(lifecycle, store.Stock(), fakeSlips{}),
		Idempotency: idem,
		Log:         log,
	})
	return &testEnv{app: app, store: store, pub: pub, idem: idem}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (e *testEnv) seed(t *testing.T, companyID, productID string, qty, threshold int) {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/api/stock/"+companyID, dto.UpsertStockRequest{
		ProductID: productID, Name: "Producto " + productID, QtyAvailable: qty, LowThreshold: threshold,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func orderBody(items ...dto.OrderItemDTO) dto.OrderRequest {
	return dto.OrderRequest{CompanyID: "acme", CompanyName: "Acme SA", Email: "compras@acme.test", Region: "norte", Items: items}
}

func item(pid string, q int) dto.OrderItemDTO { return dto.OrderItemDTO{ProductID: pid, Quantity: q} }

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────────────────────────────────

func TestStock_UpsertYListado(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "B", 5, 0)
	env.seed(t, "acme", "A", 9, 0)

	resp, raw := env.do(t, http.MethodGet, "/api/stock/acme", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.StockListResponse](t, raw)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "A", list.Items[0].ProductID)
	assert.Equal(t, 9, list.Items[0].QtyAvailable)
	assert.Contains(t, string(raw), `"qtyAvailable"`)
}

func TestStock_UpsertInvalido(t *testing.T) {
	env := newTestEnv(t)
	resp, raw := env.do(t, http.MethodPost, "/api/stock/acme", dto.UpsertStockRequest{ProductID: "A", QtyAvailable: -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, raw).Code)
}

func TestStock_Add(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "A", 5, 0)

	resp, raw := env.do(t, http.MethodPost, "/api/stock/acme/A/add", dto.AddStockRequest{Amount: 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.AddStockResponse](t, raw)
	assert.True(t, out.OK)
	assert.Equal(t, 8, out.Stock.QtyAvailable)

	resp, raw = env.do(t, http.MethodPost, "/api/stock/acme/A/add", dto.AddStockRequest{Amount: -9})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, raw).Code)

	resp, _ = env.do(t, http.MethodPost, "/api/stock/acme/A/add", dto.AddStockRequest{Amount: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/stock/acme/NOPE/add", dto.AddStockRequest{Amount: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Orders
// ──────────────────────────────────────────────────────────────────────────────

func TestOrders_CicloCompleto(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "A", 5, 0)
	env.seed(t, "acme", "B", 2, 0)

	resp, raw := env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 3), item("B", 2)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	created := decode[dto.OrderResponse](t, raw)
	assert.NotEmpty(t, created.OrderID)

	// Segundo pedido idéntico: conflicto en A
	resp, raw = env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 3), item("B", 2)))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.Contains(t, errBody.Message, "A")

	// Lectura
	path := "/api/orders/acme/" + created.OrderID
	resp, raw = env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.OrderID, decode[dto.OrderResponse](t, raw).OrderID)

	// Update {A:3,B:2} → {A:1}
	resp, raw = env.do(t, http.MethodPatch, path, orderBody(item("A", 1)))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	upd := decode[dto.OrderUpdatedResponse](t, raw)
	assert.True(t, upd.OK)
	assert.Equal(t, []dto.OrderItemDTO{item("A", 1)}, upd.Items)

	_, raw = env.do(t, http.MethodGet, "/api/stock/acme", nil)
	list := decode[dto.StockListResponse](t, raw)
	assert.Equal(t, 4, list.Items[0].QtyAvailable)
	assert.Equal(t, 2, list.Items[1].QtyAvailable)

	// Listado
	resp, raw = env.do(t, http.MethodGet, "/api/orders/company/acme", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.OrderListResponse](t, raw).Items, 1)

	// PDF
	resp, raw = env.do(t, http.MethodGet, path+"/pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "pedido-"+created.OrderID+".pdf")
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	// Delete
	resp, raw = env.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	del := decode[dto.OrderDeletedResponse](t, raw)
	assert.Equal(t, dto.OrderKey{CompanyID: "acme", OrderID: created.OrderID}, del.Deleted)

	_, raw = env.do(t, http.MethodGet, "/api/stock/acme", nil)
	list = decode[dto.StockListResponse](t, raw)
	assert.Equal(t, 5, list.Items[0].QtyAvailable)

	resp, _ = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrders_ValidacionDeBorde(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "A", 50000, 0)

	bad := orderBody(item("A", 1))
	bad.Email = "sin-arroba"
	resp, _ := env.do(t, http.MethodPost, "/api/orders", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", dto.MaxLineQuantity+1)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{roto"))
	req.Header.Set("Content-Type", "application/json")
	r, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestOrders_AlertaStockBajo(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "A", 5, 2)
	env.pub.msgs = nil

	resp, _ := env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 3)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, env.pub.msgs, 1)
	m := env.pub.msgs[0]
	assert.Equal(t, "low-stock", m.Topic)
	assert.Equal(t, alerts.AlertSubject, m.Subject)
	assert.Equal(t, "acme/A", m.Key)
	assert.Contains(t, string(m.Body), "qtyAvailable: 2")
	assert.Contains(t, string(m.Body), "Reason: Order created ")
}

func TestOrders_IdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "A", 10, 0)

	resp, raw := env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 2)), apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[dto.OrderResponse](t, raw)

	resp, raw = env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 2)), apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(apphttp.HeaderIdempotentReplay))
	assert.Equal(t, first.OrderID, decode[dto.OrderResponse](t, raw).OrderID)

	_, raw = env.do(t, http.MethodGet, "/api/stock/acme", nil)
	assert.Equal(t, 8, decode[dto.StockListResponse](t, raw).Items[0].QtyAvailable, "solo un descuento")
}

func TestOrders_IdempotencyKeyEnCurso(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "A", 10, 0)
	env.idem.data["k-2"] = nil

	resp, raw := env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 2)), apphttp.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decode[dto.ErrorResponse](t, raw).Code)
}

func TestOrders_IdempotencyKeyLiberadaTrasFallo(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "A", 1, 0)

	resp, _ := env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 2)), apphttp.HeaderIdempotencyKey, "k-3")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	_, exists := env.idem.data["k-3"]
	assert.False(t, exists, "un fallo no deja la clave reservada")
}

func TestOrders_IdempotencyCompleteFallidoLiberaClave(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "acme", "A", 10, 0)
	env.idem.completeErr = errors.New("redis: connection refused")

	resp, raw := env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 2)), apphttp.HeaderIdempotencyKey, "k-4")
	require.Equal(t, http.StatusCreated, resp.StatusCode, "el pedido ya está confirmado")
	assert.NotEmpty(t, decode[dto.OrderResponse](t, raw).OrderID)
	_, exists := env.idem.data["k-4"]
	assert.False(t, exists, "la clave no queda en curso")

	// un reintento con la misma clave ya no recibe 409
	env.idem.completeErr = nil
	resp, _ = env.do(t, http.MethodPost, "/api/orders", orderBody(item("A", 2)), apphttp.HeaderIdempotencyKey, "k-4")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
