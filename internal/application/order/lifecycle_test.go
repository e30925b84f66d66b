package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/b2b-stock-api/internal/application/order"
	"github.com/jhoicas/b2b-stock-api/internal/domain"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
	"github.com/jhoicas/b2b-stock-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const company = "acme"

var t0 = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type notifyCall struct {
	companyID  string
	productIDs []string
	reason     string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *recordingNotifier) NotifyIfLow(_ context.Context, companyID string, productIDs []string, reason string) []entity.LowStockAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{companyID: companyID, productIDs: productIDs, reason: reason})
	return nil
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	uc       *order.LifecycleUseCase
}

func newFixture(t *testing.T, stock map[string]int) *fixture {
	t.Helper()
	store := memory.NewStore()
	for pid, q := range stock {
		require.NoError(t, store.Stock().Upsert(context.Background(),
			&entity.StockRecord{CompanyID: company, ProductID: pid, QtyAvailable: q}))
	}
	n := &recordingNotifier{}
	uc := order.NewLifecycleUseCase(store.Orders(), store, n)
	uc.SetClock(func() time.Time { return t0 })
	return &fixture{store: store, notifier: n, uc: uc}
}

func (f *fixture) qty(t *testing.T, pid string) int {
	t.Helper()
	rec, err := f.store.Stock().Get(context.Background(), company, pid)
	require.NoError(t, err)
	require.NotNil(t, rec, "stock %s debe existir", pid)
	return rec.QtyAvailable
}

func items(pairs ...any) []entity.OrderItem {
	out := make([]entity.OrderItem, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, entity.OrderItem{ProductID: pairs[i].(string), Quantity: pairs[i+1].(int)})
	}
	return out
}

func createInput(lines []entity.OrderItem) order.CreateInput {
	return order.CreateInput{CompanyID: company, CompanyName: "Acme SA", Email: "compras@acme.test", Region: "norte", Items: lines}
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_DescuentaStockYAgotaProducto(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 5, "B": 2})
	ctx := context.Background()

	o, err := f.uc.Create(ctx, createInput(items("A", 3, "B", 2)))
	require.NoError(t, err)

	assert.NotEmpty(t, o.OrderID)
	assert.Equal(t, items("A", 3, "B", 2), o.Items)
	assert.Equal(t, t0, o.CreatedAt)
	assert.Equal(t, 2, f.qty(t, "A"))
	assert.Equal(t, 0, f.qty(t, "B"))

	stored, err := f.uc.Get(ctx, company, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "Acme SA", stored.CompanyName)
	assert.Equal(t, "compras@acme.test", stored.Email)

	// Segundo pedido idéntico: A necesita 3 y quedan 2
	_, err = f.uc.Create(ctx, createInput(items("A", 3, "B", 2)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	var cf *repository.ConditionFailedError
	require.True(t, errors.As(err, &cf))
	assert.Equal(t, "A", cf.Op.(repository.AdjustStock).ProductID)
}

func TestCreate_ConflictoNoModificaNingunProducto(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10, "B": 1})

	_, err := f.uc.Create(context.Background(), createInput(items("A", 4, "B", 2)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// A habría alcanzado por sí solo; B no. Ninguno cambia.
	assert.Equal(t, 10, f.qty(t, "A"))
	assert.Equal(t, 1, f.qty(t, "B"))
	list, err := f.uc.List(context.Background(), company)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.notifier.calls, "sin commit no hay notificación")
}

func TestCreate_FusionaDuplicados(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10})

	o, err := f.uc.Create(context.Background(), createInput(items("A", 2, " A ", 3)))
	require.NoError(t, err)
	assert.Equal(t, items("A", 5), o.Items)
	assert.Equal(t, 5, f.qty(t, "A"))
}

func TestCreate_ProductoSinStockInicializado(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10})

	_, err := f.uc.Create(context.Background(), createInput(items("A", 1, "Z", 1)))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 10, f.qty(t, "A"))
}

func TestCreate_EntradaInvalida(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10})
	tests := map[string]order.CreateInput{
		"sin items":         createInput(nil),
		"productId vacío":   createInput(items("  ", 1)),
		"cantidad cero":     createInput(items("A", 0)),
		"cantidad negativa": createInput(items("A", -3)),
		"sin empresa":       {CompanyID: " ", Items: items("A", 1)},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Create(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 10, f.qty(t, "A"))
}

func TestCreate_IDDuplicadoEsConflict(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10})
	f.uc.SetIDGenerator(func() string { return "fijo" })

	_, err := f.uc.Create(context.Background(), createInput(items("A", 1)))
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), createInput(items("A", 1)))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 9, f.qty(t, "A"), "el segundo intento no descuenta stock")
}

func TestCreate_NotificaTodosLosProductos(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10, "B": 10})
	f.uc.SetIDGenerator(func() string { return "o-1" })

	_, err := f.uc.Create(context.Background(), createInput(items("B", 1, "A", 1)))
	require.NoError(t, err)

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, notifyCall{companyID: company, productIDs: []string{"B", "A"}, reason: "Order created o-1"}, f.notifier.calls[0])
}

// ──────────────────────────────────────────────────────────────────────────────
// Update
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_DevuelveStockAlReducir(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 5})
	ctx := context.Background()
	o, err := f.uc.Create(ctx, createInput(items("A", 3)))
	require.NoError(t, err)
	require.Equal(t, 2, f.qty(t, "A"))

	later := t0.Add(time.Hour)
	f.uc.SetClock(func() time.Time { return later })
	updated, err := f.uc.Update(ctx, company, o.OrderID, items("A", 1))
	require.NoError(t, err)

	assert.Equal(t, 4, f.qty(t, "A"))
	assert.Equal(t, items("A", 1), updated.Items)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, t0, updated.CreatedAt)

	stored, err := f.uc.Get(ctx, company, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, items("A", 1), stored.Items)
}

func TestUpdate_SoloTocaProductosConDelta(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10, "B": 10, "C": 10})
	ctx := context.Background()
	o, err := f.uc.Create(ctx, createInput(items("A", 2, "B", 2)))
	require.NoError(t, err)
	f.notifier.calls = nil

	_, err = f.uc.Update(ctx, company, o.OrderID, items("A", 2, "C", 4))
	require.NoError(t, err)

	assert.Equal(t, 8, f.qty(t, "A"))
	assert.Equal(t, 10, f.qty(t, "B"))
	assert.Equal(t, 6, f.qty(t, "C"))

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, []string{"B", "C"}, f.notifier.calls[0].productIDs)
	assert.Equal(t, "Order updated "+o.OrderID, f.notifier.calls[0].reason)

	// A no cambia: su fila no se toca
	rec, _ := f.store.Stock().Get(ctx, company, "A")
	assert.Equal(t, t0, rec.UpdatedAt)
}

func TestUpdate_StockInsuficienteEsConflict(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 4, "B": 5})
	ctx := context.Background()
	o, err := f.uc.Create(ctx, createInput(items("A", 3, "B", 1)))
	require.NoError(t, err)

	// B devuelve 1, A pide 2 más pero solo queda 1
	_, err = f.uc.Update(ctx, company, o.OrderID, items("A", 5))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 1, f.qty(t, "A"))
	assert.Equal(t, 4, f.qty(t, "B"))
	stored, _ := f.uc.Get(ctx, company, o.OrderID)
	assert.Equal(t, items("A", 3, "B", 1), stored.Items)
}

func TestUpdate_PedidoInexistente(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 4})
	_, err := f.uc.Update(context.Background(), company, "nope", items("A", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_EntradaInvalidaAntesDeLeer(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 4})
	_, err := f.uc.Update(context.Background(), company, "nope", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_DevuelveReservaYEliminaPedido(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 5, "B": 2})
	ctx := context.Background()
	o, err := f.uc.Create(ctx, createInput(items("A", 3, "B", 2)))
	require.NoError(t, err)
	f.notifier.calls = nil

	require.NoError(t, f.uc.Delete(ctx, company, o.OrderID))

	assert.Equal(t, 5, f.qty(t, "A"))
	assert.Equal(t, 2, f.qty(t, "B"))
	_, err = f.uc.Get(ctx, company, o.OrderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.notifier.calls)

	// Segundo borrado
	err = f.uc.Delete(ctx, company, o.OrderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 5, f.qty(t, "A"))
}

// racingOrders devuelve la lectura original pero, la primera vez, deja que otra
// escritura sobre el mismo pedido confirme antes de que el llamador escriba.
type racingOrders struct {
	repository.OrderRepository
	once  sync.Once
	race  func()
}

func (r *racingOrders) Get(ctx context.Context, companyID, orderID string) (*entity.Order, error) {
	o, err := r.OrderRepository.Get(ctx, companyID, orderID)
	r.once.Do(r.race)
	return o, err
}

func TestDelete_CambioConcurrenteEsConflict(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10})
	ctx := context.Background()
	o, err := f.uc.Create(ctx, createInput(items("A", 3)))
	require.NoError(t, err)

	orders := &racingOrders{OrderRepository: f.store.Orders(), race: func() {
		_, err := f.uc.Update(ctx, company, o.OrderID, items("A", 5))
		require.NoError(t, err)
	}}
	racing := order.NewLifecycleUseCase(orders, f.store, f.notifier)

	err = racing.Delete(ctx, company, o.OrderID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 5, f.qty(t, "A"))
	stored, err := f.uc.Get(ctx, company, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, items("A", 5), stored.Items)
	assert.Equal(t, int64(2), stored.Version)

	// reintento sobre la versión vigente
	require.NoError(t, racing.Delete(ctx, company, o.OrderID))
	assert.Equal(t, 10, f.qty(t, "A"))
}

func TestUpdate_CambioConcurrenteEsConflict(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10})
	ctx := context.Background()
	o, err := f.uc.Create(ctx, createInput(items("A", 3)))
	require.NoError(t, err)

	orders := &racingOrders{OrderRepository: f.store.Orders(), race: func() {
		_, err := f.uc.Update(ctx, company, o.OrderID, items("A", 5))
		require.NoError(t, err)
	}}
	racing := order.NewLifecycleUseCase(orders, f.store, f.notifier)

	_, err = racing.Update(ctx, company, o.OrderID, items("A", 1))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, f.qty(t, "A"))

	updated, err := racing.Update(ctx, company, o.OrderID, items("A", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Version)
	assert.Equal(t, 9, f.qty(t, "A"))
}

func TestGetUpdateDelete_ValidanIdentificadores(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 4})
	ctx := context.Background()
	o, err := f.uc.Create(ctx, createInput(items("A", 1)))
	require.NoError(t, err)

	for _, ids := range [][2]string{{"", o.OrderID}, {"  ", o.OrderID}, {company, ""}, {company, " \t"}} {
		_, err := f.uc.Get(ctx, ids[0], ids[1])
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "get %q", ids)
		_, err = f.uc.Update(ctx, ids[0], ids[1], items("A", 2))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "update %q", ids)
		assert.ErrorIs(t, f.uc.Delete(ctx, ids[0], ids[1]), domain.ErrInvalidInput, "delete %q", ids)
	}
	assert.Equal(t, 3, f.qty(t, "A"))

	// los identificadores se recortan
	updated, err := f.uc.Update(ctx, " "+company+" ", " "+o.OrderID+" ", items("A", 2))
	require.NoError(t, err)
	assert.Equal(t, o.OrderID, updated.OrderID)
	assert.Equal(t, 2, f.qty(t, "A"))
	require.NoError(t, f.uc.Delete(ctx, company+" ", " "+o.OrderID))
	assert.Equal(t, 4, f.qty(t, "A"))
}

// Invariante de relación: tras cualquier secuencia, stock inicial = disponible + reservas activas.
func TestCicloDeVida_ConservaInventario(t *testing.T) {
	initial := map[string]int{"A": 20, "B": 15, "C": 7}
	f := newFixture(t, initial)
	ctx := context.Background()

	o1, err := f.uc.Create(ctx, createInput(items("A", 5, "B", 3)))
	require.NoError(t, err)
	o2, err := f.uc.Create(ctx, createInput(items("B", 4, "C", 7)))
	require.NoError(t, err)
	_, err = f.uc.Update(ctx, company, o1.OrderID, items("A", 1, "C", 1))
	assert.ErrorIs(t, err, domain.ErrConflict, "C está agotado por o2")
	_, err = f.uc.Update(ctx, company, o2.OrderID, items("B", 10, "C", 2))
	require.NoError(t, err)
	_, err = f.uc.Update(ctx, company, o1.OrderID, items("A", 1, "C", 5))
	require.NoError(t, err)
	require.NoError(t, f.uc.Delete(ctx, company, o2.OrderID))

	orders, err := f.uc.List(ctx, company)
	require.NoError(t, err)
	reserved := map[string]int{}
	for _, o := range orders {
		for pid, q := range o.Reservation() {
			reserved[pid] += q
		}
	}
	for pid, q := range initial {
		got := f.qty(t, pid)
		assert.GreaterOrEqual(t, got, 0)
		assert.Equal(t, q, got+reserved[pid], "producto %s", pid)
	}
}

// Dos pedidos concurrentes por el último stock: exactamente uno gana y el otro es Conflict.
func TestCreate_ConcurrenteSobreStockEscaso(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 3})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Create(ctx, createInput(items("A", 2)))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.qty(t, "A"))
}
