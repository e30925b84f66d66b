// Package memory implementa los puertos de almacenamiento en memoria del proceso.
// Mismo contrato que el adaptador PostgreSQL; útil para desarrollo local y tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/b2b-stock-api/internal/domain"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
)

var (
	_ repository.TransactWriter  = (*Store)(nil)
	_ repository.StockRepository = (*StockRepo)(nil)
	_ repository.OrderRepository = (*OrderRepo)(nil)
)

type key struct {
	companyID string
	id        string
}

// Store guarda stock y pedidos. El mutex serializa las unidades atómicas.
type Store struct {
	mu     sync.RWMutex
	stock  map[key]entity.StockRecord
	orders map[key]entity.Order
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		stock:  make(map[key]entity.StockRecord),
		orders: make(map[key]entity.Order),
	}
}

// Stock devuelve el repositorio de stock respaldado por este almacén.
func (s *Store) Stock() *StockRepo { return &StockRepo{s: s} }

// Orders devuelve el repositorio de pedidos respaldado por este almacén.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s: s} }

// TransactWrite evalúa todas las condiciones sobre un estado provisional y solo si todas
// se cumplen aplica las escrituras.
func (s *Store) TransactWrite(ctx context.Context, ops []repository.WriteOp) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stockStage := make(map[key]entity.StockRecord)
	orderStage := make(map[key]*entity.Order) // nil = eliminado

	lookupStock := func(k key) (entity.StockRecord, bool) {
		if r, ok := stockStage[k]; ok {
			return r, true
		}
		r, ok := s.stock[k]
		return r, ok
	}
	lookupOrder := func(k key) (entity.Order, bool) {
		if o, ok := orderStage[k]; ok {
			if o == nil {
				return entity.Order{}, false
			}
			return *o, true
		}
		o, ok := s.orders[k]
		return o, ok
	}

	for _, op := range ops {
		switch op := op.(type) {
		case repository.AdjustStock:
			k := key{op.CompanyID, op.ProductID}
			rec, ok := lookupStock(k)
			if !ok || rec.QtyAvailable < op.MinAvailable {
				return repository.NewConditionFailed(op)
			}
			rec.QtyAvailable += op.Delta
			rec.UpdatedAt = op.At
			stockStage[k] = rec
		case repository.PutOrder:
			k := key{op.Order.CompanyID, op.Order.OrderID}
			if _, ok := lookupOrder(k); ok {
				return repository.NewConditionFailed(op)
			}
			o := cloneOrder(*op.Order)
			orderStage[k] = &o
		case repository.ReplaceOrderItems:
			k := key{op.CompanyID, op.OrderID}
			o, ok := lookupOrder(k)
			if !ok || !versionMatches(o, op.ExpectedVersion) {
				return repository.NewConditionFailed(op)
			}
			o.Items = cloneItems(op.Items)
			o.UpdatedAt = op.At
			o.Version++
			orderStage[k] = &o
		case repository.DeleteOrder:
			k := key{op.CompanyID, op.OrderID}
			if o, ok := lookupOrder(k); !ok || !versionMatches(o, op.ExpectedVersion) {
				return repository.NewConditionFailed(op)
			}
			orderStage[k] = nil
		default:
			return fmt.Errorf("operación no soportada: %T", op)
		}
	}

	for k, rec := range stockStage {
		s.stock[k] = rec
	}
	for k, o := range orderStage {
		if o == nil {
			delete(s.orders, k)
			continue
		}
		s.orders[k] = *o
	}
	return nil
}

func versionMatches(o entity.Order, expected int64) bool {
	return expected == 0 || o.Version == expected
}

// StockRepo implementación en memoria de StockRepository.
type StockRepo struct {
	s *Store
}

func (r *StockRepo) Get(_ context.Context, companyID, productID string) (*entity.StockRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.stock[key{companyID, productID}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *StockRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.StockRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.StockRecord, 0)
	for k, rec := range r.s.stock {
		if k.companyID == companyID {
			list = append(list, &rec)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

func (r *StockRepo) Upsert(_ context.Context, stock *entity.StockRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stock[key{stock.CompanyID, stock.ProductID}] = *stock
	return nil
}

// OrderRepo implementación en memoria de OrderRepository.
type OrderRepo struct {
	s *Store
}

func (r *OrderRepo) Get(_ context.Context, companyID, orderID string) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[key{companyID, orderID}]
	if !ok {
		return nil, nil
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *OrderRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Order, 0)
	for k, o := range r.s.orders {
		if k.companyID == companyID {
			o = cloneOrder(o)
			list = append(list, &o)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].OrderID > list[j].OrderID
	})
	return list, nil
}

func cloneOrder(o entity.Order) entity.Order {
	o.Items = cloneItems(o.Items)
	return o
}

func cloneItems(items []entity.OrderItem) []entity.OrderItem {
	if items == nil {
		return nil
	}
	out := make([]entity.OrderItem, len(items))
	copy(out, items)
	return out
}
