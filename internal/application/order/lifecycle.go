// Package order orquesta el ciclo de vida de un pedido (crear, actualizar, eliminar)
// convirtiendo cada mutación en una única unidad atómica de ajustes de inventario.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/b2b-stock-api/internal/domain"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/inventory"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
)

// LowStockNotifier evalúa stock bajo después del commit (best-effort).
type LowStockNotifier interface {
	NotifyIfLow(ctx context.Context, companyID string, productIDs []string, reason string) []entity.LowStockAlert
}

// CreateInput datos para crear un pedido.
type CreateInput struct {
	CompanyID   string
	CompanyName string
	Email       string
	Region      string
	Items       []entity.OrderItem
}

// LifecycleUseCase casos de uso del pedido: absent → active → active' → absent.
type LifecycleUseCase struct {
	orders   repository.OrderRepository
	tx       repository.TransactWriter
	notifier LowStockNotifier
	now      func() time.Time
	newID    func() string
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(
	orders repository.OrderRepository,
	tx repository.TransactWriter,
	notifier LowStockNotifier,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		orders:   orders,
		tx:       tx,
		notifier: notifier,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Create fusiona las líneas, descuenta el stock de cada producto y crea el pedido en una sola
// unidad atómica. Si cualquier producto no alcanza, falla con Conflict y nada cambia.
func (uc *LifecycleUseCase) Create(ctx context.Context, in CreateInput) (*entity.Order, error) {
	companyID := strings.TrimSpace(in.CompanyID)
	if companyID == "" {
		return nil, domain.InvalidInput("companyId es requerido")
	}
	merged, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	order := &entity.Order{
		CompanyID:   companyID,
		OrderID:     uc.newID(),
		CompanyName: in.CompanyName,
		Email:       in.Email,
		Region:      in.Region,
		Items:       merged,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if err := uc.tx.TransactWrite(ctx, inventory.BuildCreate(order, now)); err != nil {
		return nil, err
	}

	uc.notifier.NotifyIfLow(ctx, companyID, productIDs(merged), "Order created "+order.OrderID)
	return order, nil
}

// Update reemplaza la lista de ítems y ajusta el stock solo por la diferencia neta por producto.
// La escritura exige la versión leída: si otro cambio del mismo pedido confirmó antes,
// falla con Conflict y nada cambia.
func (uc *LifecycleUseCase) Update(ctx context.Context, companyID, orderID string, items []entity.OrderItem) (*entity.Order, error) {
	merged, err := mergeLines(items)
	if err != nil {
		return nil, err
	}
	current, err := uc.Get(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}

	delta := inventory.ComputeDelta(current.Reservation(), inventory.Quantities(merged))
	now := uc.now().UTC()
	if err := uc.tx.TransactWrite(ctx, inventory.BuildUpdate(current, delta, merged, now)); err != nil {
		return nil, err
	}

	uc.notifier.NotifyIfLow(ctx, current.CompanyID, inventory.SortedKeys(delta), "Order updated "+current.OrderID)
	current.Items = merged
	current.UpdatedAt = now
	current.Version++
	return current, nil
}

// Delete devuelve al stock toda la reserva del pedido y lo elimina, con la misma
// precondición de versión que Update. Solo incrementa stock, así que no evalúa alertas.
func (uc *LifecycleUseCase) Delete(ctx context.Context, companyID, orderID string) error {
	current, err := uc.Get(ctx, companyID, orderID)
	if err != nil {
		return err
	}
	return uc.tx.TransactWrite(ctx, inventory.BuildDelete(current, uc.now().UTC()))
}

// Get obtiene un pedido; ErrNotFound si no existe.
func (uc *LifecycleUseCase) Get(ctx context.Context, companyID, orderID string) (*entity.Order, error) {
	companyID, orderID = strings.TrimSpace(companyID), strings.TrimSpace(orderID)
	if companyID == "" {
		return nil, domain.InvalidInput("companyId es requerido")
	}
	if orderID == "" {
		return nil, domain.InvalidInput("orderId es requerido")
	}
	o, err := uc.orders.Get(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("pedido %s: %w", orderID, domain.ErrNotFound)
	}
	return o, nil
}

// List lista los pedidos de la empresa, más recientes primero.
func (uc *LifecycleUseCase) List(ctx context.Context, companyID string) ([]*entity.Order, error) {
	return uc.orders.ListByCompany(ctx, strings.TrimSpace(companyID))
}

func mergeLines(items []entity.OrderItem) ([]entity.OrderItem, error) {
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, domain.InvalidInput("quantity debe ser positiva en la línea %d", i+1)
		}
	}
	return inventory.MergeItems(items)
}

func productIDs(items []entity.OrderItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
