package repository

import (
	"context"

	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
)

// OrderRepository define el puerto de lectura de pedidos (DIP).
type OrderRepository interface {
	// Get devuelve nil, nil si el pedido no existe.
	Get(ctx context.Context, companyID, orderID string) (*entity.Order, error)
	// ListByCompany devuelve los pedidos de la empresa, más recientes primero.
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Order, error)
}
