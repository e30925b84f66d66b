package repository

import (
	"context"

	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
)

// StockRepository define el puerto de lectura y reemplazo de registros de stock por (empresa, producto).
// Los ajustes relativos de cantidad pasan siempre por TransactWriter.
type StockRepository interface {
	// Get devuelve nil, nil si el registro no existe.
	Get(ctx context.Context, companyID, productID string) (*entity.StockRecord, error)
	// ListByCompany devuelve el stock de la empresa ordenado por ProductID ascendente.
	ListByCompany(ctx context.Context, companyID string) ([]*entity.StockRecord, error)
	// Upsert reemplaza el registro completo (o lo crea).
	Upsert(ctx context.Context, stock *entity.StockRecord) error
}
