package order

import (
	"context"

	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
)

// SlipGenerator genera el PDF del comprobante de pedido.
// stock trae el registro actual de cada producto del pedido (puede faltar alguno).
type SlipGenerator interface {
	GenerateOrderSlip(ctx context.Context, order *entity.Order, stock map[string]*entity.StockRecord) ([]byte, error)
}

// SlipUseCase arma el comprobante PDF de un pedido con los nombres actuales de los productos.
type SlipUseCase struct {
	lifecycle *LifecycleUseCase
	stock     repository.StockRepository
	generator SlipGenerator
}

// NewSlipUseCase construye el caso de uso.
func NewSlipUseCase(lifecycle *LifecycleUseCase, stock repository.StockRepository, generator SlipGenerator) *SlipUseCase {
	return &SlipUseCase{lifecycle: lifecycle, stock: stock, generator: generator}
}

// Download devuelve (pdf, nombre de archivo). ErrNotFound si el pedido no existe.
func (uc *SlipUseCase) Download(ctx context.Context, companyID, orderID string) ([]byte, string, error) {
	o, err := uc.lifecycle.Get(ctx, companyID, orderID)
	if err != nil {
		return nil, "", err
	}
	stock := make(map[string]*entity.StockRecord, len(o.Items))
	for _, it := range o.Items {
		rec, err := uc.stock.Get(ctx, o.CompanyID, it.ProductID)
		if err != nil {
			return nil, "", err
		}
		if rec != nil {
			stock[it.ProductID] = rec
		}
	}
	pdf, err := uc.generator.GenerateOrderSlip(ctx, o, stock)
	if err != nil {
		return nil, "", err
	}
	return pdf, "pedido-" + o.OrderID + ".pdf", nil
}
