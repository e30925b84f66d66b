// Package inventory expone los casos de uso de registros de stock por empresa:
// consulta, alta/reemplazo y ajuste relativo.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/b2b-stock-api/internal/domain"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/inventory"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// LowStockNotifier evalúa stock bajo después de cada escritura confirmada.
type LowStockNotifier interface {
	NotifyIfLow(ctx context.Context, companyID string, productIDs []string, reason string) []entity.LowStockAlert
}

// UpsertInput datos para crear o reemplazar un registro de stock.
type UpsertInput struct {
	ProductID    string
	Name         string
	QtyAvailable int
	LowThreshold int
}

// StockUseCase casos de uso de StockRecord.
type StockUseCase struct {
	stock    repository.StockRepository
	tx       repository.TransactWriter
	notifier LowStockNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewStockUseCase construye el caso de uso de stock.
func NewStockUseCase(stock repository.StockRepository, tx repository.TransactWriter, notifier LowStockNotifier, log *logger.Logger) *StockUseCase {
	return &StockUseCase{stock: stock, tx: tx, notifier: notifier, log: log.Component("stock"), now: time.Now}
}

// List devuelve los registros de la empresa ordenados por productId.
func (uc *StockUseCase) List(ctx context.Context, companyID string) ([]*entity.StockRecord, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, domain.InvalidInput("companyId es requerido")
	}
	return uc.stock.ListByCompany(ctx, companyID)
}

// Upsert crea o reemplaza por completo el registro (companyId, productId).
func (uc *StockUseCase) Upsert(ctx context.Context, companyID string, in UpsertInput) (*entity.StockRecord, error) {
	companyID = strings.TrimSpace(companyID)
	productID := strings.TrimSpace(in.ProductID)
	switch {
	case companyID == "":
		return nil, domain.InvalidInput("companyId es requerido")
	case productID == "":
		return nil, domain.InvalidInput("productId es requerido")
	case in.QtyAvailable < 0:
		return nil, domain.InvalidInput("qtyAvailable no puede ser negativo")
	case in.LowThreshold < 0:
		return nil, domain.InvalidInput("lowThreshold no puede ser negativo")
	}

	rec := &entity.StockRecord{
		CompanyID:    companyID,
		ProductID:    productID,
		Name:         strings.TrimSpace(in.Name),
		QtyAvailable: in.QtyAvailable,
		LowThreshold: in.LowThreshold,
		UpdatedAt:    uc.now().UTC(),
	}
	if err := uc.stock.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	uc.notifier.NotifyIfLow(ctx, companyID, []string{productID}, "Stock upsert")
	return rec, nil
}

// Add suma amount (positivo o negativo, nunca cero) al stock existente.
// Un decremento que dejaría el stock bajo cero falla con Conflict. Una vez confirmado el
// ajuste Add no falla: si la relectura no está disponible devuelve el registro leído
// antes con el ajuste aplicado.
func (uc *StockUseCase) Add(ctx context.Context, companyID, productID string, amount int) (*entity.StockRecord, error) {
	companyID = strings.TrimSpace(companyID)
	productID = strings.TrimSpace(productID)
	if companyID == "" || productID == "" {
		return nil, domain.InvalidInput("companyId y productId son requeridos")
	}
	if amount == 0 {
		return nil, domain.InvalidInput("amount no puede ser 0")
	}

	current, err := uc.stock.Get(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("stock %s/%s: %w", companyID, productID, domain.ErrNotFound)
	}

	now := uc.now().UTC()
	if err := uc.tx.TransactWrite(ctx, inventory.BuildAdjust(companyID, productID, amount, now)); err != nil {
		return nil, err
	}

	fresh, err := uc.stock.Get(ctx, companyID, productID)
	if err != nil || fresh == nil {
		uc.log.Warn().Err(err).
			Str("company_id", companyID).
			Str("product_id", productID).
			Int("amount", amount).
			Msg("relectura tras ajuste confirmado")
		adjusted := *current
		adjusted.QtyAvailable += amount
		adjusted.UpdatedAt = now
		fresh = &adjusted
	}
	uc.notifier.NotifyIfLow(ctx, companyID, []string{productID}, "Stock changed via /add")
	return fresh, nil
}
