package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `company_id, product_id, name, qty_available, low_threshold, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q     Querier
	table string
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier, t Tables) *StockRepo {
	return &StockRepo{q: q, table: t.Inventory}
}

// Get obtiene el registro; nil, nil si no existe.
func (r *StockRepo) Get(ctx context.Context, companyID, productID string) (*entity.StockRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE company_id = $1 AND product_id = $2`, stockColumns, r.table)
	s, err := scanStock(r.q.QueryRow(ctx, query, companyID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get stock", err)
	}
	return s, nil
}

// ListByCompany lista los registros de la empresa ordenados por product_id.
func (r *StockRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.StockRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE company_id = $1 ORDER BY product_id ASC`, stockColumns, r.table)
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, classify("list stock", err)
	}
	defer rows.Close()

	list := make([]*entity.StockRecord, 0)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, classify("scan stock", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list stock", err)
	}
	return list, nil
}

// Upsert reemplaza el registro completo (companyId, productId).
func (r *StockRepo) Upsert(ctx context.Context, s *entity.StockRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, product_id)
		DO UPDATE SET name = EXCLUDED.name,
		              qty_available = EXCLUDED.qty_available,
		              low_threshold = EXCLUDED.low_threshold,
		              updated_at = EXCLUDED.updated_at`, r.table, stockColumns)
	_, err := r.q.Exec(ctx, query, s.CompanyID, s.ProductID, s.Name, s.QtyAvailable, s.LowThreshold, s.UpdatedAt)
	if err != nil {
		return classify("upsert stock", err)
	}
	return nil
}

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	if err := row.Scan(&s.CompanyID, &s.ProductID, &s.Name, &s.QtyAvailable, &s.LowThreshold, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}
