package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `company_id, order_id, company_name, email, region, items, created_at, updated_at, version`

// itemRow forma de cada línea dentro de la columna items (JSONB).
type itemRow struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderRepo implementación de OrderRepository sobre PostgreSQL.
type OrderRepo struct {
	q     Querier
	table string
}

// NewOrderRepository construye el adaptador de pedidos.
func NewOrderRepository(q Querier, t Tables) *OrderRepo {
	return &OrderRepo{q: q, table: t.Orders}
}

// Get obtiene un pedido; nil, nil si no existe.
func (r *OrderRepo) Get(ctx context.Context, companyID, orderID string) (*entity.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE company_id = $1 AND order_id = $2`, orderColumns, r.table)
	o, err := scanOrder(r.q.QueryRow(ctx, query, companyID, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get order", err)
	}
	return o, nil
}

// ListByCompany pedidos de la empresa, más recientes primero.
func (r *OrderRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE company_id = $1 ORDER BY created_at DESC, order_id DESC`, orderColumns, r.table)
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, classify("list orders", err)
	}
	defer rows.Close()

	list := make([]*entity.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, classify("scan order", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list orders", err)
	}
	return list, nil
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	var raw []byte
	if err := row.Scan(&o.CompanyID, &o.OrderID, &o.CompanyName, &o.Email, &o.Region, &raw, &o.CreatedAt, &o.UpdatedAt, &o.Version); err != nil {
		return nil, err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	o.Items = items
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}

func encodeItems(items []entity.OrderItem) ([]byte, error) {
	rows := make([]itemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, itemRow{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return json.Marshal(rows)
}

func decodeItems(raw []byte) ([]entity.OrderItem, error) {
	var rows []itemRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	items := make([]entity.OrderItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, entity.OrderItem{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	return items, nil
}
