package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
)

var _ repository.TransactWriter = (*TxWriter)(nil)

// TxWriter aplica una lista de WriteOp dentro de una única transacción PostgreSQL.
// Cada sentencia es condicional y debe afectar exactamente una fila; si alguna no lo hace
// se hace Rollback y se devuelve ConditionFailedError para esa operación.
type TxWriter struct {
	db     Beginner
	tables Tables
}

// NewTxWriter construye el writer con el pool.
func NewTxWriter(db Beginner, t Tables) *TxWriter {
	return &TxWriter{db: db, tables: t}
}

// TransactWrite ejecuta todas las operaciones o ninguna.
func (w *TxWriter) TransactWrite(ctx context.Context, ops []repository.WriteOp) error {
	tx, err := w.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, op := range ops {
		ok, err := w.apply(ctx, tx, op)
		if err != nil {
			return err
		}
		if !ok {
			return repository.NewConditionFailed(op)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// apply devuelve false cuando la condición de la operación no se cumple.
func (w *TxWriter) apply(ctx context.Context, tx pgx.Tx, op repository.WriteOp) (bool, error) {
	switch op := op.(type) {
	case repository.AdjustStock:
		// UPDATE con condición en el WHERE: bajo READ COMMITTED la fila se bloquea y la
		// condición se reevalúa sobre la versión confirmada más reciente.
		query := fmt.Sprintf(`
			UPDATE %s SET qty_available = qty_available + $3, updated_at = $4
			WHERE company_id = $1 AND product_id = $2 AND qty_available >= $5`, w.tables.Inventory)
		tag, err := tx.Exec(ctx, query, op.CompanyID, op.ProductID, op.Delta, op.At, op.MinAvailable)
		if err != nil {
			return false, classify("adjust stock", err)
		}
		return tag.RowsAffected() == 1, nil

	case repository.PutOrder:
		items, err := encodeItems(op.Order.Items)
		if err != nil {
			return false, err
		}
		o := op.Order
		query := fmt.Sprintf(`
			INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (company_id, order_id) DO NOTHING`, w.tables.Orders, orderColumns)
		tag, err := tx.Exec(ctx, query, o.CompanyID, o.OrderID, o.CompanyName, o.Email, o.Region, string(items), o.CreatedAt, o.UpdatedAt, o.Version)
		if err != nil {
			if isUniqueViolation(err) {
				return false, nil
			}
			return false, classify("put order", err)
		}
		return tag.RowsAffected() == 1, nil

	case repository.ReplaceOrderItems:
		items, err := encodeItems(op.Items)
		if err != nil {
			return false, err
		}
		// $5 = 0 desactiva el control de versión.
		query := fmt.Sprintf(`
			UPDATE %s SET items = $3, updated_at = $4, version = version + 1
			WHERE company_id = $1 AND order_id = $2 AND ($5::bigint = 0 OR version = $5::bigint)`, w.tables.Orders)
		tag, err := tx.Exec(ctx, query, op.CompanyID, op.OrderID, string(items), op.At, op.ExpectedVersion)
		if err != nil {
			return false, classify("replace order items", err)
		}
		return tag.RowsAffected() == 1, nil

	case repository.DeleteOrder:
		query := fmt.Sprintf(`
			DELETE FROM %s
			WHERE company_id = $1 AND order_id = $2 AND ($3::bigint = 0 OR version = $3::bigint)`, w.tables.Orders)
		tag, err := tx.Exec(ctx, query, op.CompanyID, op.OrderID, op.ExpectedVersion)
		if err != nil {
			return false, classify("delete order", err)
		}
		return tag.RowsAffected() == 1, nil
	}
	return false, fmt.Errorf("operación no soportada: %T", op)
}
