package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier lo que los repositorios necesitan de la conexión: lo cumplen *pgxpool.Pool y pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// Beginner abre transacciones; lo cumple *pgxpool.Pool.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Tables nombres (ya escapados) de las dos tablas del servicio.
type Tables struct {
	Inventory string
	Orders    string
}

// NewTables escapa los nombres configurados como identificadores SQL.
func NewTables(inventory, orders string) Tables {
	return Tables{
		Inventory: pgx.Identifier{inventory}.Sanitize(),
		Orders:    pgx.Identifier{orders}.Sanitize(),
	}
}
