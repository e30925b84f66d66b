package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema crea las tablas si no existen. El CHECK sobre qty_available es la última
// barrera del invariante de stock no negativo.
func EnsureSchema(ctx context.Context, q Querier, t Tables) error {
	stmts := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			company_id    TEXT        NOT NULL,
			product_id    TEXT        NOT NULL,
			name          TEXT        NOT NULL DEFAULT '',
			qty_available INTEGER     NOT NULL CHECK (qty_available >= 0),
			low_threshold INTEGER     NOT NULL DEFAULT 0 CHECK (low_threshold >= 0),
			updated_at    TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (company_id, product_id)
		)`, t.Inventory),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			company_id   TEXT        NOT NULL,
			order_id     TEXT        NOT NULL,
			company_name TEXT        NOT NULL DEFAULT '',
			email        TEXT        NOT NULL DEFAULT '',
			region       TEXT        NOT NULL DEFAULT '',
			items        JSONB       NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL,
			version      BIGINT      NOT NULL DEFAULT 1,
			PRIMARY KEY (company_id, order_id)
		)`, t.Orders),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 1`, t.Orders),
	}
	for _, stmt := range stmts {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return classify("ensure schema", err)
		}
	}
	return nil
}
