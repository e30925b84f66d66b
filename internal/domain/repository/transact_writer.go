package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/b2b-stock-api/internal/domain"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
)

// TransactWriter aplica una lista de operaciones condicionales como una unidad atómica:
// o se cumplen todas las condiciones y se aplican todas las escrituras, o no se aplica ninguna.
// Si alguna condición falla devuelve un *ConditionFailedError (envuelve domain.ErrConflict).
// Un único intento: el adaptador no reintenta fallos de condición.
type TransactWriter interface {
	TransactWrite(ctx context.Context, ops []WriteOp) error
}

// WriteOp operación condicional dentro de una unidad atómica.
// Implementada solo por AdjustStock, PutOrder, ReplaceOrderItems y DeleteOrder.
type WriteOp interface {
	writeOp()
}

// AdjustStock suma Delta (con signo) a QtyAvailable. Condición: el registro existe y
// QtyAvailable >= MinAvailable antes de aplicar (MinAvailable 0 = solo existencia).
type AdjustStock struct {
	CompanyID    string
	ProductID    string
	Delta        int
	MinAvailable int
	At           time.Time
}

// PutOrder inserta el pedido. Condición: (CompanyID, OrderID) no existe.
type PutOrder struct {
	Order *entity.Order
}

// ReplaceOrderItems reemplaza la lista completa de ítems e incrementa la versión.
// Condición: el pedido existe y, si ExpectedVersion > 0, su versión es ExpectedVersion.
type ReplaceOrderItems struct {
	CompanyID       string
	OrderID         string
	Items           []entity.OrderItem
	At              time.Time
	ExpectedVersion int64
}

// DeleteOrder elimina el pedido. Condición: el pedido existe y, si ExpectedVersion > 0,
// su versión es ExpectedVersion.
type DeleteOrder struct {
	CompanyID       string
	OrderID         string
	ExpectedVersion int64
}

func (AdjustStock) writeOp()       {}
func (PutOrder) writeOp()          {}
func (ReplaceOrderItems) writeOp() {}
func (DeleteOrder) writeOp()       {}

// ConditionFailedError indica qué operación abortó la unidad atómica.
type ConditionFailedError struct {
	Op    WriteOp
	Cause error // domain.ErrInsufficientStock o domain.ErrConflict
}

func (e *ConditionFailedError) Error() string {
	switch op := e.Op.(type) {
	case AdjustStock:
		return fmt.Sprintf("producto %s: %v", op.ProductID, e.Cause)
	case PutOrder:
		return fmt.Sprintf("pedido %s ya existe: %v", op.Order.OrderID, e.Cause)
	case ReplaceOrderItems:
		return fmt.Sprintf("pedido %s: %v", op.OrderID, e.Cause)
	case DeleteOrder:
		return fmt.Sprintf("pedido %s: %v", op.OrderID, e.Cause)
	}
	return e.Cause.Error()
}

func (e *ConditionFailedError) Unwrap() error { return e.Cause }

// NewConditionFailed construye el error de condición para op según su tipo:
// un AdjustStock que exigía disponibilidad se reporta como stock insuficiente.
func NewConditionFailed(op WriteOp) *ConditionFailedError {
	if adj, ok := op.(AdjustStock); ok && adj.MinAvailable > 0 {
		return &ConditionFailedError{Op: op, Cause: domain.ErrInsufficientStock}
	}
	return &ConditionFailedError{Op: op, Cause: domain.ErrConflict}
}
