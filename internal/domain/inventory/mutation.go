package inventory

import (
	"time"

	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
)

// Las operaciones de stock se emiten ordenadas por ProductID para que dos
// transacciones concurrentes bloqueen filas en el mismo orden. En update y delete la
// operación sobre el pedido va primero: las escrituras sobre un mismo pedido se
// serializan en su fila antes de tocar el stock.

// BuildCreate: un decremento condicionado (existe y disponible >= qty) por producto
// y la inserción condicionada del pedido.
func BuildCreate(order *entity.Order, at time.Time) []repository.WriteOp {
	qty := Quantities(order.Items)
	ops := make([]repository.WriteOp, 0, len(qty)+1)
	for _, pid := range SortedKeys(qty) {
		ops = append(ops, consume(order.CompanyID, pid, qty[pid], at))
	}
	return append(ops, repository.PutOrder{Order: order})
}

// BuildUpdate reemplaza la lista de ítems de current (condicionado a su versión) y, por
// cada delta positivo, consume stock (exige disponibilidad); por cada negativo lo
// devuelve (solo exige existencia). delta debe haberse calculado sobre current.
func BuildUpdate(current *entity.Order, delta map[string]int, items []entity.OrderItem, at time.Time) []repository.WriteOp {
	ops := make([]repository.WriteOp, 0, len(delta)+1)
	ops = append(ops, repository.ReplaceOrderItems{
		CompanyID:       current.CompanyID,
		OrderID:         current.OrderID,
		Items:           items,
		At:              at,
		ExpectedVersion: current.Version,
	})
	for _, pid := range SortedKeys(delta) {
		d := delta[pid]
		if d > 0 {
			ops = append(ops, consume(current.CompanyID, pid, d, at))
		} else {
			ops = append(ops, release(current.CompanyID, pid, -d, at))
		}
	}
	return ops
}

// BuildDelete elimina current (condicionado a su versión) y devuelve toda su reserva al stock.
func BuildDelete(current *entity.Order, at time.Time) []repository.WriteOp {
	reservation := current.Reservation()
	ops := make([]repository.WriteOp, 0, len(reservation)+1)
	ops = append(ops, repository.DeleteOrder{
		CompanyID:       current.CompanyID,
		OrderID:         current.OrderID,
		ExpectedVersion: current.Version,
	})
	for _, pid := range SortedKeys(reservation) {
		ops = append(ops, release(current.CompanyID, pid, reservation[pid], at))
	}
	return ops
}

// BuildAdjust: ajuste relativo de un único registro. Un monto negativo exige
// disponibilidad suficiente para no dejar el stock bajo cero.
func BuildAdjust(companyID, productID string, amount int, at time.Time) []repository.WriteOp {
	if amount < 0 {
		return []repository.WriteOp{consume(companyID, productID, -amount, at)}
	}
	return []repository.WriteOp{release(companyID, productID, amount, at)}
}

func consume(companyID, productID string, qty int, at time.Time) repository.AdjustStock {
	return repository.AdjustStock{
		CompanyID:    companyID,
		ProductID:    productID,
		Delta:        -qty,
		MinAvailable: qty,
		At:           at,
	}
}

func release(companyID, productID string, qty int, at time.Time) repository.AdjustStock {
	return repository.AdjustStock{
		CompanyID: companyID,
		ProductID: productID,
		Delta:     qty,
		At:        at,
	}
}
