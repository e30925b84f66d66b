package entity

import "time"

// OrderItem línea de un pedido. Dentro de un pedido cada ProductID aparece una sola vez.
type OrderItem struct {
	ProductID string
	Quantity  int
}

// Order pedido multi-ítem de una empresa. Identidad: (CompanyID, OrderID).
type Order struct {
	CompanyID   string
	OrderID     string
	CompanyName string
	Email       string
	Region      string
	Items       []OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// Version empieza en 1 y aumenta con cada reemplazo de ítems; las escrituras
	// que parten de una lectura la exigen como precondición.
	Version int64
}

// Reservation devuelve el mapa producto → cantidad reservada por el pedido.
// Si por datos heredados un producto aparece repetido, las cantidades se suman.
func (o *Order) Reservation() map[string]int {
	out := make(map[string]int, len(o.Items))
	for _, it := range o.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}
