package dto

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/b2b-stock-api/internal/domain"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
)

// MaxLineQuantity tope por línea aceptado en el borde HTTP.
const MaxLineQuantity = 10000

// OrderItemDTO línea de pedido.
type OrderItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest body de POST /api/orders y PATCH /api/orders/:companyId/:orderId.
type OrderRequest struct {
	CompanyID   string         `json:"companyId"`
	CompanyName string         `json:"companyName"`
	Email       string         `json:"email"`
	Region      string         `json:"region"`
	Items       []OrderItemDTO `json:"items"`
}

// Validate revisa los datos de contacto y el rango de cantidades.
// La normalización de ítems (trim, fusión de duplicados) ocurre en el caso de uso.
func (r *OrderRequest) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(r.CompanyName)) < 2 {
		return domain.InvalidInput("companyName debe tener al menos 2 caracteres")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return domain.InvalidInput("email inválido")
	}
	if utf8.RuneCountInString(strings.TrimSpace(r.Region)) < 2 {
		return domain.InvalidInput("region debe tener al menos 2 caracteres")
	}
	if len(r.Items) == 0 {
		return domain.InvalidInput("items no puede estar vacío")
	}
	for i, it := range r.Items {
		if it.Quantity < 1 || it.Quantity > MaxLineQuantity {
			return domain.InvalidInput("quantity fuera de rango en la línea %d (1..%d)", i+1, MaxLineQuantity)
		}
	}
	return nil
}

// EntityItems convierte las líneas a entidades.
func (r *OrderRequest) EntityItems() []entity.OrderItem {
	items := make([]entity.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, entity.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return items
}

// OrderResponse pedido expuesto por la API.
type OrderResponse struct {
	CompanyID   string         `json:"companyId"`
	OrderID     string         `json:"orderId"`
	CompanyName string         `json:"companyName"`
	Email       string         `json:"email"`
	Region      string         `json:"region"`
	Items       []OrderItemDTO `json:"items"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// OrderListResponse listado de pedidos de una empresa.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
}

// OrderUpdatedResponse respuesta de PATCH.
type OrderUpdatedResponse struct {
	OK        bool           `json:"ok"`
	CompanyID string         `json:"companyId"`
	OrderID   string         `json:"orderId"`
	Items     []OrderItemDTO `json:"items"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// OrderKey identidad de un pedido.
type OrderKey struct {
	CompanyID string `json:"companyId"`
	OrderID   string `json:"orderId"`
}

// OrderDeletedResponse respuesta de DELETE.
type OrderDeletedResponse struct {
	OK      bool     `json:"ok"`
	Deleted OrderKey `json:"deleted"`
}

// OrderFromEntity convierte la entidad a respuesta.
func OrderFromEntity(o *entity.Order) OrderResponse {
	return OrderResponse{
		CompanyID:   o.CompanyID,
		OrderID:     o.OrderID,
		CompanyName: o.CompanyName,
		Email:       o.Email,
		Region:      o.Region,
		Items:       itemsFromEntity(o.Items),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// OrderListFromEntities arma el listado; nunca devuelve items nulo.
func OrderListFromEntities(list []*entity.Order) OrderListResponse {
	items := make([]OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, OrderFromEntity(o))
	}
	return OrderListResponse{Items: items}
}

// OrderUpdatedFromEntity respuesta de actualización.
func OrderUpdatedFromEntity(o *entity.Order) OrderUpdatedResponse {
	return OrderUpdatedResponse{
		OK:        true,
		CompanyID: o.CompanyID,
		OrderID:   o.OrderID,
		Items:     itemsFromEntity(o.Items),
		UpdatedAt: o.UpdatedAt,
	}
}

func itemsFromEntity(items []entity.OrderItem) []OrderItemDTO {
	out := make([]OrderItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, OrderItemDTO{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// String para logs.
func (k OrderKey) String() string { return fmt.Sprintf("%s/%s", k.CompanyID, k.OrderID) }
