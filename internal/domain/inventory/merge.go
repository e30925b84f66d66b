// Package inventory contiene la lógica pura de conciliación de stock y pedidos:
// fusión de líneas, cálculo de deltas, evaluación de stock bajo y construcción
// de la unidad atómica de escrituras. No hace I/O.
package inventory

import (
	"strings"

	"github.com/jhoicas/b2b-stock-api/internal/domain"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
)

// MergeItems fusiona las líneas por producto (ProductID sin espacios alrededor) sumando cantidades.
// Conserva el orden de primera aparición. Falla con ErrInvalidInput si algún ProductID
// queda vacío o si no hay líneas.
func MergeItems(items []entity.OrderItem) ([]entity.OrderItem, error) {
	merged := make([]entity.OrderItem, 0, len(items))
	index := make(map[string]int, len(items))
	for i, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" {
			return nil, domain.InvalidInput("productId vacío en la línea %d", i+1)
		}
		if pos, ok := index[pid]; ok {
			merged[pos].Quantity += it.Quantity
			continue
		}
		index[pid] = len(merged)
		merged = append(merged, entity.OrderItem{ProductID: pid, Quantity: it.Quantity})
	}
	if len(merged) == 0 {
		return nil, domain.InvalidInput("items no puede estar vacío")
	}
	return merged, nil
}

// Quantities convierte una lista de ítems en el mapa producto → cantidad total.
func Quantities(items []entity.OrderItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.ProductID] += it.Quantity
	}
	return out
}
