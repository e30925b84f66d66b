package inventory

import "github.com/jhoicas/b2b-stock-api/internal/domain/entity"

// IsLowStock: umbral > 0 y disponible <= umbral. Un registro ausente (nil) nunca está bajo.
func IsLowStock(s *entity.StockRecord) bool {
	if s == nil {
		return false
	}
	return s.LowThreshold > 0 && s.QtyAvailable <= s.LowThreshold
}
