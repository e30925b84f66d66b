package dto

import (
	"time"

	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
)

// UpsertStockRequest body de POST /api/stock/:companyId.
type UpsertStockRequest struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	QtyAvailable int    `json:"qtyAvailable"`
	LowThreshold int    `json:"lowThreshold"`
}

// AddStockRequest body de POST /api/stock/:companyId/:productId/add.
type AddStockRequest struct {
	Amount int `json:"amount"`
}

// StockResponse registro de stock expuesto por la API.
type StockResponse struct {
	CompanyID    string    `json:"companyId"`
	ProductID    string    `json:"productId"`
	Name         string    `json:"name"`
	QtyAvailable int       `json:"qtyAvailable"`
	LowThreshold int       `json:"lowThreshold"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StockListResponse listado de stock de una empresa.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
}

// AddStockResponse resultado de un ajuste relativo.
type AddStockResponse struct {
	OK    bool          `json:"ok"`
	Stock StockResponse `json:"stock"`
}

// StockFromEntity convierte la entidad a respuesta.
func StockFromEntity(s *entity.StockRecord) StockResponse {
	return StockResponse{
		CompanyID:    s.CompanyID,
		ProductID:    s.ProductID,
		Name:         s.Name,
		QtyAvailable: s.QtyAvailable,
		LowThreshold: s.LowThreshold,
		UpdatedAt:    s.UpdatedAt,
	}
}

// StockListFromEntities arma el listado; nunca devuelve items nulo.
func StockListFromEntities(list []*entity.StockRecord) StockListResponse {
	items := make([]StockResponse, 0, len(list))
	for _, s := range list {
		items = append(items, StockFromEntity(s))
	}
	return StockListResponse{Items: items}
}
