package entity

import "time"

// StockRecord representa el inventario disponible de un producto dentro de una empresa.
// Identidad: (CompanyID, ProductID). QtyAvailable nunca queda negativo en un estado confirmado.
type StockRecord struct {
	CompanyID    string
	ProductID    string
	Name         string
	QtyAvailable int
	LowThreshold int // 0 = alertas deshabilitadas
	UpdatedAt    time.Time
}
