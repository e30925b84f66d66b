package entity

import "time"

// LowStockAlert alerta publicada cuando un producto queda en o bajo su umbral.
type LowStockAlert struct {
	CompanyID    string
	ProductID    string
	Name         string
	QtyAvailable int
	LowThreshold int
	Reason       string // evento del ciclo de vida que la disparó
	At           time.Time
}
