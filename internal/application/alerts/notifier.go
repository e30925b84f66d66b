// Package alerts evalúa y publica alertas de stock bajo después de cada commit.
package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/b2b-stock-api/internal/application/ports"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
	"github.com/jhoicas/b2b-stock-api/internal/domain/inventory"
	"github.com/jhoicas/b2b-stock-api/internal/domain/repository"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// AlertSubject asunto de todas las alertas de stock bajo.
const AlertSubject = "Low Stock Alert"

// Notifier relee el stock de los productos tocados y publica una alerta por cada uno en o bajo
// su umbral. La relectura no forma parte de la unidad atómica: puede ver escrituras concurrentes
// posteriores al commit. Los fallos se registran y nunca se propagan al caller.
type Notifier struct {
	stock     repository.StockRepository
	publisher ports.Publisher
	topic     string
	log       *logger.Logger
	now       func() time.Time
}

// NewNotifier construye el notificador. Con publisher nil o topic vacío las alertas se evalúan
// pero no se publican.
func NewNotifier(stock repository.StockRepository, publisher ports.Publisher, topic string, log *logger.Logger) *Notifier {
	return &Notifier{
		stock:     stock,
		publisher: publisher,
		topic:     topic,
		log:       log.Component("notifier"),
		now:       time.Now,
	}
}

// NotifyIfLow evalúa cada producto con una lectura fresca y devuelve las alertas publicadas.
func (n *Notifier) NotifyIfLow(ctx context.Context, companyID string, productIDs []string, reason string) []entity.LowStockAlert {
	var sent []entity.LowStockAlert
	for _, pid := range productIDs {
		rec, err := n.stock.Get(ctx, companyID, pid)
		if err != nil {
			n.log.Warn().Err(err).
				Str("company_id", companyID).Str("product_id", pid).Str("reason", reason).
				Msg("releer stock para alerta")
			continue
		}
		if !inventory.IsLowStock(rec) {
			continue
		}
		alert := entity.LowStockAlert{
			CompanyID:    companyID,
			ProductID:    pid,
			Name:         rec.Name,
			QtyAvailable: rec.QtyAvailable,
			LowThreshold: rec.LowThreshold,
			Reason:       reason,
			At:           n.now().UTC(),
		}
		if n.publish(ctx, alert) {
			sent = append(sent, alert)
		}
	}
	return sent
}

func (n *Notifier) publish(ctx context.Context, alert entity.LowStockAlert) bool {
	if n.publisher == nil || n.topic == "" {
		n.log.Debug().Str("company_id", alert.CompanyID).Str("product_id", alert.ProductID).
			Msg("stock bajo detectado, publicación deshabilitada")
		return false
	}
	msg := ports.Message{
		Topic:   n.topic,
		Subject: AlertSubject,
		Key:     alert.CompanyID + "/" + alert.ProductID,
		Body:    []byte(FormatAlert(alert)),
	}
	if err := n.publisher.Publish(ctx, msg); err != nil {
		n.log.Warn().Err(err).
			Str("company_id", alert.CompanyID).Str("product_id", alert.ProductID).Str("reason", alert.Reason).
			Msg("publicar alerta de stock bajo")
		return false
	}
	n.log.Info().
		Str("company_id", alert.CompanyID).Str("product_id", alert.ProductID).
		Int("qty_available", alert.QtyAvailable).Int("low_threshold", alert.LowThreshold).
		Str("reason", alert.Reason).
		Msg("alerta de stock bajo publicada")
	return true
}

// FormatAlert cuerpo de texto de la alerta.
func FormatAlert(a entity.LowStockAlert) string {
	var b strings.Builder
	b.WriteString("LOW STOCK ALERT\n")
	fmt.Fprintf(&b, "Company: %s\n", a.CompanyID)
	fmt.Fprintf(&b, "Product: %s\n", a.ProductID)
	fmt.Fprintf(&b, "Name: %s\n", a.Name)
	fmt.Fprintf(&b, "qtyAvailable: %d\n", a.QtyAvailable)
	fmt.Fprintf(&b, "lowThreshold: %d\n", a.LowThreshold)
	fmt.Fprintf(&b, "Reason: %s\n", a.Reason)
	fmt.Fprintf(&b, "Time: %s\n", a.At.UTC().Format(time.RFC3339))
	return b.String()
}
