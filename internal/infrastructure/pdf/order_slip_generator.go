// Package pdf genera el comprobante de pedido en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa compradora  │  N° Pedido + Fecha            │
//	│  CONTACTO: Email / Región                                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Producto | Nombre | Disponible                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL UNIDADES                    │  QR companyId/orderId   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/b2b-stock-api/internal/application/order"
	"github.com/jhoicas/b2b-stock-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var _ order.SlipGenerator = (*MarotoSlipGenerator)(nil)

// MarotoSlipGenerator implementa order.SlipGenerator usando Maroto v2.
type MarotoSlipGenerator struct{}

// NewMarotoSlipGenerator construye el generador.
func NewMarotoSlipGenerator() *MarotoSlipGenerator { return &MarotoSlipGenerator{} }

// GenerateOrderSlip genera el PDF y devuelve sus bytes.
func (g *MarotoSlipGenerator) GenerateOrderSlip(
	_ context.Context,
	o *entity.Order,
	stock map[string]*entity.StockRecord,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Pedido "+o.OrderID, true).
		WithAuthor(nonEmpty(o.CompanyName, o.CompanyID), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(o))
	m.AddRows(contactRow(o))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range itemRows(o.Items, stock) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(footerRow(o))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(o *entity.Order) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(o.CompanyName, o.CompanyID), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Empresa: "+o.CompanyID, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE PEDIDO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(o.OrderID, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+o.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func contactRow(o *entity.Order) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Email: %s   |   Región: %s",
				nonEmpty(o.Email, "—"),
				nonEmpty(o.Region, "—"),
			), props.Text{Size: 8, Top: 3, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 2, align.Center),
		h("Producto", 3, align.Left),
		h("Nombre", 5, align.Left),
		h("Disponible", 2, align.Right),
	)
}

// itemRows: una fila por línea. Un producto sin registro de stock se marca en rojo.
func itemRows(items []entity.OrderItem, stock map[string]*entity.StockRecord) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		name, available := "sin registro de stock", "—"
		nameColor := colorAlert
		if rec, ok := stock[it.ProductID]; ok && rec != nil {
			name = nonEmpty(rec.Name, "—")
			available = formatQty(rec.QtyAvailable)
			nameColor = nil
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(formatQty(it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(it.ProductID, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(5).Add(text.New(name, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1, Color: nameColor})),
			col.New(2).Add(text.New(available, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func footerRow(o *entity.Order) core.Row {
	return row.New(40).Add(
		col.New(8).Add(
			text.New(fmt.Sprintf("Líneas: %d", len(o.Items)), props.Text{
				Size: 9, Top: 4, Color: colorGray,
			}),
			text.New("TOTAL UNIDADES: "+formatQty(totalUnits(o.Items)), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 11, Color: colorPrimary,
			}),
		),
		col.New(4).Add(code.NewQr(o.CompanyID+"/"+o.OrderID, props.Rect{
			Percent: 90,
			Center:  true,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func totalUnits(items []entity.OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQty inserta puntos de miles. Ej: 25000 → "25.000".
func formatQty(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	l := len(s)
	if l <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, l+l/3)
	for i, c := range []byte(s) {
		if i > 0 && (l-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
