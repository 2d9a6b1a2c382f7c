// Package pdf genera el reporte del historial de movimientos de inventario en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Historial de movimientos  │  Fecha de generación   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Movimientos / Entradas / Salidas                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Producto | Tipo | Cantidad | Usuario         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
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

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary  = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorInbound  = &props.Color{Red: 20, Green: 120, Blue: 60}
	colorOutbound = &props.Color{Red: 170, Green: 40, Blue: 40}
)

var _ inventory.ReportGenerator = (*MovementReportGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MovementReportGenerator implementa inventory.ReportGenerator usando Maroto v2.
type MovementReportGenerator struct {
	author string
}

// NewMovementReportGenerator construye el generador. author aparece en los metadatos del PDF.
func NewMovementReportGenerator(author string) *MovementReportGenerator {
	return &MovementReportGenerator{author: nonEmpty(author, "inventario-ledger")}
}

// GenerateMovementReport genera el PDF y devuelve sus bytes. Los movimientos se imprimen en el orden recibido.
func (g *MovementReportGenerator) GenerateMovementReport(
	ctx context.Context,
	movements []*entity.MovementView,
	generatedAt time.Time,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Historial de movimientos de inventario", true).
		WithAuthor(g.author, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(movements))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(movements) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos para los filtros indicados.", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	m.AddRows(tableDetailRows(movements)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(generatedAt time.Time) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New("HISTORIAL DE MOVIMIENTOS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Entradas y salidas de inventario", props.Text{
				Size: 9, Top: 8, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+generatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

// summaryRow: totales del conjunto impreso.
func summaryRow(movements []*entity.MovementView) core.Row {
	var inbound, outbound int64
	for _, mv := range movements {
		if mv.Kind == entity.MovementOutbound {
			outbound += mv.Amount
		} else {
			inbound += mv.Amount
		}
	}
	cell := func(label, value string, color *props.Color) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1, Align: align.Center}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Color: color, Top: 5, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		cell("MOVIMIENTOS", formatThousands(int64(len(movements))), colorPrimary),
		cell("UNIDADES ENTRADA", formatThousands(inbound), colorInbound),
		cell("UNIDADES SALIDA", formatThousands(outbound), colorOutbound),
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
		h("Fecha", 3, align.Left),
		h("Producto", 4, align.Left),
		h("Tipo", 1, align.Center),
		h("Cantidad", 2, align.Right),
		h("Usuario", 2, align.Left),
	)
}

// tableDetailRows: una fila por movimiento.
func tableDetailRows(movements []*entity.MovementView) []core.Row {
	result := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		kindColor := colorInbound
		if mv.Kind == entity.MovementOutbound {
			kindColor = colorOutbound
		}
		result = append(result, row.New(6).Add(
			col.New(3).Add(text.New(
				mv.CreatedAt.Format("02/01/2006 15:04:05"),
				props.Text{Size: 7.5, Top: 1, Left: 1},
			)),
			col.New(4).Add(text.New(
				nonEmpty(mv.ItemName, "(eliminado) "+mv.ItemID),
				props.Text{Size: 7.5, Top: 1, Left: 1},
			)),
			col.New(1).Add(text.New(
				KindLabel(mv.Kind),
				props.Text{Size: 7.5, Align: align.Center, Top: 1, Color: kindColor},
			)),
			col.New(2).Add(text.New(
				formatThousands(mv.Amount),
				props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				nonEmpty(mv.ActorID, "—"),
				props.Text{Size: 7.5, Top: 1, Left: 1},
			)),
		))
	}
	return result
}

// ── helpers ───────────────────────────────────────────────────────────────────

// KindLabel etiqueta en español del tipo de movimiento.
func KindLabel(k entity.MovementKind) string {
	if k == entity.MovementOutbound {
		return "Salida"
	}
	return "Entrada"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatThousands inserta puntos de miles. Ej: 25000 → "25.000".
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
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
