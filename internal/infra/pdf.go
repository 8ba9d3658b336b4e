package infra

// A4 documents rendered with go-pdf/fpdf:
//   - invoice (items, total, balance and payments received)
//   - client account statement (open invoices and total owed)
//   - financial report for a date range
//
// Everything is rendered in memory and returned as bytes; handlers stream it
// and the email worker attaches it.

import (
	"bytes"
	"fmt"
	"time"

	"adriani/internal/dto"
	"adriani/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

type columna struct {
	titulo string
	ancho  float64 // fraction of the content width
	alinea string
}

type documento struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	contentW float64
}

// nuevoDocumento starts an A4 page with the business header and a title.
// Core fonts are cp1252, so every string goes through tr.
func nuevoDocumento(empresa, titulo string) *documento {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	d := &documento{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), contentW: pageW - 30}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(d.contentW, 8, d.tr(empresa), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(d.contentW, 6, d.tr(titulo), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	d.separador()
	return d
}

func (d *documento) separador() {
	pageW, _ := d.pdf.GetPageSize()
	d.pdf.Line(15, d.pdf.GetY(), pageW-15, d.pdf.GetY())
	d.pdf.Ln(3)
}

func (d *documento) campo(etiqueta, valor string) {
	d.pdf.SetFont("Helvetica", "B", 9)
	d.pdf.CellFormat(40, 5, d.tr(etiqueta), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 9)
	d.pdf.CellFormat(d.contentW-40, 5, d.tr(valor), "", 1, "L", false, 0, "")
}

func (d *documento) tabla(cols []columna, filas [][]string) {
	d.pdf.SetFont("Helvetica", "B", 9)
	d.pdf.SetFillColor(230, 230, 230)
	for _, c := range cols {
		d.pdf.CellFormat(d.contentW*c.ancho, 6, d.tr(c.titulo), "B", 0, c.alinea, true, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont("Helvetica", "", 9)
	for _, fila := range filas {
		for i, c := range cols {
			d.pdf.CellFormat(d.contentW*c.ancho, 5, d.tr(fila[i]), "", 0, c.alinea, false, 0, "")
		}
		d.pdf.Ln(-1)
	}
	d.pdf.Ln(2)
}

func (d *documento) total(etiqueta string, valor decimal.Decimal) {
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.CellFormat(d.contentW*0.7, 7, d.tr(etiqueta), "", 0, "R", false, 0, "")
	d.pdf.CellFormat(d.contentW*0.3, 7, "$"+valor.StringFixed(2), "", 1, "R", false, 0, "")
}

func (d *documento) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// FacturaPDF renders an invoice. f must have Items (with Producto), Cliente
// and Asignaciones loaded.
func FacturaPDF(empresa string, f *model.Factura) ([]byte, error) {
	d := nuevoDocumento(empresa, fmt.Sprintf("Factura N° %06d", f.Numero))

	if f.Cliente != nil {
		d.campo("Cliente:", f.Cliente.Nombre)
		d.campo("Documento:", f.Cliente.Documento)
	}
	d.campo("Despacho:", f.FechaDespacho.Format("02/01/2006"))
	d.campo("Vencimiento:", f.FechaVencimiento.Format("02/01/2006"))
	d.campo("Estado:", string(f.Estado))
	d.pdf.Ln(3)

	filas := make([][]string, 0, len(f.Items))
	for _, it := range f.Items {
		nombre := it.ProductoID.String()
		if it.Producto != nil {
			nombre = it.Producto.Nombre
		}
		filas = append(filas, []string{
			nombre,
			fmt.Sprintf("%d", it.Cantidad),
			"$" + it.PrecioUnitario.StringFixed(2),
			"$" + it.Subtotal.StringFixed(2),
		})
	}
	d.tabla([]columna{
		{"Producto", 0.5, "L"},
		{"Cant.", 0.1, "C"},
		{"Precio", 0.2, "R"},
		{"Subtotal", 0.2, "R"},
	}, filas)

	d.total("TOTAL:", f.MontoTotal)
	if len(f.Asignaciones) > 0 {
		abonado := decimal.Zero
		for _, a := range f.Asignaciones {
			abonado = abonado.Add(a.Monto)
		}
		d.total("Abonado:", abonado)
	}
	d.total("Restante:", f.Restante)

	if f.Observaciones != nil && *f.Observaciones != "" {
		d.pdf.Ln(4)
		d.pdf.SetFont("Helvetica", "I", 8)
		d.pdf.MultiCell(d.contentW, 4, d.tr(*f.Observaciones), "", "L", false)
	}
	return d.bytes()
}

// EstadoCuentaPDF renders the open invoices of a client with the total owed.
func EstadoCuentaPDF(empresa string, c *model.Cliente, facturas []model.Factura, totalDeuda decimal.Decimal, generado time.Time) ([]byte, error) {
	d := nuevoDocumento(empresa, "Estado de cuenta")
	d.campo("Cliente:", c.Nombre)
	d.campo("Documento:", c.Documento)
	d.campo("Generado:", generado.Format("02/01/2006 15:04"))
	d.pdf.Ln(3)

	filas := make([][]string, 0, len(facturas))
	for _, f := range facturas {
		filas = append(filas, []string{
			fmt.Sprintf("%06d", f.Numero),
			f.FechaDespacho.Format("02/01/2006"),
			f.FechaVencimiento.Format("02/01/2006"),
			string(f.Estado),
			"$" + f.MontoTotal.StringFixed(2),
			"$" + f.Restante.StringFixed(2),
		})
	}
	d.tabla([]columna{
		{"Factura", 0.14, "L"},
		{"Despacho", 0.16, "C"},
		{"Vence", 0.16, "C"},
		{"Estado", 0.16, "C"},
		{"Total", 0.19, "R"},
		{"Restante", 0.19, "R"},
	}, filas)

	d.total("Total adeudado:", totalDeuda)
	return d.bytes()
}

// ReporteFinancieroPDF renders the financial report of a period.
func ReporteFinancieroPDF(empresa string, r *dto.ReporteFinancieroResponse) ([]byte, error) {
	d := nuevoDocumento(empresa, fmt.Sprintf("Reporte financiero %s al %s", r.Desde, r.Hasta))

	d.campo("Facturas:", fmt.Sprintf("%d", r.Facturas))
	for _, estado := range []model.EstadoFactura{
		model.EstadoCreada, model.EstadoPendiente, model.EstadoVencida, model.EstadoPagado, model.EstadoCancelada,
	} {
		d.campo("  "+string(estado)+":", fmt.Sprintf("%d", r.PorEstado[string(estado)]))
	}
	d.pdf.Ln(2)
	d.total("Facturado:", r.TotalFacturado)
	d.total("Cobrado:", r.TotalCobrado)
	d.total("Pendiente:", r.TotalPendiente)
	d.pdf.Ln(3)

	cuentas := make([][]string, 0, len(r.PorCuenta))
	for _, c := range r.PorCuenta {
		cuentas = append(cuentas, []string{
			c.Cuenta, c.Moneda, fmt.Sprintf("%d", c.Pagos), c.Monto.StringFixed(2), "$" + c.MontoUSD.StringFixed(2),
		})
	}
	d.tabla([]columna{
		{"Cuenta", 0.34, "L"},
		{"Moneda", 0.12, "C"},
		{"Pagos", 0.12, "C"},
		{"Monto", 0.21, "R"},
		{"Monto USD", 0.21, "R"},
	}, cuentas)

	productos := make([][]string, 0, len(r.Productos))
	for _, p := range r.Productos {
		productos = append(productos, []string{
			p.Producto, p.Vendido.String(), p.Pagado.StringFixed(2), p.Pendiente.StringFixed(2), "$" + p.MontoPagado.StringFixed(2),
		})
	}
	d.tabla([]columna{
		{"Producto", 0.36, "L"},
		{"Vendido", 0.14, "R"},
		{"Pagado", 0.14, "R"},
		{"Pendiente", 0.14, "R"},
		{"Monto pagado", 0.22, "R"},
	}, productos)

	return d.bytes()
}
