package sales

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderReceipt draws the receipt of a stored sale as a one page A4 PDF.
// Amounts come from the stored sale, not from the current tax rate.
func RenderReceipt(sale *Sale) ([]byte, error) {
	number := ReceiptNumber(sale.ID)
	if sale.ReceiptNumber != nil {
		number = *sale.ReceiptNumber
	}
	totals := RecordedTotals(sale)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(number, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Boleta de venta"), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, tr(number), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.CellFormat(0, 6, "Fecha: "+sale.Date.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if sale.CustomerDNI != nil {
		pdf.CellFormat(0, 6, "Cliente DNI: "+*sale.CustomerDNI, "", 1, "L", false, 0, "")
	}
	if sale.Description != nil {
		pdf.CellFormat(0, 6, tr(*sale.Description), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{90, 25, 35, 40}
	pdf.SetFont("Arial", "B", 11)
	for i, h := range []string{"Producto", "Cant.", "P. unitario", "Importe"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 11)
	for _, l := range sale.Lines {
		pdf.CellFormat(widths[0], 7, tr(l.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", l.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, money(l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(ComputeLineAmounts(l.UnitPrice, l.Quantity, 0).Subtotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	label := widths[0] + widths[1] + widths[2]
	for _, row := range []struct {
		name  string
		value float64
	}{
		{"Subtotal", totals.Subtotal},
		{fmt.Sprintf("IGV (%g%%)", TaxRateOf(totals)), totals.Tax},
		{"Total", totals.Total},
	} {
		pdf.CellFormat(label, 7, row.name, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(row.value), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", number, err)
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("S/ %.2f", v)
}
