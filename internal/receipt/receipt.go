// Package receipt renders printable PDF tickets for paid orders. Tickets
// are sized for an 80mm thermal printer and written to a local directory;
// the caller treats rendering as best effort.
package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/comanda-pos/api/internal/database"
	"github.com/go-pdf/fpdf"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	pageWidth  = 80.0
	pageHeight = 250.0
	margin     = 5.0
)

// Renderer writes order tickets under Dir.
type Renderer struct {
	Dir string
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{Dir: dir}
}

// Render writes the ticket PDF and returns its path. The file is named
// after the order number so reprints overwrite instead of piling up.
func (r *Renderer) Render(order database.Order, items []database.ListOrderItemsRow, settings database.Settings) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()

	lineWidth := pageWidth - 2*margin

	pdf.SetFont("Helvetica", "B", 12)
	name := settings.RestaurantName
	if name == "" {
		name = "Restaurante"
	}
	pdf.CellFormat(lineWidth, 6, name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	if settings.Address.Valid {
		pdf.CellFormat(lineWidth, 4, settings.Address.String, "", 1, "C", false, 0, "")
	}
	if settings.Phone.Valid {
		pdf.CellFormat(lineWidth, 4, "Tel: "+settings.Phone.String, "", 1, "C", false, 0, "")
	}
	divider(pdf, lineWidth)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(lineWidth, 5, order.OrderNumber, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(lineWidth, 4, order.CreatedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	if order.TableNumber.Valid {
		pdf.CellFormat(lineWidth, 4, fmt.Sprintf("Mesa %d", order.TableNumber.Int32), "", 1, "C", false, 0, "")
	}
	divider(pdf, lineWidth)

	pdf.SetFont("Helvetica", "", 8)
	for _, item := range items {
		label := fmt.Sprintf("%dx %s", item.Quantity, item.ProductName)
		pdf.CellFormat(lineWidth*0.7, 4, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(lineWidth*0.3, 4, amount(item.Subtotal), "", 1, "R", false, 0, "")
		if item.Notes.Valid {
			pdf.CellFormat(lineWidth, 4, "  "+item.Notes.String, "", 1, "L", false, 0, "")
		}
	}
	divider(pdf, lineWidth)

	totalRow(pdf, lineWidth, "Subtotal", amount(order.Subtotal), false)
	totalRow(pdf, lineWidth, "Impuesto", amount(order.TaxAmount), false)
	if !numericIsZero(order.Discount) {
		totalRow(pdf, lineWidth, "Descuento", "-"+amount(order.Discount), false)
	}
	totalRow(pdf, lineWidth, "TOTAL", amount(order.TotalFinal), true)

	if order.PaymentMethod.Valid {
		divider(pdf, lineWidth)
		totalRow(pdf, lineWidth, "Pago", order.PaymentMethod.String, false)
		if order.AmountReceived.Valid {
			totalRow(pdf, lineWidth, "Recibido", amount(order.AmountReceived), false)
		}
		if order.ChangeGiven.Valid {
			totalRow(pdf, lineWidth, "Cambio", amount(order.ChangeGiven), false)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(lineWidth, 4, "Gracias por su visita", "", 1, "C", false, 0, "")

	path := filepath.Join(r.Dir, safeFileName(order.OrderNumber)+".pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}

func divider(pdf *fpdf.Fpdf, width float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(width, 3, strings.Repeat("-", 40), "", 1, "C", false, 0, "")
}

func totalRow(pdf *fpdf.Fpdf, width float64, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 9)
	pdf.CellFormat(width*0.5, 4, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(width*0.5, 4, value, "", 1, "R", false, 0, "")
}

func amount(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func numericIsZero(n pgtype.Numeric) bool {
	return amount(n) == "0.00"
}

// safeFileName strips anything that could escape the receipt directory.
func safeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
