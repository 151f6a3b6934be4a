package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"invoice-backend/internal/model"
	"invoice-backend/pkg/dataurl"

	"github.com/h2non/filetype"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var printer = message.NewPrinter(language.Indonesian)

// FormatRupiah renders a decimal amount with Indonesian digit grouping, e.g.
// 130000 -> "Rp 130.000" and 12870.5 -> "Rp 12.870,50".
func FormatRupiah(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	// Rounding to 2 decimals happens before the integer/cent split so a
	// fraction like 0.995 carries into the integer part instead of printing
	// a three-digit cent field.
	abs := amount.Abs().Round(2)

	intPart := abs.Truncate(0)
	frac := abs.Sub(intPart)

	out := printer.Sprintf("%d", intPart.IntPart())
	if !frac.IsZero() {
		cents := frac.Mul(decimal.NewFromInt(100)).IntPart()
		out = fmt.Sprintf("%s,%02d", out, cents)
	}
	if neg {
		out = "-" + out
	}
	return "Rp " + out
}

// FormatDate renders a date in the long Indonesian form, e.g. "17 Agustus 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// Render produces the printable A4 invoice document.
func Render(inv *model.Invoice) ([]byte, error) {
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetTitle("Invoice "+inv.InvoiceNumber, true)
	p.SetAutoPageBreak(true, 20)
	p.AddPage()

	drawHeader(p, inv)
	drawParties(p, inv)
	drawItemsTable(p, inv)
	drawTotals(p, inv)
	drawFooter(p, inv)

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawHeader(p *gofpdf.Fpdf, inv *model.Invoice) {
	if inv.LogoDataURL != "" {
		if data, err := dataurl.DecodeImage(inv.LogoDataURL); err == nil {
			if imgType := pdfImageType(data); imgType != "" {
				opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
				p.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
				p.ImageOptions("logo", 10, 10, 30, 0, false, opts, 0, "")
			}
		}
	}

	p.SetFont("Arial", "B", 22)
	p.SetXY(120, 12)
	p.CellFormat(80, 10, "INVOICE", "", 1, "R", false, 0, "")

	p.SetFont("Arial", "", 10)
	p.SetXY(120, 22)
	p.CellFormat(80, 5, inv.InvoiceNumber, "", 1, "R", false, 0, "")
	p.SetXY(120, 27)
	p.CellFormat(80, 5, "Jatuh tempo: "+FormatDate(inv.DueDate), "", 1, "R", false, 0, "")

	p.SetY(45)
	p.SetDrawColor(200, 200, 200)
	p.Line(10, 45, 200, 45)
}

func drawParties(p *gofpdf.Fpdf, inv *model.Invoice) {
	p.SetY(50)

	p.SetFont("Arial", "B", 10)
	p.CellFormat(95, 5, "Dari", "", 0, "L", false, 0, "")
	p.CellFormat(95, 5, "Kepada", "", 1, "L", false, 0, "")

	p.SetFont("Arial", "", 10)
	p.CellFormat(95, 5, inv.Business, "", 0, "L", false, 0, "")
	p.CellFormat(95, 5, inv.Client, "", 1, "L", false, 0, "")

	left := inv.BusinessContact
	right := strings.TrimSpace(strings.Join(nonEmpty(inv.ClientEmail, inv.ClientPhone), " / "))
	p.CellFormat(95, 5, left, "", 0, "L", false, 0, "")
	p.CellFormat(95, 5, right, "", 1, "L", false, 0, "")

	p.Ln(6)
}

func drawItemsTable(p *gofpdf.Fpdf, inv *model.Invoice) {
	p.SetFillColor(240, 240, 240)
	p.SetFont("Arial", "B", 10)
	p.CellFormat(80, 8, "Item", "1", 0, "L", true, 0, "")
	p.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	p.CellFormat(20, 8, "Satuan", "1", 0, "C", true, 0, "")
	p.CellFormat(35, 8, "Harga", "1", 0, "R", true, 0, "")
	p.CellFormat(35, 8, "Jumlah", "1", 1, "R", true, 0, "")

	p.SetFont("Arial", "", 10)
	for _, it := range inv.Items {
		lineTotal := it.Price.Mul(decimal.NewFromInt(int64(it.Qty)))
		p.CellFormat(80, 7, it.Name, "1", 0, "L", false, 0, "")
		p.CellFormat(20, 7, fmt.Sprintf("%d", it.Qty), "1", 0, "C", false, 0, "")
		p.CellFormat(20, 7, it.Unit, "1", 0, "C", false, 0, "")
		p.CellFormat(35, 7, FormatRupiah(it.Price), "1", 0, "R", false, 0, "")
		p.CellFormat(35, 7, FormatRupiah(lineTotal), "1", 1, "R", false, 0, "")
	}

	p.Ln(4)
}

func drawTotals(p *gofpdf.Fpdf, inv *model.Invoice) {
	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		p.SetFont("Arial", style, 10)
		p.CellFormat(120, 6, "", "", 0, "L", false, 0, "")
		p.CellFormat(40, 6, label, "", 0, "L", false, 0, "")
		p.CellFormat(30, 6, value, "", 1, "R", false, 0, "")
	}

	row("Subtotal", FormatRupiah(inv.Subtotal), false)
	if !inv.DiscountPercent.IsZero() {
		row(fmt.Sprintf("Diskon (%s%%)", inv.DiscountPercent.String()), "-"+FormatRupiah(inv.DiscountValue), false)
	}
	if inv.TaxEnabled {
		row(fmt.Sprintf("PPN (%s%%)", inv.TaxPercent.String()), FormatRupiah(inv.TaxValue), false)
	}
	row("Total", FormatRupiah(inv.Total), true)
}

func drawFooter(p *gofpdf.Fpdf, inv *model.Invoice) {
	p.Ln(8)
	p.SetFont("Arial", "", 10)
	p.CellFormat(0, 6, "Metode pembayaran: "+inv.PaymentMethod, "", 1, "L", false, 0, "")
	p.CellFormat(0, 6, "Status: "+inv.Status, "", 1, "L", false, 0, "")
}

// pdfImageType sniffs the decoded logo bytes and maps them onto the image
// types the renderer accepts. Unknown formats yield "" and the logo is skipped.
func pdfImageType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil {
		return ""
	}
	switch kind.Extension {
	case "png":
		return "PNG"
	case "jpg":
		return "JPG"
	case "gif":
		return "GIF"
	default:
		return ""
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
