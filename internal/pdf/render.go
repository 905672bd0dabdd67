// Package pdf renders invoices as A4 PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"invoice-marshal/internal/core"
)

// RenderInvoice produces the printable PDF for an invoice. When a company
// profile is present its name, email and address replace the invoice's
// from-fields in the FROM block.
func RenderInvoice(inv *core.Invoice, company *core.Company) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	// Header band
	doc.SetFillColor(59, 130, 246)
	doc.Rect(0, 0, 210, 40, "F")

	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 28)
	doc.Text(20, 25, "INVOICE")
	doc.SetFontSize(16)
	doc.Text(20, 35, fmt.Sprintf("#%d", inv.InvoiceNumber))

	doc.SetFontSize(10)
	doc.Text(120, 20, "Date: "+inv.IssueDate.Format("Jan 2, 2006"))
	doc.Text(120, 30, fmt.Sprintf("Due: Net %d days", inv.DueDays))

	// Sender block, company profile first
	fromName, fromEmail, fromAddress := inv.FromName, inv.FromEmail, inv.FromAddress
	if company != nil {
		if company.Name != "" {
			fromName = company.Name
		}
		if company.Email != "" {
			fromEmail = company.Email
		}
		if company.Address != "" {
			fromAddress = company.Address
		}
	}

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 12)
	doc.Text(20, 55, "FROM")
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(75, 85, 99)
	doc.Text(20, 62, tr(fromName))
	doc.Text(20, 68, tr(fromEmail))
	doc.Text(20, 74, tr(fromAddress))

	doc.SetFont("Helvetica", "B", 12)
	doc.SetTextColor(0, 0, 0)
	doc.Text(110, 55, "BILL TO")
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(75, 85, 99)
	doc.Text(110, 62, tr(inv.ClientName))
	doc.Text(110, 68, tr(inv.ClientEmail))
	doc.Text(110, 74, tr(inv.ClientAddress))

	// Item table
	tableStartY := 90.0
	doc.SetFillColor(245, 245, 245)
	doc.Rect(20, tableStartY-5, 170, 10, "F")

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 10)
	doc.Text(25, tableStartY, "DESCRIPTION")
	doc.Text(120, tableStartY, "QTY")
	doc.Text(140, tableStartY, "RATE")
	rightText(doc, 170, tableStartY, "TOTAL")

	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(75, 85, 99)

	y := tableStartY + 10
	for _, item := range inv.Items {
		doc.Text(25, y, tr(item.Description))
		doc.Text(120, y, fmt.Sprintf("%d", item.Quantity))
		doc.Text(140, y, tr(core.FormatAmount(item.Rate, inv.Currency)))
		rightText(doc, 170, y, tr(core.FormatAmount(item.Subtotal(), inv.Currency)))
		y += 15
	}

	doc.SetDrawColor(200, 200, 200)
	doc.Rect(20, tableStartY-5, 170, y-tableStartY+5, "D")

	// Totals
	totalY := y + 10
	doc.SetDrawColor(59, 130, 246)
	doc.SetLineWidth(0.5)
	doc.Line(20, totalY, 190, totalY)

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "", 10)
	doc.Text(140, totalY+10, "Subtotal:")
	rightText(doc, 190, totalY+10, tr(core.FormatAmount(inv.Total, inv.Currency)))

	doc.SetFillColor(59, 130, 246)
	doc.Rect(130, totalY+15, 60, 12, "F")
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 12)
	doc.Text(135, totalY+23, fmt.Sprintf("TOTAL (%s)", inv.Currency))
	rightText(doc, 190, totalY+23, tr(core.FormatAmount(inv.Total, inv.Currency)))

	if inv.Note != "" {
		doc.SetTextColor(0, 0, 0)
		doc.SetFont("Helvetica", "B", 11)
		doc.Text(20, totalY+45, "NOTES")
		doc.SetFont("Helvetica", "", 9)
		doc.SetTextColor(75, 85, 99)
		doc.Text(20, totalY+52, tr(inv.Note))
	}

	// Footer
	doc.SetTextColor(150, 150, 150)
	doc.SetFont("Helvetica", "I", 8)
	centerText(doc, 105, 280, "Thank you for your business!")
	centerText(doc, 105, 285, "Generated on "+time.Now().Format("1/2/2006"))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func rightText(doc *fpdf.Fpdf, x, y float64, s string) {
	doc.Text(x-doc.GetStringWidth(s), y, s)
}

func centerText(doc *fpdf.Fpdf, x, y float64, s string) {
	doc.Text(x-doc.GetStringWidth(s)/2, y, s)
}
