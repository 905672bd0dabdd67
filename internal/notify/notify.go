// Package notify sends invoice lifecycle email to clients.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"invoice-marshal/internal/core"
)

// Kind selects the email template.
type Kind string

const (
	KindCreated  Kind = "created"
	KindUpdated  Kind = "updated"
	KindReminder Kind = "reminder"
)

// TemplateData carries the variables the email templates interpolate.
type TemplateData struct {
	ClientName    string
	InvoiceNumber int
	DueDate       string // long-format date, e.g. "March 31, 2026"
	Amount        string // pre-formatted via core.FormatAmount
	Link          string
	SenderName    string
}

// Notifier delivers an invoice email to a client address. Implementations
// must be safe for concurrent use; callers fire sends from goroutines and
// only log failures.
type Notifier interface {
	SendInvoiceEmail(ctx context.Context, kind Kind, to string, data TemplateData) error
}

// InvoiceTemplateData assembles TemplateData from an invoice and the optional
// company profile.
func InvoiceTemplateData(inv *core.Invoice, company *core.Company, appURL string) TemplateData {
	senderName, _ := core.SenderIdentity(company, inv)
	return TemplateData{
		ClientName:    inv.ClientName,
		InvoiceNumber: inv.InvoiceNumber,
		DueDate:       inv.DueDate().Format("January 2, 2006"),
		Amount:        core.FormatAmount(inv.Total, inv.Currency),
		Link:          fmt.Sprintf("%s/api/invoices/%d/pdf", appURL, inv.ID),
		SenderName:    senderName,
	}
}

var subjects = map[Kind]string{
	KindCreated:  "Invoice #%d from %s",
	KindUpdated:  "Invoice #%d from %s (updated)",
	KindReminder: "Reminder: invoice #%d from %s",
}

// Subject renders the per-kind subject line.
func Subject(kind Kind, data TemplateData) string {
	f, ok := subjects[kind]
	if !ok {
		f = subjects[KindCreated]
	}
	return fmt.Sprintf(f, data.InvoiceNumber, data.SenderName)
}

var bodyTmpl = template.Must(template.New("invoice_email").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Invoice #{{.Data.InvoiceNumber}}</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #374151; background-color: #f9fafb; margin: 0; padding: 24px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; padding: 32px;">
    <h1 style="color: #3b82f6; margin-top: 0;">Invoice #{{.Data.InvoiceNumber}}</h1>
    <p>Dear {{.Data.ClientName}},</p>
    {{if eq .Kind "created"}}
    <p>{{.Data.SenderName}} has sent you a new invoice.</p>
    {{else if eq .Kind "updated"}}
    <p>{{.Data.SenderName}} has updated an invoice addressed to you. The latest version is below.</p>
    {{else}}
    <p>This is a friendly reminder that the following invoice from {{.Data.SenderName}} is awaiting payment.</p>
    {{end}}
    <table style="width: 100%; margin: 16px 0;">
      <tr><td style="color: #6b7280;">Invoice number</td><td style="text-align: right;">#{{.Data.InvoiceNumber}}</td></tr>
      <tr><td style="color: #6b7280;">Amount due</td><td style="text-align: right; font-weight: bold;">{{.Data.Amount}}</td></tr>
      <tr><td style="color: #6b7280;">Due date</td><td style="text-align: right;">{{.Data.DueDate}}</td></tr>
    </table>
    <p style="text-align: center; margin: 24px 0;">
      <a href="{{.Data.Link}}" style="background: #3b82f6; color: white; padding: 12px 24px; border-radius: 6px; text-decoration: none;">View invoice</a>
    </p>
    <p style="color: #9ca3af; font-size: 12px;">Thank you for your business!</p>
  </div>
</body>
</html>`))

// RenderBody renders the HTML body for the given kind.
func RenderBody(kind Kind, data TemplateData) (string, error) {
	var buf bytes.Buffer
	err := bodyTmpl.Execute(&buf, struct {
		Kind Kind
		Data TemplateData
	}{kind, data})
	if err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", kind, err)
	}
	return buf.String(), nil
}
