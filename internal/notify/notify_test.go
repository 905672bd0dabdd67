package notify_test

import (
	"strings"
	"testing"
	"time"

	"invoice-marshal/internal/core"
	"invoice-marshal/internal/notify"

	"github.com/shopspring/decimal"
)

func sampleData() notify.TemplateData {
	inv := &core.Invoice{
		ID:            7,
		InvoiceNumber: 42,
		IssueDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDays:       30,
		Currency:      core.CurrencyUSD,
		Total:         decimal.NewFromFloat(1234.50),
		ClientName:    "Acme Corp",
		FromName:      "Jan Marshall",
		FromEmail:     "jan@example.com",
	}
	return notify.InvoiceTemplateData(inv, nil, "https://billing.example")
}

func TestInvoiceTemplateData(t *testing.T) {
	data := sampleData()
	if data.DueDate != "March 31, 2026" {
		t.Errorf("Expected due date 'March 31, 2026', got %q", data.DueDate)
	}
	if data.Amount != "$1,234.50" {
		t.Errorf("Expected amount '$1,234.50', got %q", data.Amount)
	}
	if data.Link != "https://billing.example/api/invoices/7/pdf" {
		t.Errorf("Unexpected link %q", data.Link)
	}
	if data.SenderName != "Jan Marshall" {
		t.Errorf("Expected invoice from-name without company, got %q", data.SenderName)
	}
}

func TestInvoiceTemplateData_CompanySender(t *testing.T) {
	inv := &core.Invoice{InvoiceNumber: 1, FromName: "Jan", FromEmail: "jan@example.com", Currency: core.CurrencyUSD}
	company := &core.Company{Name: "Marshall Consulting", Email: "billing@marshall.example"}
	data := notify.InvoiceTemplateData(inv, company, "https://billing.example")
	if data.SenderName != "Marshall Consulting" {
		t.Errorf("Expected company name as sender, got %q", data.SenderName)
	}
}

func TestRenderBody(t *testing.T) {
	data := sampleData()

	for _, kind := range []notify.Kind{notify.KindCreated, notify.KindUpdated, notify.KindReminder} {
		body, err := notify.RenderBody(kind, data)
		if err != nil {
			t.Fatalf("RenderBody(%s) failed: %v", kind, err)
		}
		for _, want := range []string{"Acme Corp", "#42", "$1,234.50", "March 31, 2026", data.Link} {
			if !strings.Contains(body, want) {
				t.Errorf("%s body missing %q", kind, want)
			}
		}
	}

	reminder, _ := notify.RenderBody(notify.KindReminder, data)
	if !strings.Contains(reminder, "reminder") {
		t.Error("Reminder body should mention it is a reminder")
	}
}

func TestSubject(t *testing.T) {
	data := sampleData()
	if got := notify.Subject(notify.KindCreated, data); got != "Invoice #42 from Jan Marshall" {
		t.Errorf("Unexpected created subject %q", got)
	}
	if got := notify.Subject(notify.KindReminder, data); got != "Reminder: invoice #42 from Jan Marshall" {
		t.Errorf("Unexpected reminder subject %q", got)
	}
}
