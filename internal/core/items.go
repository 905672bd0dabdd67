package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseInvoiceItems decodes the serialized line-item payload submitted with an
// invoice form. The wire format is a JSON array of line objects. Anything that
// fails to decode is rejected with MalformedPayloadError rather than silently
// coerced; field-level problems surface as ValidationError.
func ParseInvoiceItems(raw string) ([]InvoiceItemInput, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ValidationError{Field: "items", Message: "at least one item is required"}
	}

	var items []InvoiceItemInput
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, &MalformedPayloadError{Reason: fmt.Sprintf("invalid invoice items: %v", err)}
	}
	if dec.More() {
		return nil, &MalformedPayloadError{Reason: "trailing data after invoice items"}
	}

	if err := ValidateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

// ValidateItems enforces the per-line rules shared by the create and edit
// paths: non-empty description, quantity >= 1, rate >= 0, and a variation
// reference only alongside a product reference.
func ValidateItems(items []InvoiceItemInput) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Message: "at least one item is required"}
	}
	for i, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			return &ValidationError{Field: fmt.Sprintf("items[%d].description", i), Message: "description is required"}
		}
		if it.Quantity < 1 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be at least 1"}
		}
		if it.Rate.IsNegative() {
			return &ValidationError{Field: fmt.Sprintf("items[%d].rate", i), Message: "rate must be 0 or greater"}
		}
		if it.VariationID != nil && it.ProductID == nil {
			return &ValidationError{Field: fmt.Sprintf("items[%d].variation_id", i), Message: "variation requires a product"}
		}
	}
	return nil
}

// ItemsTotal computes the invoice total as the sum of quantity × rate over all
// lines. This is the authoritative total; client-submitted totals are ignored.
func ItemsTotal(items []InvoiceItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Rate.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
