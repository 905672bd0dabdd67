package core

import "fmt"

// ValidationError reports a malformed or missing required field. It is
// recoverable by the caller re-prompting with corrected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing resource, including an ownership mismatch —
// an invoice that exists but belongs to another user is reported not found, so
// the error never leaks another user's data.
type NotFoundError struct {
	Resource string // "invoice", "product", "variation", ...
	Ref      string
}

func (e *NotFoundError) Error() string {
	if e.Ref == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.Ref)
}

// NewNotFound builds a NotFoundError for a resource identified by a numeric id.
func NewNotFound(resource string, id int) *NotFoundError {
	return &NotFoundError{Resource: resource, Ref: fmt.Sprintf("%d", id)}
}

// InsufficientStockError reports a stock reservation that would drive a tracked
// product's quantity negative. The message carries available vs requested.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// MalformedPayloadError reports a submitted payload that failed strict parsing
// (e.g. an unparsable serialized item list). Terminal for the request.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return "malformed payload: " + e.Reason
}
