package web

import (
	"fmt"
	"net/http"

	"invoice-marshal/internal/app"
	"invoice-marshal/internal/core"
)

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	var status *core.InvoiceStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := core.InvoiceStatus(s)
		switch st {
		case core.StatusPending, core.StatusPartiallyPaid, core.StatusPaid, core.StatusOverdue, core.StatusEmailed:
			status = &st
		default:
			writeError(w, r, fmt.Sprintf("unknown status %q", s), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}

	invoices, err := h.svc.ListInvoices(r.Context(), userIDFromContext(r.Context()), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	writeJSON(w, invoices)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.InvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.CreateInvoice(r.Context(), userIDFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.GetInvoice(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.InvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.UpdateInvoice(r.Context(), userIDFromContext(r.Context()), id, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteInvoice(r.Context(), userIDFromContext(r.Context()), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markInvoicePaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.MarkInvoicePaid(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

func (h *Handler) sendReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.SendReminder(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.svc.RenderInvoicePDF(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline")
	_, _ = w.Write(out)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.ListPayments(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if payments == nil {
		payments = []core.Payment{}
	}
	writeJSON(w, payments)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.RecordPayment(r.Context(), userIDFromContext(r.Context()), id, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

func (h *Handler) refreshStatuses(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.RefreshStatuses(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]int{"refreshed": n})
}
