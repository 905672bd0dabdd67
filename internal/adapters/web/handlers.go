package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"invoice-marshal/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/signup", h.signup)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected ─────────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/auth/me", h.me)
		r.Post("/api/onboarding", h.onboard)

		r.Get("/api/company", h.getCompany)
		r.Put("/api/company", h.saveCompany)

		r.Get("/api/dashboard", h.dashboard)

		r.Get("/api/invoices", h.listInvoices)
		r.Post("/api/invoices", h.createInvoice)
		r.Post("/api/invoices/refresh-statuses", h.refreshStatuses)
		r.Get("/api/invoices/{id}", h.getInvoice)
		r.Put("/api/invoices/{id}", h.updateInvoice)
		r.Delete("/api/invoices/{id}", h.deleteInvoice)
		r.Post("/api/invoices/{id}/paid", h.markInvoicePaid)
		r.Post("/api/invoices/{id}/email", h.sendReminder)
		r.Get("/api/invoices/{id}/pdf", h.invoicePDF)
		r.Get("/api/invoices/{id}/payments", h.listPayments)
		r.Post("/api/invoices/{id}/payments", h.recordPayment)

		r.Get("/api/products", h.listProducts)
		r.Post("/api/products", h.createProduct)
		r.Get("/api/products/low-stock", h.listLowStock)
		r.Get("/api/products/{id}", h.getProduct)
		r.Put("/api/products/{id}", h.updateProduct)
		r.Delete("/api/products/{id}", h.deleteProduct)
		r.Post("/api/products/{id}/stock", h.setProductStock)
		r.Get("/api/products/{id}/variations", h.listVariations)
		r.Post("/api/products/{id}/variations", h.createVariation)
		r.Put("/api/variations/{id}", h.updateVariation)
		r.Delete("/api/variations/{id}", h.deleteVariation)
	})

	h.router = r
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// pathID extracts the {id} URL parameter as an int; writes a 400 and returns
// false when it is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v. Returns HTTP 413 when the body
// exceeds the RequestBodyLimit cap; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// ── Account & company ─────────────────────────────────────────────────────────

func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	var req app.OnboardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.svc.OnboardUser(r.Context(), userIDFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.GetCompany(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, company)
}

func (h *Handler) saveCompany(w http.ResponseWriter, r *http.Request) {
	var req app.CompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	company, err := h.svc.SaveCompany(r.Context(), userIDFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, company)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, stats)
}
