package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/diewo77/invoice-api/httpx"
	"github.com/diewo77/invoice-api/internal/metrics"
	"github.com/diewo77/invoice-api/internal/render"
	"github.com/diewo77/invoice-api/internal/services"
	"github.com/gorilla/mux"
)

type InvoiceHandler struct {
	svc      *services.InvoiceService
	renderer *render.Renderer
	errs     Errors
}

func NewInvoiceHandler(svc *services.InvoiceService, renderer *render.Renderer, errs Errors) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, renderer: renderer, errs: errs}
}

// Mount registers the invoice routes. Fixed paths go first so they are not
// captured by /invoices/{id}.
func (h *InvoiceHandler) Mount(protected *mux.Router) {
	protected.HandleFunc("/invoices", h.List).Methods(http.MethodGet)
	protected.HandleFunc("/invoices", h.Create).Methods(http.MethodPost)
	protected.HandleFunc("/invoices/next-number", h.NextNumber).Methods(http.MethodGet)
	protected.HandleFunc("/invoices/delete/all", h.DeleteAll).Methods(http.MethodDelete)
	protected.HandleFunc("/invoices/{id}", h.Get).Methods(http.MethodGet)
	protected.HandleFunc("/invoices/{id}", h.Update).Methods(http.MethodPut)
	protected.HandleFunc("/invoices/{id}", h.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/invoices/{id}/download", h.Download).Methods(http.MethodGet)
	protected.HandleFunc("/invoices/{id}/preview", h.Preview).Methods(http.MethodGet)
}

// List: GET /invoices?search=
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.List(r.Context(), userID(r), r.URL.Query().Get("search"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

// Create: POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.InvoiceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	inv, err := h.svc.Create(r.Context(), userID(r), in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// NextNumber: GET /invoices/next-number
func (h *InvoiceHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.NextNumber(r.Context(), userID(r))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"invoiceNumber": n})
}

// Get: GET /invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Update: PUT /invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.InvoiceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	inv, err := h.svc.Update(r.Context(), userID(r), mux.Vars(r)["id"], in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: DELETE /invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Invoice deleted successfully")
}

// DeleteAll: DELETE /invoices/delete/all
func (h *InvoiceHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DeleteAll(r.Context(), userID(r))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "All invoices deleted successfully",
		"deleted": n,
	})
}

// Download: GET /invoices/{id}/download
func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	pdf, name, err := h.renderer.PDF(r.Context(), inv)
	metrics.ObserveRender(h.renderer.Engine(), err)
	if err != nil {
		h.errs.Write(w, r, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// Preview: GET /invoices/{id}/preview
func (h *InvoiceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	page, err := h.renderer.HTML(inv)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
