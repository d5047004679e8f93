package handlers

import (
	"net/http"

	"github.com/diewo77/invoice-api/httpx"
	"github.com/diewo77/invoice-api/internal/services"
	"github.com/gorilla/mux"
)

type ClientHandler struct {
	svc  *services.ClientService
	errs Errors
}

func NewClientHandler(svc *services.ClientService, errs Errors) *ClientHandler {
	return &ClientHandler{svc: svc, errs: errs}
}

func (h *ClientHandler) Mount(protected *mux.Router) {
	protected.HandleFunc("/clients", h.List).Methods(http.MethodGet)
	protected.HandleFunc("/clients", h.Create).Methods(http.MethodPost)
	protected.HandleFunc("/clients/{id}", h.Update).Methods(http.MethodPut)
}

// List: GET /clients, sorted by name.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.List(r.Context(), userID(r))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

// Create: POST /clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ClientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	c, err := h.svc.Create(r.Context(), userID(r), in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

// Update: PUT /clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.ClientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	c, err := h.svc.Update(r.Context(), userID(r), mux.Vars(r)["id"], in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
