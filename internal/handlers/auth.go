package handlers

import (
	"net/http"

	"github.com/diewo77/invoice-api/httpx"
	"github.com/diewo77/invoice-api/internal/models"
	"github.com/diewo77/invoice-api/internal/services"
	"github.com/gorilla/mux"
)

type AuthHandler struct {
	svc  *services.AuthService
	errs Errors
}

func NewAuthHandler(svc *services.AuthService, errs Errors) *AuthHandler {
	return &AuthHandler{svc: svc, errs: errs}
}

// Mount registers the public auth routes on public and the profile routes on protected.
func (h *AuthHandler) Mount(public, protected *mux.Router) {
	public.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	public.HandleFunc("/auth/forgot-password", h.ForgotPassword).Methods(http.MethodPost)
	public.HandleFunc("/auth/reset-password", h.ResetPassword).Methods(http.MethodPost)
	protected.HandleFunc("/auth/profile", h.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/auth/profile", h.UpdateProfile).Methods(http.MethodPut)
}

// Register: POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	sess, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sess)
}

// Login: POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	sess, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

// ForgotPassword: POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), in.Email, r.Header.Get("Origin")); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Password reset link sent to your email.")
}

// ResetPassword: POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.svc.CompletePasswordReset(r.Context(), in.Token, in.Password); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Password has been reset")
}

// Profile: GET /auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetProfile(r.Context(), userID(r))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// UpdateProfile: PUT /auth/profile with {"companyProfile": {...}}
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CompanyProfile models.CompanyProfile `json:"companyProfile"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	user, err := h.svc.UpdateProfile(r.Context(), userID(r), in.CompanyProfile)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
