// Package handlers holds the JSON HTTP handlers of the API.
package handlers

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/diewo77/invoice-api/auth"
	"github.com/diewo77/invoice-api/httpx"
	"github.com/diewo77/invoice-api/internal/domain"
	"github.com/diewo77/invoice-api/internal/render"
	"github.com/rs/zerolog"
)

// Errors writes error responses. Outside production unexpected errors carry
// a stack trace.
type Errors struct {
	Log        zerolog.Logger
	Production bool
}

// kinds maps domain sentinels to a status and a stable error code.
var kinds = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{domain.ErrAlreadyExists, http.StatusBadRequest, "already_exists"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
	{domain.ErrInvalidResetToken, http.StatusBadRequest, "invalid_reset_token"},
	{httpx.ErrBadJSON, http.StatusBadRequest, "invalid_json"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{render.ErrRenderTimeout, http.StatusGatewayTimeout, "render_timeout"},
}

// Status reports the HTTP status and error code for err.
func Status(err error) (int, string) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, ""
}

func (e Errors) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Status(err)
	if status != http.StatusInternalServerError {
		body := httpx.ErrorResponse{Error: code, Message: message(err)}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			body.Details = verr.Violations
		}
		httpx.JSON(w, status, body)
		return
	}

	uid, _ := auth.UserIDFromContext(r.Context())
	e.Log.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("user_id", uid).
		Msg("request failed")
	body := httpx.ErrorResponse{Error: err.Error(), Message: err.Error()}
	if !e.Production {
		body.Stack = string(debug.Stack())
	}
	httpx.JSON(w, status, body)
}

// message prefers the caller-facing text of a domain.Error.
func message(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return "Validation failed"
	}
	if errors.Is(err, httpx.ErrBadJSON) {
		return "Request body must be valid JSON"
	}
	return err.Error()
}

// userID returns the authenticated caller. Routes reaching it sit behind auth.RequireAuth.
func userID(r *http.Request) string {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}
