package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/invoice-api/auth"
	"github.com/diewo77/invoice-api/internal/config"
	"github.com/diewo77/invoice-api/internal/db"
	"github.com/diewo77/invoice-api/internal/mail"
	"github.com/diewo77/invoice-api/internal/render"
	"github.com/diewo77/invoice-api/internal/services"
	"github.com/diewo77/invoice-api/internal/store/gormstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	st := gormstore.New(gdb)
	t.Cleanup(func() { _ = st.Close() })

	log := zerolog.Nop()
	tokens := auth.NewJWTManager("test-secret", "invoice-api", time.Hour)
	html, err := render.NewHTMLRenderer()
	require.NoError(t, err)
	return New(Deps{
		App:      config.AppConfig{Env: "development", CORSOrigins: []string{"http://localhost:5173"}},
		Log:      log,
		Tokens:   tokens,
		Store:    st,
		Auth:     services.NewAuthService(st, tokens, &mail.Recorder{}, "", time.Hour, log),
		Clients:  services.NewClientService(st),
		Invoices: services.NewInvoiceService(st, log),
		Renderer: render.New(html, render.NewNativePDFRenderer(), render.Assets{}, render.Options{}),
	})
}

func serve(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t)

	w := serve(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = serve(h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(h, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")

	w = serve(h, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "invoiceapi_http_requests_total")
}

func TestNotFound(t *testing.T) {
	h := newTestRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/api/unknown"},
		{http.MethodPatch, "/api/invoices"},
	} {
		w := serve(h, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "not_found", body["error"])
		assert.Equal(t, "Path not found: "+tc.path, body["message"])
		assert.Equal(t, "Check your routes and method (GET/POST/PUT/DELETE)", body["suggestion"])
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/api/invoices", "/api/clients", "/api/auth/profile", "/api/invoices/next-number"} {
		w := serve(h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/invoices", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEndToEndInvoiceDownload(t *testing.T) {
	h := newTestRouter(t)

	w := serve(h, http.MethodPost, "/api/auth/register", "", `{"email":"e2e@example.com","password":"pw","companyProfile":{"name":"E2E Pty"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))

	w = serve(h, http.MethodPost, "/api/invoices", sess.Token, `{
		"invoiceNumber": "E2E-1",
		"dueDate": "2025-08-01",
		"customerDetails": {"name": "Acme"},
		"items": [{"description": "Work", "quantity": 2, "unitPrice": 50, "total": 100}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv struct {
		ID          string  `json:"id"`
		TotalAmount float64 `json:"totalAmount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
	assert.Equal(t, 100.0, inv.TotalAmount)

	w = serve(h, http.MethodGet, "/api/invoices/"+inv.ID+"/download", sess.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Invoice-E2E-1.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))

	w = serve(h, http.MethodGet, "/metrics", "", "")
	assert.Contains(t, w.Body.String(), `invoiceapi_invoices_rendered_total{engine="native",result="ok"}`)
	assert.Contains(t, w.Body.String(), `path="/api/invoices/{id}/download"`)
}

func TestNewHTTPServer(t *testing.T) {
	srv := NewHTTPServer(config.ServerConfig{Port: "8080", ReadTimeout: time.Second, WriteTimeout: 2 * time.Second, IdleTimeout: 3 * time.Second}, http.NotFoundHandler())
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
}
