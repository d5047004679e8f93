package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/invoice-api/auth"
	"github.com/diewo77/invoice-api/internal/db"
	"github.com/diewo77/invoice-api/internal/mail"
	"github.com/diewo77/invoice-api/internal/render"
	"github.com/diewo77/invoice-api/internal/services"
	"github.com/diewo77/invoice-api/internal/store/gormstore"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testAPI struct {
	router http.Handler
	mailer *mail.Recorder
}

func newTestAPI(t *testing.T) *testAPI {
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
	mailer := &mail.Recorder{}
	tokens := auth.NewJWTManager("test-secret", "invoice-api", time.Hour)
	authSvc := services.NewAuthService(st, tokens, mailer, "http://app.test", time.Hour, log)
	html, err := render.NewHTMLRenderer()
	require.NoError(t, err)
	renderer := render.New(html, render.NewNativePDFRenderer(), render.Assets{}, render.Options{})
	errs := Errors{Log: log}

	root := mux.NewRouter()
	root.NotFoundHandler = http.HandlerFunc(NotFound)
	api := root.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(tokens))
	protected := api.NewRoute().Subrouter()
	protected.Use(auth.RequireAuth)

	NewAuthHandler(authSvc, errs).Mount(api, protected)
	NewClientHandler(services.NewClientService(st), errs).Mount(protected)
	NewInvoiceHandler(services.NewInvoiceService(st, log), renderer, errs).Mount(protected)
	return &testAPI{router: root, mailer: mailer}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) signUp(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    email,
		"password": "secret123",
		"companyProfile": map[string]string{
			"name": "Issuer Pty", "bankName": "Bank", "accountName": "Issuer", "accountNumber": "123", "bsb": "062-000",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["token"].(string)
}

func invoiceBody(number, customer string, totals ...float64) map[string]any {
	items := []map[string]any{}
	for i, tot := range totals {
		items = append(items, map[string]any{
			"description": fmt.Sprintf("line %d", i+1), "quantity": 1, "unitPrice": tot, "total": tot,
		})
	}
	return map[string]any{
		"invoiceNumber":   number,
		"dueDate":         "2025-07-01",
		"customerDetails": map[string]string{"name": customer, "email": "ap@customer.test"},
		"items":           items,
	}
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "Jane@Example.com")
	assert.NotEmpty(t, token)

	w := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "jane@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"already_exists","message":"User already exists"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid_credentials","message":"Invalid credentials"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "JANE@example.com ", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	sess := decode[map[string]any](t, w)
	assert.NotEmpty(t, sess["token"])
	assert.NotContains(t, w.Body.String(), "password")

	w = api.do(t, http.MethodPost, "/api/auth/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_json", decode[map[string]any](t, w)["error"])
}

func TestProfileRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/invoices", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := api.signUp(t, "a@example.com")
	w = api.do(t, http.MethodPut, "/api/auth/profile", token, map[string]any{
		"companyProfile": map[string]string{"name": "Renamed Pty", "abn": "99"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[map[string]any](t, w)["companyProfile"].(map[string]any)
	assert.Equal(t, "Renamed Pty", profile["name"])
	assert.Equal(t, "", profile["bankName"])
}

func TestPasswordResetFlow(t *testing.T) {
	api := newTestAPI(t)
	api.signUp(t, "reset@example.com")

	w := api.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"User not found"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "reset@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Password reset link sent to your email."}`, w.Body.String())

	msgs := api.mailer.Messages()
	require.Len(t, msgs, 1)
	link, err := url.Parse(msgs[0].Link)
	require.NoError(t, err)
	assert.Equal(t, "app.test", link.Host)
	token := link.Query().Get("token")

	w = api.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": token, "password": "newpass"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Password has been reset"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": token, "password": "again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid_reset_token","message":"Token is invalid or has expired"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "reset@example.com", "password": "newpass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientRoutes(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp(t, "alice@example.com")
	bob := api.signUp(t, "bob@example.com")

	w := api.do(t, http.MethodPost, "/api/clients", alice, map[string]string{"name": "Zeta"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	zeta := decode[map[string]any](t, w)
	w = api.do(t, http.MethodPost, "/api/clients", alice, map[string]string{"name": "Alpha"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodPost, "/api/clients", alice, map[string]string{"name": "Zeta"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"already_exists","message":"Client with this name already exists"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/clients", alice, map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, map[string]any{"name": "required"}, body["details"])

	w = api.do(t, http.MethodGet, "/api/clients", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0]["name"])

	w = api.do(t, http.MethodGet, "/api/clients", bob, nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = api.do(t, http.MethodPut, "/api/clients/"+zeta["id"].(string), bob, map[string]string{"name": "Stolen"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"Client not found"}`, w.Body.String())

	w = api.do(t, http.MethodPut, "/api/clients/"+zeta["id"].(string), alice, map[string]string{"name": "Zeta", "email": "Z@Zeta.test"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "z@zeta.test", decode[map[string]any](t, w)["email"])
}

func TestInvoiceRoutes(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp(t, "alice@example.com")
	bob := api.signUp(t, "bob@example.com")

	w := api.do(t, http.MethodGet, "/api/invoices/next-number", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"invoiceNumber":"INV-001"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/invoices", alice, invoiceBody("INV-001", "Acme", 60, 40))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[map[string]any](t, w)
	id := inv["id"].(string)
	assert.Equal(t, float64(100), inv["totalAmount"])
	assert.Equal(t, float64(100), inv["subtotal"])
	assert.Equal(t, "Draft", inv["status"])
	assert.Equal(t, "AUD", inv["currency"])
	assert.Equal(t, "Issuer Pty", inv["companyDetails"].(map[string]any)["name"])

	w = api.do(t, http.MethodPost, "/api/invoices", alice, invoiceBody("INV-002", "Globex", 5))
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodPost, "/api/invoices", bob, invoiceBody("INV-001", "Acme", 1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invoice number already exists", decode[map[string]any](t, w)["message"])

	w = api.do(t, http.MethodGet, "/api/invoices?search=acm", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]map[string]any](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "INV-001", found[0]["invoiceNumber"])
	assert.Equal(t, "Acme", found[0]["client"].(map[string]any)["name"])

	w = api.do(t, http.MethodGet, "/api/invoices", alice, nil)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	w = api.do(t, http.MethodGet, "/api/invoices/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"Invoice not found"}`, w.Body.String())

	update := invoiceBody("INV-001", "Acme", 10, 20, 30)
	update["status"] = "Paid"
	w = api.do(t, http.MethodPut, "/api/invoices/"+id, alice, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[map[string]any](t, w)
	assert.Equal(t, float64(60), updated["totalAmount"])
	assert.Equal(t, "Paid", updated["status"])
	assert.Len(t, updated["items"], 3)

	w = api.do(t, http.MethodGet, "/api/invoices/"+id+"/download", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Invoice-INV-001.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = api.do(t, http.MethodGet, "/api/invoices/"+id+"/download", bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/invoices/"+id+"/preview", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "PAYMENT ADVICE")
	assert.Contains(t, w.Body.String(), "$60.00")

	w = api.do(t, http.MethodDelete, "/api/invoices/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(t, http.MethodDelete, "/api/invoices/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Invoice deleted successfully"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/invoices", bob, invoiceBody("B-1", "Initech", 7))
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodDelete, "/api/invoices/delete/all", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"All invoices deleted successfully","deleted":1}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/invoices", bob, nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
}

func TestInvoiceValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "v@example.com")

	body := invoiceBody("", "", 10)
	body["items"] = []any{}
	body["status"] = "Lost"
	w := api.do(t, http.MethodPost, "/api/invoices", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "validation_failed", resp["error"])
	details := resp["details"].(map[string]any)
	for _, f := range []string{"invoiceNumber", "customerDetails.name", "items", "status"} {
		assert.Contains(t, details, f)
	}

	body = invoiceBody("X-1", "Acme", 10)
	body["dueDate"] = "next tuesday"
	w = api.do(t, http.MethodPost, "/api/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_json", decode[map[string]any](t, w)["error"])
}

func TestUnknownPath(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"Path not found: /api/nope","suggestion":"Check your routes and method (GET/POST/PUT/DELETE)"}`, w.Body.String())
}

func TestErrorsWriteUnexpected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)

	w := httptest.NewRecorder()
	Errors{Log: zerolog.Nop()}.Write(w, req, errors.New("connection reset by peer"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "connection reset by peer", body["error"])
	assert.Equal(t, "connection reset by peer", body["message"])
	assert.NotEmpty(t, body["stack"])

	w = httptest.NewRecorder()
	Errors{Log: zerolog.Nop(), Production: true}.Write(w, req, errors.New("connection reset by peer"))
	assert.JSONEq(t, `{"error":"connection reset by peer","message":"connection reset by peer"}`, w.Body.String())

	status, code := Status(fmt.Errorf("render: %w", render.ErrRenderTimeout))
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "render_timeout", code)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealth(fakePinger{}, zerolog.Nop()).Live(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	NewHealth(fakePinger{}, zerolog.Nop()).Ready(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	NewHealth(fakePinger{err: errors.New("down")}, zerolog.Nop()).Ready(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded"}`, w.Body.String())
}
