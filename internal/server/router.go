// Package server assembles the HTTP router and server.
package server

import (
	"net/http"

	"github.com/diewo77/invoice-api/auth"
	"github.com/diewo77/invoice-api/internal/config"
	"github.com/diewo77/invoice-api/internal/handlers"
	"github.com/diewo77/invoice-api/internal/metrics"
	"github.com/diewo77/invoice-api/internal/middleware"
	"github.com/diewo77/invoice-api/internal/render"
	"github.com/diewo77/invoice-api/internal/services"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	App      config.AppConfig
	Log      zerolog.Logger
	Tokens   *auth.JWTManager
	Store    handlers.Pinger
	Auth     *services.AuthService
	Clients  *services.ClientService
	Invoices *services.InvoiceService
	Renderer *render.Renderer
}

// New constructs the root http.Handler with all routes and middlewares applied.
//
// Every API route lives under /api. Unmatched paths, and paths hit with the
// wrong method, answer with the JSON not-found body.
func New(d Deps) http.Handler {
	errs := handlers.Errors{Log: d.Log, Production: d.App.Production()}
	notFound := middleware.Metrics(http.HandlerFunc(handlers.NotFound))

	root := mux.NewRouter()
	root.NotFoundHandler = notFound
	root.MethodNotAllowedHandler = notFound
	root.Use(middleware.Metrics)

	health := handlers.NewHealth(d.Store, d.Log)
	root.HandleFunc("/", handlers.Banner).Methods(http.MethodGet)
	root.HandleFunc("/health", health.Live).Methods(http.MethodGet)
	root.HandleFunc("/healthz", health.Ready).Methods(http.MethodGet)
	root.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := root.PathPrefix("/api").Subrouter()
	protected := api.NewRoute().Subrouter()
	protected.Use(auth.RequireAuth)

	handlers.NewAuthHandler(d.Auth, errs).Mount(api, protected)
	handlers.NewClientHandler(d.Clients, errs).Mount(protected)
	handlers.NewInvoiceHandler(d.Invoices, d.Renderer, errs).Mount(protected)

	return middleware.Chain(
		middleware.RequestID,
		middleware.CORS(middleware.DefaultCORS(d.App.CORSOrigins)),
		auth.Middleware(d.Tokens),
		middleware.Logger(d.Log),
		middleware.Recovery(d.Log, d.App.Production()),
	)(root)
}

// NewHTTPServer applies the configured timeouts to h.
func NewHTTPServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
