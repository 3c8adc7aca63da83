package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/debtbook/internal/middleware"
)

// RouteRegistrar mounts routes on a router.
type RouteRegistrar interface {
	Register(r *mux.Router)
}

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	API    *Handler
	Logger *slog.Logger

	// Gate authenticates /api requests, answering 401 when it cannot.
	Gate mux.MiddlewareFunc
	// Identify attaches the user when present without rejecting the request.
	Identify mux.MiddlewareFunc
	// Login serves the browser login flow. Nil when authentication is disabled.
	Login RouteRegistrar

	Metrics        *middleware.Metrics
	MetricsHandler http.Handler

	// StaticDir holds the built web client. Empty disables static serving.
	StaticDir string
}

// NewRouter builds the application router.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.HandleFunc("/healthz", Health).Methods(http.MethodGet)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}

	if cfg.Login != nil {
		cfg.Login.Register(r)
	}

	r.Handle("/api/userinfo", cfg.Identify(http.HandlerFunc(UserInfo))).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(cfg.Gate)
	cfg.API.Register(api)
	api.NotFoundHandler = cfg.Gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	}))
	api.MethodNotAllowedHandler = cfg.Gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	}))

	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(newSPAHandler(cfg.StaticDir)).Methods(http.MethodGet, http.MethodHead)
	}

	return r
}
