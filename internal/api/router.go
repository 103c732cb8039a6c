package api

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"kioskpanel/internal/config"
	"kioskpanel/internal/handlers"
	"kioskpanel/internal/log"
	"kioskpanel/internal/metrics"
	"kioskpanel/internal/middleware"
	"kioskpanel/internal/service"
)

const authRealm = "Kiosk Control Panel"

type Router struct {
	*mux.Router
}

// Options carries everything the HTTP surface is built from.
type Options struct {
	Control   *service.ControlService
	Status    *service.StatusService
	Templates fs.FS
	Static    fs.FS
	Page      handlers.PageSettings
	Auth      config.AuthConfig
	Logger    log.Logger
}

func NewRouter(opts Options) (*Router, error) {
	r := mux.NewRouter()

	tmplHandler, err := handlers.NewTemplateHandler(opts.Templates, opts.Control, opts.Page, opts.Logger)
	if err != nil {
		return nil, err
	}

	panel := handlers.NewPanelHandler(opts.Control, opts.Status, opts.Logger)

	// Probes and scraping stay open even when auth is on.
	r.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/ready", handlers.ReadyCheck).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/", tmplHandler.ServeTemplate("index")).Methods(http.MethodGet)

	staticHandler := http.FileServer(http.FS(opts.Static))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", staticHandler))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", panel.Status).Methods(http.MethodGet)
	api.HandleFunc("/last-action", panel.LastAction).Methods(http.MethodGet)
	api.HandleFunc("/history", panel.History).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.HandleFunc("/refresh", panel.Refresh).Methods(http.MethodPost)
	protected.HandleFunc("/hard-refresh", panel.HardRefresh).Methods(http.MethodPost)
	protected.HandleFunc("/restart-firefox", panel.RestartFirefox).Methods(http.MethodPost)
	protected.HandleFunc("/switch-dashboard", panel.SwitchDashboard).Methods(http.MethodPost)
	protected.HandleFunc("/restart-k3s", panel.RestartK3s).Methods(http.MethodPost)
	protected.HandleFunc("/reboot", panel.Reboot).Methods(http.MethodPost)
	protected.HandleFunc("/logs", panel.Logs).Methods(http.MethodGet)
	if opts.Auth.Enabled {
		protected.Use(middleware.BasicAuth(opts.Auth.Username, opts.Auth.Password, authRealm))
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	return &Router{Router: r}, nil
}
