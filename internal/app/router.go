package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/rbac-console/internal/console"
	"github.com/odyssey-erp/rbac-console/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Console *console.Handler
	Metrics *observability.Metrics
	Mounts  []Mount
}

// Mount attaches extra routes under Pattern.
type Mount struct {
	Pattern string
	Routes  func(chi.Router)
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Console != nil {
		params.Console.MountRoutes(r)
	}
	for _, m := range params.Mounts {
		r.Route(m.Pattern, m.Routes)
	}
	return r
}
