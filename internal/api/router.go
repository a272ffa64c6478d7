package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"concurd/pkg/db"
)

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	allowed := a.config.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))

	r.Use(httprate.Limit(a.config.RequestsPerMinute, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.store.DB == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database not configured"))
			return
		}
		if err := db.Ping(r.Context(), a.store.DB); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unreachable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Method("GET", "/metrics", promhttp.Handler())

	// /auth/start long-polls for token delivery; it gets no per-request
	// timeout beyond the coordinator's own poll bound.
	r.Route("/auth", func(r chi.Router) {
		r.Get("/", a.handleAuthPage)
		r.Post("/client_id", a.handleClientID)
		r.Get("/start", a.handleStart)
		r.Get("/redirect", a.handleRedirect)
		r.Post("/token", a.handleToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(a.config.RequestTimeout))

		r.Route("/vault", func(r chi.Router) {
			r.Post("/", a.handleVaultSave)
		})

		r.Route("/file", func(r chi.Router) {
			r.Get("/", a.handleListFiles)
			r.Post("/", a.handleUpsertFile)
			r.Put("/", a.handleUpsertFiles)
		})
	})

	return r
}
