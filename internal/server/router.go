package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// RouterOptions controls the construction of the HTTP router. The zero value
// is invalid: Handlers and Authenticator are required.
type RouterOptions struct {
	Handlers      *Handlers
	Authenticator *TokenAuthenticator
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, and
// the API handlers mounted.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOptions := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsOptions = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsOptions))

	for _, mw := range opts.Middleware {
		r.Use(mw)
	}
	r.Use(opts.Authenticator.Middleware)

	health := opts.HealthHandler
	if health == nil {
		health = defaultHealthHandler
	}
	r.Get("/healthz", health)

	h := opts.Handlers
	r.Route("/api", func(r chi.Router) {
		r.Post("/tokens", h.CreateToken)
		r.Get("/tokens", h.ListTokens)

		r.Post("/layers", h.CreateLayer)
		r.Get("/layers", h.ListLayers)
		r.Get("/layers/{layerID}", h.GetLayer)
		r.Delete("/layers/{layerID}", h.DeleteLayer)
		r.Get("/layers/{layerID}/features", h.ListLayerFeatures)

		r.Post("/geoviews", h.CreateView)
		r.Get("/geoviews", h.ListViews)
		r.Get("/geoviews/{viewID}", h.GetView)
		r.Delete("/geoviews/{viewID}", h.DeleteView)
		r.Get("/geoviews/{viewID}/projection", h.ProjectView)
		r.Put("/geoviews/{viewID}/layers/{layerID}", h.AttachLayer)
		r.Delete("/geoviews/{viewID}/layers/{layerID}", h.DetachLayer)

		r.Post("/features", h.CreateFeature)
		r.Get("/features/{featureID}", h.GetFeature)
		r.Put("/features/{featureID}", h.UpdateFeature)
		r.Delete("/features/{featureID}", h.DeleteFeature)

		r.Put("/roles/{kind}/{resourceID}/{role}/{tokenID}", h.GrantRole)
		r.Delete("/roles/{kind}/{resourceID}/{role}/{tokenID}", h.RevokeRole)
	})

	return r
}

// NewHTTPServer wraps the router with h2c so gRPC-style HTTP/2 clients work
// without TLS in development.
func NewHTTPServer(addr string, router chi.Router) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}
}
