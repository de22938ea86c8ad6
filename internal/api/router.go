package api

import (
	"net/http"

	mw "github.com/Ishwarya142/plantiq/internal/api/middleware"
	"github.com/Ishwarya142/plantiq/internal/api/response"
	"github.com/Ishwarya142/plantiq/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit
	Metrics   *metrics.Metrics

	HealthHandler http.HandlerFunc

	PlantAIAnalysisHandler http.HandlerFunc
	IdentifyPlantHandler   http.HandlerFunc

	RegisterHandler  http.HandlerFunc
	MeHandler        http.HandlerFunc
	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc

	ListPlants       http.HandlerFunc
	CreatePlant      http.HandlerFunc
	GetPlant         http.HandlerFunc
	UpdatePlant      http.HandlerFunc
	DeletePlant      http.HandlerFunc
	UploadPlantImage http.HandlerFunc
	InsightHandler   http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger)
	if deps.Metrics != nil {
		r.Use(mw.Metrics(deps.Metrics))
	}
	r.Use(mw.Recovery)

	// Public
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Browser-facing AI functions: CORS first so preflights skip the limiter.
	r.Group(func(r chi.Router) {
		r.Use(mw.CORS)
		r.Use(deps.RateLimit.Limit)

		r.Options("/functions/v1/*", preflight)
		r.Post("/functions/v1/plant-ai-analysis", orNotImplemented(deps.PlantAIAnalysisHandler))
		r.Post("/functions/v1/identify-plant", orNotImplemented(deps.IdentifyPlantHandler))
	})

	r.With(deps.RateLimit.Limit).Post("/api/v1/auth/register", orNotImplemented(deps.RegisterHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Get("/api/v1/me", orNotImplemented(deps.MeHandler))
		r.Get("/api/v1/plants", orNotImplemented(deps.ListPlants))
		r.Get("/api/v1/plants/{plantID}", orNotImplemented(deps.GetPlant))
		r.Get("/api/v1/keys", orNotImplemented(deps.ListKeysHandler))

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("write"))

			r.Post("/api/v1/plants", orNotImplemented(deps.CreatePlant))
			r.Patch("/api/v1/plants/{plantID}", orNotImplemented(deps.UpdatePlant))
			r.Delete("/api/v1/plants/{plantID}", orNotImplemented(deps.DeletePlant))
			r.Put("/api/v1/plants/{plantID}/image", orNotImplemented(deps.UploadPlantImage))
			r.Post("/api/v1/plants/{plantID}/insights/{kind}", orNotImplemented(deps.InsightHandler))

			r.Post("/api/v1/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Delete("/api/v1/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// preflight is never reached in practice: CORS answers OPTIONS itself.
// The route only has to exist so chi does not answer 405.
func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
