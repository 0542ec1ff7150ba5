package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the editor-facing API.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Site-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Route("/{campaignID}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Put("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)
				r.Get("/plan", h.PlanCampaign)
				r.Post("/activate", h.ActivateCampaign)
				r.Post("/pause", h.PauseCampaign)
				r.Post("/resume", h.ResumeCampaign)
				r.Post("/cancel", h.CancelCampaign)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.ListPosts)
			r.Post("/", h.CreatePost)
			r.Route("/{postID}", func(r chi.Router) {
				r.Get("/", h.GetPost)
				r.Put("/", h.UpdatePost)
				r.Delete("/", h.DeletePost)
				r.Post("/confirm", h.ConfirmPost)
				r.Post("/cancel", h.CancelPost)
			})
		})
	})

	return r
}

// siteID resolves the tenant scope for a request. Single-tenant deploys
// can omit the header.
func siteID(r *http.Request) string {
	if id := r.Header.Get("X-Site-ID"); id != "" {
		return id
	}
	return "default"
}
