package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/radarip/radarip/internal/middleware"
)

// NewRouter creates and configures the HTTP router
func NewRouter(deps *Dependencies, db Pinger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	health := NewHealthHandler(db)
	system := NewSystemHandler(deps)
	scans := NewScanHandler(deps)
	profiles := NewProfileHandler(deps)
	history := NewHistoryHandler(deps)

	// Health checks (no auth)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/login", system.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(deps.Auth))

			r.Get("/protocols", system.ListProtocols)
			r.Get("/profiles", profiles.List)

			r.Route("/scans", func(r chi.Router) {
				r.Get("/", scans.List)
				r.Post("/", scans.Create)
				if deps.Events != nil {
					r.Get("/events", deps.Events.ServeWs)
				}
				r.Get("/{id}", scans.Get)
			})

			r.Get("/history", history.List)
		})
	})

	return r
}
