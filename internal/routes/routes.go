package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnshRaj112/ediary-backend/internal/handlers"
	"github.com/AnshRaj112/ediary-backend/internal/middleware"
)

// SetupRoutes mounts the API on r. Everything under /api except register and login requires a bearer token.
func SetupRoutes(r chi.Router, h *handlers.Handler) {
	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Auth routes
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.Tokens))

		r.Put("/api/auth/update-profile", h.UpdateProfile)
		r.Get("/api/auth/me", h.Me)
		r.Post("/api/auth/logout", h.Logout)

		// Diary routes
		r.Route("/api/diaries", func(r chi.Router) {
			r.Get("/", h.ListDiaries)
			r.Post("/", h.CreateDiary)
			r.Get("/trash", h.ListTrash)
			r.Delete("/trash", h.EmptyTrash)
			r.Get("/stats", h.Stats)
			r.Get("/calendar", h.Calendar)
			r.Get("/{id}", h.GetDiary)
			r.Put("/{id}", h.UpdateDiary)
			r.Delete("/{id}", h.TrashDiary)
			r.Put("/{id}/restore", h.RestoreDiary)
			r.Delete("/{id}/permanent", h.PurgeDiary)
		})

		// File upload routes
		r.Post("/api/upload", h.UploadImage)
	})

	// WebSocket endpoint for realtime diary changes; authenticates itself.
	r.Get("/ws/diaries", h.DiaryFeed)
}
