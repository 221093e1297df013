package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/kata-app/kata-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Delete("/api/auth/account", handlers.DeleteAccount)
	r.Get("/api/auth/me", handlers.GetMe)
	r.Post("/api/auth/check-username", handlers.CheckUsernameAvailability)

	// Profile routes
	r.Get("/api/profile", handlers.GetProfile)
	r.Put("/api/profile", handlers.UpdateProfile)

	// Home surface: personal stats + top-liked discovery
	r.Get("/api/home", handlers.GetHome)

	// Contribution routes
	r.Get("/api/contributions", handlers.SearchContributions)
	r.Get("/api/contributions/detail", handlers.GetContribution)
	r.Post("/api/contributions", handlers.UploadContribution)
	r.Post("/api/contributions/like", handlers.ToggleLike)
	r.Get("/api/contributions/download", handlers.DownloadContribution)

	// WebSocket endpoint for live feed events (Redis Pub/Sub fan-out)
	r.Get("/ws/feed", handlers.FeedWebSocket)
}
