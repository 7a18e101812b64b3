package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterOptions are the outer pieces the router mounts around the handlers.
type RouterOptions struct {
	Logger *slog.Logger
	// Limiter guards the /auth and /user routes. Nil disables limiting.
	Limiter *RateLimiter
	// WebDir is served at the root when set.
	WebDir string
}

// NewRouter builds the complete HTTP surface.
func NewRouter(h *EventHandler, opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	limit := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		limit = opts.Limiter.Middleware
	}

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(log))             // structured access log
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Use(limit)
		r.Post("/create", h.SignUp)
		r.Post("/login", h.Login)
		r.Post("/validate", h.Validate)
		r.Post("/logout", h.Logout)
	})

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.ListEvents)
		r.Post("/{eventId}", h.GetEvent)
		r.Get("/{eventId}/arrivals", h.ListArrivals)
	})
	r.Get("/search", h.Search)
	r.Post("/filter/{filter}", h.Filter)

	r.Route("/user", func(r chi.Router) {
		r.Use(limit)
		r.Post("/create", h.CreateEvent)
		r.Post("/delete", h.DeleteEvent)
		r.Post("/reserve", h.Reserve)
		r.Post("/withdraw", h.Withdraw)
	})

	r.Post("/{userId}/events", h.CreatedEvents)
	r.Post("/{userId}/history", h.History)

	if opts.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.WebDir)))
	}
	return r
}
