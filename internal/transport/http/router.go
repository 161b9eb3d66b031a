package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quillblog/internal/handler"
	"quillblog/internal/httputil"
	authmw "quillblog/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	PostHandler *handler.PostHandler
	JWTSecret   string
	CORSOrigins []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Credentialed CORS restricted to the configured frontend origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Post("/register", cfg.AuthHandler.Register)
	r.Post("/login", cfg.AuthHandler.Login)
	r.Post("/refresh", cfg.AuthHandler.Refresh)
	r.Post("/logout", cfg.AuthHandler.Logout)

	r.Get("/post", cfg.PostHandler.GetRecent)
	r.Get("/post/{id}", cfg.PostHandler.GetByID)
	r.Get("/profile/{id}", cfg.UserHandler.GetProfile)

	// Protected routes - require a valid session cookie
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/profile", cfg.AuthHandler.Profile)

		r.Post("/post", cfg.PostHandler.Create)
		r.Put("/post", cfg.PostHandler.Update)
		r.Delete("/post/{id}", cfg.PostHandler.Delete)

		r.Put("/profile/{id}", cfg.UserHandler.UpdateProfile)
	})

	return r
}
