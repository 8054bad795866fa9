package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarrec/authflow-be/internal/api/handlers"
	"github.com/dmarrec/authflow-be/internal/api/respond"
	"github.com/dmarrec/authflow-be/internal/apperr"
	"github.com/dmarrec/authflow-be/internal/auth"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(authHandler *handlers.AuthHandler, guard *auth.Guard, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)

	// The frontend authenticates with the http-only cookie, so credentials
	// must be allowed.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.Success(w, http.StatusOK, "ok", "", nil)
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/forget-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware)
			r.Post("/verify", authHandler.Verify)
			r.Post("/resend-otp", authHandler.ResendOTP)
		})
	})

	// Unmatched routes answer with the same envelope shape as everything else.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, apperr.NotFound(fmt.Sprintf("Can't find %s on this server!", r.URL.Path)))
	})

	return r
}
