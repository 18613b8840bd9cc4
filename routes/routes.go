package routes

import (
	"net/http"
	"time"

	"github.com/dgr198213-ui/qodeia-arch/app"
	appmw "github.com/dgr198213-ui/qodeia-arch/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(appmw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// API v1 routes, all governed and authenticated
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		// Credential vault
		r.Route("/credentials", func(r chi.Router) {
			r.Get("/", deps.CredentialHandler.HandleListCredentials)
			r.Post("/", deps.CredentialHandler.HandleCreateCredential)
			r.Get("/{id}", deps.CredentialHandler.HandleGetCredential)
			r.Get("/{id}/secret", deps.CredentialHandler.HandleRevealSecret)
			r.Patch("/{id}", deps.CredentialHandler.HandleUpdateCredential)
			r.Delete("/{id}", deps.CredentialHandler.HandleDeleteCredential)
		})

		// Audit trail
		r.Route("/audit", func(r chi.Router) {
			r.Get("/logs", deps.AuditHandler.HandleListAuditLogs)
			r.Get("/requests/{request_id}", deps.AuditHandler.HandleGetAuditLogsByRequest)
		})

		// Governance rule catalog
		r.Get("/rules", deps.RuleHandler.HandleListRules)

		// Per-platform integration status
		r.Get("/status", deps.StatusHandler.HandleGetStatus)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
