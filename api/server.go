/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/managers/*   Campaign manager management and payment history
  /api/clients/*    Client roster and lifecycle operations
  /api/work/*       One-time work items
  /api/payouts/*    Monthly payout calculation and CSV export
  /api/payments/*   Payment record lifecycle
  /metrics          Prometheus scrape endpoint
  /healthz          Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Campaign manager routes
		r.Route("/managers", func(r chi.Router) {
			r.Get("/", h.ListManagers)
			r.Post("/", h.CreateManager)
			r.Get("/{id}", h.GetManager)
			r.Put("/{id}", h.UpdateManager)
			r.Get("/{id}/payments", h.GetManagerPayments)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}", h.UpdateClient)
			r.Delete("/{id}", h.DeleteClient)
			r.Get("/{id}/history", h.GetClientHistory)
			r.Get("/{id}/saved-days", h.GetSavedDays)
			r.Post("/{id}/pause", h.PauseClient)
			r.Post("/{id}/resume", h.ResumeClient)
			r.Post("/{id}/leave", h.LeaveClient)
			r.Post("/{id}/handoff", h.HandoffClient)
			r.Post("/{id}/platforms", h.ChangeClientPlatforms)
		})

		// One-time work routes
		r.Route("/work", func(r chi.Router) {
			r.Get("/", h.ListWork)
			r.Post("/", h.CreateWork)
			r.Put("/{id}", h.UpdateWork)
		})

		// Payout calculation routes
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", h.GetPayouts)
			r.Get("/export", h.ExportPayouts)
		})

		// Payment record routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/mark-paid", h.MarkPaid)
			r.Post("/{id}/cancel", h.CancelPayment)
			r.Post("/{id}/receipt", h.AttachReceipt)
		})
	})

	// Operational endpoints
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
