/**
 * @description
 * Route table for the ambassador console backend. Public identity routes
 * sit outside the auth gate; everything else is resolved per request by
 * the Authenticator and then split into ambassador- and admin-guarded
 * groups.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: router and standard middleware.
 * - github.com/go-chi/cors: browser console origin handling.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nexapay/ambassador-service/internal/domain"
)

func NewRouter(handler *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ambassador service is healthy"))
	})

	// Public identity routes.
	r.Post("/auth/register", handler.Register)
	r.Get("/auth/activate", handler.Activate)
	r.Post("/auth/login", handler.Login)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(Authenticator(handler.service))

		r.Get("/auth/me", handler.Me)
		r.Post("/auth/logout", handler.Logout)
		r.Get("/files/url", handler.FileURL)

		// Ambassador side of the console.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAmbassador))

			r.Get("/me/dashboard", handler.Dashboard)
			r.Get("/kyc", handler.GetOwnKYC)
			r.Post("/kyc", handler.SubmitKYC)
			r.Get("/receipts", handler.ListOwnReceipts)
			r.Post("/receipts", handler.SubmitDeposit)
			r.Get("/transactions", handler.ListOwnTransactions)
		})

		// Admin side of the console.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAdmin))

			r.Get("/admin/dashboard", handler.AdminDashboard)
			r.Get("/admin/ambassadors", handler.ListAmbassadors)
			r.Post("/admin/ambassadors", handler.CreateAmbassador)
			r.Put("/admin/ambassadors/{id}", handler.UpdateAmbassador)
			r.Delete("/admin/ambassadors/{id}", handler.DeleteAmbassador)
			r.Get("/admin/receipts", handler.ListReceipts)
			r.Get("/admin/receipts/{id}", handler.GetReceipt)
			r.Post("/admin/receipts/{id}/approve", handler.ApproveReceipt)
			r.Post("/admin/receipts/{id}/reject", handler.RejectReceipt)
			r.Get("/admin/transactions", handler.ListTransactions)
			r.Get("/admin/kyc", handler.ListKYCApplications)
			r.Get("/admin/kyc/{id}", handler.GetKYCApplication)
			r.Post("/admin/kyc/{id}/approve", handler.ApproveKYC)
			r.Post("/admin/kyc/{id}/reject", handler.RejectKYC)
		})
	})

	return r
}
