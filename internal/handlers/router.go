package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finlens/ledgersync/internal/services"
)

// NewRouter mounts the API. The OAuth callback is the only QuickBooks
// route outside the auth middleware: Intuit calls it directly, carrying
// the tenant in the state parameter.
func NewRouter(auth *services.AuthService, authHandler *AuthHandler, qbHandler *QuickBooksHandler) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/logout-all", authHandler.LogoutAll)
		r.Post("/password-reset/request", authHandler.RequestPasswordReset)
		r.Post("/password-reset/confirm", authHandler.ResetPassword)
	})

	r.Route("/api/quickbooks", func(r chi.Router) {
		r.Get("/callback", qbHandler.Callback)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(auth))

			r.Get("/connect", qbHandler.Connect)
			r.Get("/status", qbHandler.Status)
			r.Delete("/disconnect", qbHandler.Disconnect)

			r.Post("/sync/accounts", qbHandler.SyncAccounts)
			r.Post("/sync/transactions", qbHandler.SyncTransactions)
			r.Post("/sync/all", qbHandler.SyncAll)
			r.Get("/sync/history", qbHandler.SyncHistory)

			r.Get("/accounts", qbHandler.ListAccounts)
			r.Get("/transactions", qbHandler.ListTransactions)
			r.Get("/data", qbHandler.ListAllData)
		})
	})

	return r
}
