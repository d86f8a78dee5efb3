package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/ledger/internal/auth"
	httpauth "github.com/MrJamesThe3rd/ledger/internal/http/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledger/internal/http/ratelimit"
	"github.com/MrJamesThe3rd/ledger/internal/http/report"
	"github.com/MrJamesThe3rd/ledger/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledger/internal/http/user"
	domainuser "github.com/MrJamesThe3rd/ledger/internal/user"
)

type Handlers struct {
	Auth         *httpauth.Handler
	Transactions *transaction.Handler
	Imports      *importcsv.Handler
	Users        *user.Handler
	Reports      *report.Handler
}

func New(issuer *auth.Issuer, accounts httpauth.Accounts, allowedOrigins []string, loginLimiter *ratelimit.Limiter, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(loginLimiter.Middleware)
			r.Use(middleware.AllowContentType("application/json"))
			h.Auth.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(httpauth.Authenticate(issuer))

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Transactions.Routes(r)
			})

			r.Route("/import", h.Imports.Routes)

			r.Get("/users/me", h.Users.Me)

			r.Group(func(r chi.Router) {
				r.Use(httpauth.RequireRole(accounts, domainuser.RoleAdmin))

				r.Route("/users", func(r chi.Router) {
					r.Use(middleware.AllowContentType("application/json"))
					h.Users.Routes(r)
				})

				r.Route("/reports", h.Reports.Routes)
			})
		})
	})

	return router
}
