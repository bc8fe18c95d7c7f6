package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	accountHandler "github.com/bngy/siminvest/internal/http/account"
	authHandler "github.com/bngy/siminvest/internal/http/auth"
	investmentHandler "github.com/bngy/siminvest/internal/http/investment"
	authmw "github.com/bngy/siminvest/internal/http/middleware"
)

func New(
	authV1 *authHandler.Handler,
	accountsV1 *accountHandler.Handler,
	investmentsV1 *investmentHandler.Handler,
	verifier authmw.TokenVerifier,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			authV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth(verifier))
			r.Use(middleware.AllowContentType("application/json"))

			r.Route("/accounts", accountsV1.Routes)
			r.Route("/simulations", investmentsV1.Routes)
		})
	})

	return router
}
