package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires all endpoints. Everything under /api/v1 except login
// requires a valid session token.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(60*time.Second))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)

			r.Post("/auth/password", h.SetPassword)
			r.Post("/auth/reset", h.Reset)
			r.Post("/auth/logout", h.Logout)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)

			r.Post("/xp", h.GrantXP)
			r.Post("/tests", h.RecordTestAttempt)
			r.Post("/scenario", h.SetScenario)

			r.Get("/stats", h.GetStats)
			r.Get("/achievements", h.GetAchievements)

			r.Post("/tokens/buy", h.BuyTokens)
			r.Post("/tokens/sell", h.SellTokens)
			r.Get("/tokens/trades", h.GetTrades)

			r.Get("/qubic/overview", h.QubicOverview)
			r.Put("/qubic/identity", h.SetQubicIdentity)

			r.Get("/market/prices", h.MarketPrices)
			r.Get("/market/coins", h.MarketCoins)
			r.Get("/market/chart", h.MarketChart)
		})
	})

	return r
}
