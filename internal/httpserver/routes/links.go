package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Route("/api/links", func(r chi.Router) {
		r.Use(guarded(d)...)

		r.With(middleware.Timeout(d.RequestTimeout)).Get("/", handlers.LinkReport(d))
		r.With(middleware.Timeout(d.RequestTimeout)).Delete("/broken", handlers.RemoveBrokenLinks(d))

		// A full check probes the network for every bookmark.
		r.With(
			mw.RateLimit(mw.RateLimitConfig{
				Burst:             d.CheckBurst,
				RefillPerIPPerMin: d.CheckRefillPM,
				MaxEntries:        1024,
				TrustProxy:        d.TrustProxy,
			}),
			middleware.Timeout(d.LinkCheckTimeout),
		).Post("/check", handlers.CheckLinks(d))
	})
}
