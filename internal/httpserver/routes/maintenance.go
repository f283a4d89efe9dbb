package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
)

func init() { Register(registerMaintenance) }

func registerMaintenance(r chi.Router, d deps.Deps) {
	r.With(guarded(d)...).Post("/api/maintenance/sweep", handlers.Sweep(d))
}
