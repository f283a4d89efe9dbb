package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(api(d)...)

		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.CreateBookmark(d))
		r.Delete("/", handlers.DeleteAllBookmarks(d))

		r.Get("/search", handlers.SearchBookmarks(d))
		r.Get("/categories", handlers.Categories(d))
		r.Get("/tags", handlers.Tags(d))
		r.Get("/counts", handlers.Counts(d))
		r.Get("/duplicates", handlers.Duplicates(d))
		r.Post("/duplicates/resolve", handlers.ResolveDuplicates(d))
		r.Post("/import", handlers.ImportBookmarks(d))
		r.Get("/export", handlers.ExportBookmarks(d))
		r.Post("/batch", handlers.BatchBookmarks(d))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetBookmark(d))
			r.Patch("/", handlers.UpdateBookmark(d))
			r.Delete("/", handlers.DeleteBookmark(d))
			r.Post("/favorite", handlers.ToggleFavorite(d))
		})
	})
}
