package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
)

func init() { Register(registerProjects) }

func registerProjects(r chi.Router, d deps.Deps) {
	r.Route("/api/projects", func(r chi.Router) {
		r.Use(api(d)...)

		r.Get("/", handlers.ListProjects(d))
		r.Post("/", handlers.CreateProject(d))
		r.Post("/import", handlers.ImportProject(d))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetProject(d))
			r.Patch("/", handlers.UpdateProject(d))
			r.Delete("/", handlers.DeleteProject(d))

			r.Get("/stats", handlers.ProjectStats(d))
			r.Get("/export", handlers.ExportProject(d))
			r.Post("/duplicate", handlers.DuplicateProject(d))
			r.Post("/archive", handlers.ArchiveProject(d))
			r.Post("/unarchive", handlers.UnarchiveProject(d))

			r.Get("/bookmarks", handlers.ProjectBookmarks(d))
			r.Post("/bookmarks", handlers.CreateProjectBookmark(d))
			r.Put("/bookmarks/{bookmarkID}", handlers.LinkProjectBookmark(d))
			r.Delete("/bookmarks/{bookmarkID}", handlers.UnlinkProjectBookmark(d))

			r.Post("/notes", handlers.AddNote(d))
			r.Patch("/notes/{noteID}", handlers.UpdateNote(d))
			r.Delete("/notes/{noteID}", handlers.DeleteNote(d))

			r.Post("/tasks", handlers.AddTask(d))
			r.Patch("/tasks/{taskID}", handlers.UpdateTask(d))
			r.Delete("/tasks/{taskID}", handlers.DeleteTask(d))
			r.Post("/tasks/{taskID}/toggle", handlers.ToggleTask(d))
		})
	})
}
