package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/codec"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type noteRequest struct {
	Content string `json:"content"`
}

type taskRequest struct {
	Title string `json:"title"`
}

// ListProjects returns every project, narrowed by q and status
// (active | archived | completed | all).
func ListProjects(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects := d.Library.Projects
		q := r.URL.Query()

		out := projects.All()
		if status := q.Get("status"); status != "" {
			out = domain.ProjectsByStatus(out, domain.ProjectStatus(strings.ToLower(status)))
		}
		if query := strings.TrimSpace(q.Get("q")); query != "" {
			out = domain.SearchProjects(out, query)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func CreateProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.ProjectInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, d, err)
			return
		}
		id, err := d.Library.Projects.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: id})
	}
}

func GetProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Library.Projects.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func UpdateProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.ProjectPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, r, d, err)
			return
		}
		id := chi.URLParam(r, "id")
		if err := d.Library.Projects.Update(r.Context(), id, patch); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeProject(w, r, d, id, http.StatusOK)
	}
}

func DeleteProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Library.Projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ProjectStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := d.Library.Projects.Stats(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func DuplicateProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := d.Library.Projects.Duplicate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: id})
	}
}

func ArchiveProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Library.Projects.Archive(r.Context(), id); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeProject(w, r, d, id, http.StatusOK)
	}
}

func UnarchiveProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Library.Projects.Unarchive(r.Context(), id); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeProject(w, r, d, id, http.StatusOK)
	}
}

func ExportProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		filename, err := d.Library.Projects.ExportFilename(id)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		attachment(w, codec.FormatJSON.ContentType(), filename)
		if err := d.Library.Projects.Export(id, w); err != nil {
			d.Logger.Error("project export failed",
				logger.String("project_id", id),
				logger.Error(err))
		}
	}
}

func ImportProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
		id, err := d.Library.Projects.Import(r.Context(), body)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: id})
	}
}

// ProjectBookmarks resolves the project's references to bookmarks,
// skipping references that no longer resolve.
func ProjectBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := d.Library.ProjectBookmarks(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, bs)
	}
}

func CreateProjectBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.BookmarkInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, d, err)
			return
		}
		id, err := d.Library.CreateBookmarkInProject(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: id})
	}
}

func LinkProjectBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Library.LinkBookmarks(r.Context(), id, chi.URLParam(r, "bookmarkID")); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeProject(w, r, d, id, http.StatusOK)
	}
}

func UnlinkProjectBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Library.Projects.RemoveBookmarkRef(r.Context(), id, chi.URLParam(r, "bookmarkID")); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeProject(w, r, d, id, http.StatusOK)
	}
}

func AddNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req noteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		id, err := d.Library.Projects.AddNote(r.Context(), chi.URLParam(r, "id"), req.Content)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: id})
	}
}

func UpdateNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req noteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		id := chi.URLParam(r, "id")
		if err := d.Library.Projects.UpdateNote(r.Context(), id, chi.URLParam(r, "noteID"), req.Content); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeProject(w, r, d, id, http.StatusOK)
	}
}

func DeleteNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Library.Projects.DeleteNote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteID")); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AddTask(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req taskRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		id, err := d.Library.Projects.AddTask(r.Context(), chi.URLParam(r, "id"), req.Title)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: id})
	}
}

func UpdateTask(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.TaskPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, r, d, err)
			return
		}
		id := chi.URLParam(r, "id")
		if err := d.Library.Projects.UpdateTask(r.Context(), id, chi.URLParam(r, "taskID"), patch); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeProject(w, r, d, id, http.StatusOK)
	}
}

func ToggleTask(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Library.Projects.ToggleTask(r.Context(), id, chi.URLParam(r, "taskID")); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeProject(w, r, d, id, http.StatusOK)
	}
}

func DeleteTask(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Library.Projects.DeleteTask(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "taskID")); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeProject(w http.ResponseWriter, r *http.Request, d deps.Deps, id string, status int) {
	p, err := d.Library.Projects.Get(id)
	if err != nil {
		writeError(w, r, d, fmt.Errorf("reload project: %w", err))
		return
	}
	writeJSON(w, status, p)
}
