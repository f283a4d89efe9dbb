package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/codec"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// ListBookmarks filters the collection by q, category and repeated tag
// parameters.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := domain.Filter{
			Query:    strings.TrimSpace(q.Get("q")),
			Category: q.Get("category"),
			Tags:     q["tag"],
		}
		writeJSON(w, http.StatusOK, d.Library.Bookmarks.Filter(f))
	}
}

// SearchBookmarks ranks the collection by relevance to q. limit caps the
// number of results.
func SearchBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeError(w, r, d, fmt.Errorf("%w: q is required", domain.ErrValidation))
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, r, d, fmt.Errorf("%w: invalid limit %q", domain.ErrValidation, raw))
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, d.Library.Bookmarks.Search(query, limit))
	}
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.BookmarkInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, d, err)
			return
		}
		id, err := d.Library.Bookmarks.Add(r.Context(), in)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: id})
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Library.Bookmarks.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.BookmarkPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, r, d, err)
			return
		}
		id := chi.URLParam(r, "id")
		if err := d.Library.Bookmarks.Update(r.Context(), id, patch); err != nil {
			writeError(w, r, d, err)
			return
		}
		b, _ := d.Library.Bookmarks.Get(id)
		writeJSON(w, http.StatusOK, b)
	}
}

// DeleteBookmark removes a bookmark and its project references.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Library.DeleteBookmark(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteAllBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !confirmed(r) {
			writeError(w, r, d, errConfirmRequired)
			return
		}
		n := d.Library.DeleteAllBookmarks(r.Context())
		d.Logger.Warn("all bookmarks deleted via endpoint",
			logger.Int("count", n),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

func ToggleFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Library.Bookmarks.ToggleFavorite(r.Context(), id); err != nil {
			writeError(w, r, d, err)
			return
		}
		b, _ := d.Library.Bookmarks.Get(id)
		writeJSON(w, http.StatusOK, b)
	}
}

type batchRequest struct {
	IDs      []string `json:"ids"`
	Action   string   `json:"action"` // tag | category | favorite | unfavorite | delete
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
}

// BatchBookmarks applies one action to many bookmarks. Deleting requires
// confirmation.
func BatchBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		if len(req.IDs) == 0 {
			writeError(w, r, d, fmt.Errorf("%w: ids are required", domain.ErrValidation))
			return
		}

		ctx := r.Context()
		var (
			n   int
			err error
		)
		switch req.Action {
		case "tag":
			n, err = d.Library.BatchTag(ctx, req.IDs, req.Tags)
		case "category":
			n, err = d.Library.BatchCategory(ctx, req.IDs, req.Category)
		case "favorite":
			n, err = d.Library.BatchFavorite(ctx, req.IDs, true)
		case "unfavorite":
			n, err = d.Library.BatchFavorite(ctx, req.IDs, false)
		case "delete":
			if !confirmed(r) {
				err = errConfirmRequired
				break
			}
			n = d.Library.DeleteBookmarks(ctx, req.IDs)
		default:
			err = fmt.Errorf("%w: unknown action %q", domain.ErrValidation, req.Action)
		}
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Library.Bookmarks.Categories())
	}
}

func Tags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Library.Bookmarks.Tags())
	}
}

func Counts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Library.Bookmarks.Counts())
	}
}

func Duplicates(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Library.Bookmarks.Duplicates())
	}
}

// ResolveDuplicates deletes every duplicate except the one kept by the
// keep strategy (newest by default).
func ResolveDuplicates(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keep := r.URL.Query().Get("keep")
		if keep == "" {
			keep = string(domain.KeepNewest)
		}
		strategy, err := domain.ParseKeepStrategy(keep)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if !confirmed(r) {
			writeError(w, r, d, errConfirmRequired)
			return
		}
		ids, n := d.Library.RemoveDuplicates(r.Context(), strategy)
		writeJSON(w, http.StatusOK, countResponse{Count: n, IDs: ids})
	}
}

// ImportBookmarks reads the raw request body as a bookmark file. The
// filename parameter selects the format.
func ImportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			writeError(w, r, d, fmt.Errorf("%w: filename is required", domain.ErrValidation))
			return
		}
		body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
		n, err := d.Library.Bookmarks.Import(r.Context(), filename, body)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, countResponse{Count: n})
	}
}

func ExportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("format")
		if name == "" {
			name = string(codec.FormatJSON)
		}
		format, err := codec.ParseFormat(name)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		attachment(w, format.ContentType(), format.Filename())
		if err := d.Library.Bookmarks.Export(format, w); err != nil {
			d.Logger.Error("bookmark export failed", logger.Error(err))
		}
	}
}
