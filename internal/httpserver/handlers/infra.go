package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/store"
)

var errStoreMissing = errors.New("store not initialized")

type componentStatus struct {
	OK        bool     `json:"ok"`
	Backend   string   `json:"backend,omitempty"`
	Documents []string `json:"documents,omitempty"`
	Bookmarks *int     `json:"bookmarks,omitempty"`
	Projects  *int     `json:"projects,omitempty"`
	Checked   *int     `json:"checked,omitempty"`
	Broken    *int     `json:"broken,omitempty"`
	LastRun   string   `json:"last_run,omitempty"`
	Running   bool     `json:"running,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the store, the collections and the link index.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		bookmarks := d.Library.Bookmarks.Len()
		projects := len(d.Library.Projects.All())

		links := d.Library.Links
		checked := links.Count()
		broken := len(links.Broken())
		lastRun := "never"
		if last := links.LastRun(); !last.IsZero() {
			lastRun = last.Format("2006-01-02 15:04:05")
		}

		storeStatus := componentStatus{OK: true, Backend: d.StoreBackend}
		if err := pingStore(r.Context(), d); err != nil {
			storeStatus.OK = false
			storeStatus.Error = err.Error()
		} else if lister, ok := d.Store.(store.Lister); ok {
			if names, err := lister.Names(r.Context()); err == nil {
				storeStatus.Documents = names
			}
		}

		components := map[string]componentStatus{
			"store": storeStatus,
			"library": {
				OK:        true,
				Bookmarks: &bookmarks,
				Projects:  &projects,
			},
			"linkcheck": {
				OK:      true,
				Checked: &checked,
				Broken:  &broken,
				LastRun: lastRun,
				Running: links.Running(),
			},
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is "persistent" when writes reach the store, "volatile"
// when the in-memory backend is used and "degraded" when the store is down.
func determineMode(components map[string]componentStatus) string {
	s := components["store"]
	switch {
	case !s.OK:
		return "degraded"
	case s.Backend == "memory":
		return "volatile"
	default:
		return "persistent"
	}
}
